// Package settings stores the tenant-wide file manager settings.
package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/daap14/headless/internal/docstore"
	"github.com/daap14/headless/internal/keyspace"
	"github.com/daap14/headless/internal/tenancy"
	"github.com/daap14/headless/internal/validation"
)

// Key is the sort key of the settings document.
const Key = "file-manager"

// Type is the document type tag of the settings row.
const Type = "fm#settings"

// Defaults applied when a tenant has not stored settings yet.
const (
	DefaultUploadMinFileSize int64 = 0
	DefaultUploadMaxFileSize int64 = 26214401
	DefaultSrcPrefix               = "/files/"
)

// Settings bounds uploads and tells clients where files are served from.
type Settings struct {
	Key               string `json:"key"`
	UploadMinFileSize int64  `json:"uploadMinFileSize" validate:"gte=0"`
	UploadMaxFileSize int64  `json:"uploadMaxFileSize" validate:"gte=0"`
	SrcPrefix         string `json:"srcPrefix" validate:"max=255"`
}

// Defaults returns the settings used before any are stored.
func Defaults() Settings {
	return Settings{
		Key:               Key,
		UploadMinFileSize: DefaultUploadMinFileSize,
		UploadMaxFileSize: DefaultUploadMaxFileSize,
		SrcPrefix:         DefaultSrcPrefix,
	}
}

// UpdateInput is a partial update. Nil fields keep their current value.
type UpdateInput struct {
	UploadMinFileSize *int64  `json:"uploadMinFileSize"`
	UploadMaxFileSize *int64  `json:"uploadMaxFileSize"`
	SrcPrefix         *string `json:"srcPrefix"`
}

// Service reads and writes settings in the tenant of the request scope.
type Service struct {
	store docstore.Store
}

// NewService creates a Service.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Get returns the stored settings, or Defaults when none are stored.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	_, stored, err := s.read(ctx)
	if err != nil {
		return Settings{}, err
	}
	if stored == nil {
		return Defaults(), nil
	}
	return *stored, nil
}

// Update merges in into the current settings, validates and stores the result.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Settings, error) {
	pk, stored, err := s.read(ctx)
	if err != nil {
		return Settings{}, err
	}

	next := Defaults()
	if stored != nil {
		next = *stored
	}
	if in.UploadMinFileSize != nil {
		next.UploadMinFileSize = *in.UploadMinFileSize
	}
	if in.UploadMaxFileSize != nil {
		next.UploadMaxFileSize = *in.UploadMaxFileSize
	}
	if in.SrcPrefix != nil {
		next.SrcPrefix = *in.SrcPrefix
	}
	next.Key = Key

	errs := validation.Struct(next)
	if next.UploadMaxFileSize < next.UploadMinFileSize {
		errs = append(errs, validation.FieldError{
			Field:   "uploadMaxFileSize",
			Message: "uploadMaxFileSize must not be less than uploadMinFileSize",
		})
	}
	if err := validation.NewError(errs); err != nil {
		return Settings{}, err
	}

	item, err := docstore.NewItem(pk, Key, Type, next)
	if err != nil {
		return Settings{}, err
	}
	if stored == nil {
		err = s.store.Create(ctx, item)
	} else {
		err = s.store.Update(ctx, item)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("storing file manager settings: %w", err)
	}
	return next, nil
}

func (s *Service) read(ctx context.Context) (string, *Settings, error) {
	scope, err := tenancy.Require(ctx)
	if err != nil {
		return "", nil, err
	}
	pk := keyspace.SettingsPK(scope)

	items, err := s.store.Read(ctx, docstore.Query{PK: pk, SK: Key}, 1)
	if err != nil {
		return "", nil, fmt.Errorf("reading file manager settings: %w", err)
	}
	if len(items) == 0 {
		return pk, nil, nil
	}

	var st Settings
	if err := json.Unmarshal(items[0].Data, &st); err != nil {
		return "", nil, fmt.Errorf("decoding file manager settings: %w", err)
	}
	return pk, &st, nil
}
