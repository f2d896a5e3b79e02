// Package upload issues presigned POST payloads that let clients upload files
// straight to object storage.
package upload

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/daap14/headless/internal/settings"
	"github.com/daap14/headless/internal/slug"
	"github.com/daap14/headless/internal/validation"
)

// MaxBatchFiles is the most files one batch request may presign.
const MaxBatchFiles = 20

// Error is a batch request rejection carrying a machine-readable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Batch rejections.
var (
	ErrNonArray = &Error{Code: "UPLOAD_FILES_NON_ARRAY", Message: `"data" argument must be an array`}
	ErrNoFiles  = &Error{Code: "UPLOAD_FILES_MIN_FILES", Message: `"data" argument must contain at least one file`}
	ErrTooMany  = &Error{Code: "UPLOAD_FILES_MAX_FILES", Message: fmt.Sprintf(`"data" argument must not contain more than %d files`, MaxBatchFiles)}
)

// PostInput describes the object a POST policy is signed for.
type PostInput struct {
	Key         string
	ContentType string
	MinSize     int64
	MaxSize     int64
}

// PresignedPost is what a client needs to submit a multipart upload form.
type PresignedPost struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// Presigner signs POST policies.
type Presigner interface {
	PresignPost(ctx context.Context, in PostInput) (*PresignedPost, error)
}

// SettingsReader supplies the upload size bounds of the request's tenant.
type SettingsReader interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// FileInput describes a file the client intends to upload.
type FileInput struct {
	Name string `json:"name" validate:"required,max=255"`
	Type string `json:"type" validate:"required,max=255"`
	Size int64  `json:"size" validate:"gte=0"`
}

// File is the stored identity of an upload.
type File struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Payload is returned per file.
type Payload struct {
	Data PresignedPost `json:"data"`
	File File          `json:"file"`
}

// Service builds presigned payloads.
type Service struct {
	presigner Presigner
	settings  SettingsReader
	newID     func() string
}

// NewService creates a Service. Object keys are prefixed with a UUIDv7.
func NewService(presigner Presigner, settings SettingsReader) *Service {
	return &Service{presigner: presigner, settings: settings, newID: newKeyID}
}

func newKeyID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// WithIDGenerator returns a copy of s using fn for object key prefixes.
func (s *Service) WithIDGenerator(fn func() string) *Service {
	cp := *s
	cp.newID = fn
	return &cp
}

// PresignedPostPayload validates one file against the tenant's settings and
// signs a POST policy for it.
func (s *Service) PresignedPostPayload(ctx context.Context, in FileInput) (*Payload, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading file manager settings: %w", err)
	}
	return s.presign(ctx, in, st)
}

// PresignedPostPayloads signs every file concurrently. The first failure is
// returned and payloads already signed are discarded.
func (s *Service) PresignedPostPayloads(ctx context.Context, files []FileInput) ([]Payload, error) {
	if files == nil {
		return nil, ErrNonArray
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > MaxBatchFiles {
		return nil, ErrTooMany
	}

	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading file manager settings: %w", err)
	}

	out := make([]Payload, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			p, err := s.presign(gctx, f, st)
			if err != nil {
				return fmt.Errorf("file %d (%s): %w", i, f.Name, err)
			}
			out[i] = *p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) presign(ctx context.Context, in FileInput, st settings.Settings) (*Payload, error) {
	errs := validation.Struct(in)
	if len(errs) == 0 {
		if in.Size < st.UploadMinFileSize {
			errs = append(errs, validation.FieldError{
				Field:   "size",
				Message: fmt.Sprintf("file size must be at least %d bytes", st.UploadMinFileSize),
			})
		} else if in.Size > st.UploadMaxFileSize {
			errs = append(errs, validation.FieldError{
				Field:   "size",
				Message: fmt.Sprintf("file size must not exceed %d bytes", st.UploadMaxFileSize),
			})
		}
	}
	if err := validation.NewError(errs); err != nil {
		return nil, err
	}

	key := s.newID() + "-" + SanitizeName(in.Name)

	post, err := s.presigner.PresignPost(ctx, PostInput{
		Key:         key,
		ContentType: in.Type,
		MinSize:     st.UploadMinFileSize,
		MaxSize:     st.UploadMaxFileSize,
	})
	if err != nil {
		return nil, err
	}

	return &Payload{
		Data: *post,
		File: File{Name: in.Name, Key: key, Type: in.Type, Size: in.Size},
	}, nil
}

// SanitizeName reduces a client file name to a safe object key suffix:
// directories are dropped, the stem is slugified and the extension lowercased.
func SanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := path.Ext(base)
	stem := slug.Make(strings.TrimSuffix(base, ext))
	ext = strings.ToLower(slug.Make(strings.TrimPrefix(ext, ".")))
	if stem == "" {
		stem = "file"
	}
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

// AsError returns the batch request rejection carried by err, if any.
func AsError(err error) (*Error, bool) {
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr, true
	}
	return nil, false
}
