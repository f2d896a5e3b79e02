package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daap14/headless/internal/slug"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Staging", "staging"},
		{"Pre Production", "pre-production"},
		{"  spaced  out  ", "spaced-out"},
		{"Crème Brûlée", "creme-brulee"},
		{"a--b__c", "a-b-c"},
		{"v2.0 (beta)", "v2-0-beta"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.Make(tt.in))
		})
	}
}

func TestMake_Idempotent(t *testing.T) {
	once := slug.Make("Hello World Ünïcode")
	assert.Equal(t, once, slug.Make(once))
}
