package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "punctuation and spacing", in: "Hello, World!", want: "hello-world"},
		{name: "collapses space runs", in: "  multiple   spaces  ", want: "multiple-spaces"},
		{name: "empty input", in: "", want: ""},
		{name: "already a slug", in: "hello-world", want: "hello-world"},
		{name: "uppercase", in: "HELLO", want: "hello"},
		{name: "digits preserved", in: "Top 10 Posts of 2026", want: "top-10-posts-of-2026"},
		{name: "symbols only", in: "!!!???", want: ""},
		{name: "unicode collapsed", in: "café au lait", want: "caf-au-lait"},
		{name: "trailing punctuation", in: "trailing...", want: "trailing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"  multiple   spaces  ",
		"Top 10 Posts of 2026",
		"already-a-slug",
		"",
	}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once), "Slugify not idempotent for %q", in)
	}
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("hello-world"))
	assert.NoError(t, ValidateSlug("a"))
	assert.Error(t, ValidateSlug(""))
	assert.Error(t, ValidateSlug("Hello-World"))
	assert.Error(t, ValidateSlug("has space"))
	assert.Error(t, ValidateSlug("-leading"))
	assert.Error(t, ValidateSlug("trailing-"))
}
