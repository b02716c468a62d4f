package objectkey

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.PNG", "PNG"},
		{"photo.png", "png"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
		{"trailing.", ""},
		{".hidden", "hidden"},
		{"evil.png/../x", ""},
		{"weird.p g", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.filename))
		})
	}
}

func TestOriginalGenerator(t *testing.T) {
	g := NewOriginalGenerator()
	id := uuid.MustParse("6f1c2a9e-6a0b-4c55-9a52-3a1d5f0c2b11")

	t.Run("WithExtension", func(t *testing.T) {
		key := g.GenerateKey("u1", id, "photo.PNG")
		assert.Equal(t, "users/u1/images/6f1c2a9e-6a0b-4c55-9a52-3a1d5f0c2b11/original.PNG", key)
	})

	t.Run("WithoutExtension", func(t *testing.T) {
		key := g.GenerateKey("u1", id, "scan")
		assert.Equal(t, "users/u1/images/6f1c2a9e-6a0b-4c55-9a52-3a1d5f0c2b11/original", key)
	})

	t.Run("OwnerCannotAddSegments", func(t *testing.T) {
		key := g.GenerateKey("../admin/x", id, "a.jpg")
		assert.Regexp(t, regexp.MustCompile(`^users/[^/]+/images/[^/]+/original\.jpg$`), key)
	})

	t.Run("FreshIDsGiveDistinctKeys", func(t *testing.T) {
		a := g.GenerateKey("u1", uuid.New(), "a.jpg")
		b := g.GenerateKey("u1", uuid.New(), "a.jpg")
		assert.NotEqual(t, a, b)
	})
}
