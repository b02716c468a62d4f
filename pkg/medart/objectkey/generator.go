package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates an object key for a freshly issued upload
	GenerateKey(ownerID string, imageID uuid.UUID, filename string) string
}

// OriginalGenerator lays keys out per owner and image:
//
//	users/{ownerID}/images/{imageID}/original[.ext]
//
// The image id is fresh for every grant, so a key is never reused.
type OriginalGenerator struct{}

func NewOriginalGenerator() *OriginalGenerator {
	return &OriginalGenerator{}
}

func (g *OriginalGenerator) GenerateKey(ownerID string, imageID uuid.UUID, filename string) string {
	key := fmt.Sprintf("users/%s/images/%s/original", sanitizePathComponent(ownerID), imageID)
	if ext := Extension(filename); ext != "" {
		key += "." + ext
	}
	return key
}

// Extension returns the text after the last '.' in filename, case preserved.
// It returns "" when there is no dot or when the suffix contains anything
// other than ASCII letters and digits, so the client cannot steer the key.
func Extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx == -1 || idx == len(filename)-1 {
		return ""
	}
	ext := filename[idx+1:]
	for _, r := range ext {
		if !isAlphaNum(r) {
			return ""
		}
	}
	return ext
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// sanitizePathComponent keeps an owner id from introducing extra path segments
func sanitizePathComponent(component string) string {
	component = strings.ReplaceAll(component, "/", "_")
	component = strings.ReplaceAll(component, "\\", "_")
	component = strings.ReplaceAll(component, "..", "_")
	return component
}
