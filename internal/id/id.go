package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ProductPrefix tags ids of products known to this client.
const ProductPrefix = "prd"

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "prd-V1StGXR8_Z5jdHi6B-myT")
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewProductID returns a fresh client-side product id.
func NewProductID() string {
	return MustGenerate(ProductPrefix)
}

// NewSubmissionID returns the identifier sent in the "id" field of an add request.
// The catalog API expects an uppercase UUID string.
func NewSubmissionID() string {
	return strings.ToUpper(uuid.New().String())
}
