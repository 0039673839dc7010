// Package resume models the applicant's source resume.
package resume

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
)

// Source is the raw resume content plus the identity extracted from it. The
// content is treated as plain text regardless of the original format; format
// conversion happens upstream.
type Source struct {
	Content   string
	FirstName string
	LastName  string
}

// NewSource wraps resume content.
func NewSource(content string) (*Source, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("resume content must not be empty")
	}
	return &Source{Content: content}, nil
}

// Checksum returns a stable fingerprint of the content, used to correlate
// generated artifacts with the resume they came from.
func (s *Source) Checksum() string {
	sum := sha256.Sum256([]byte(s.Content))
	return fmt.Sprintf("%x", sum[:])
}
