package company

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxIDLength bounds company identifiers.
const MaxIDLength = 128

// Profile is a company's capability record derived from its documents.
type Profile struct {
	id        string
	name      string
	metadata  metadata.Record
	embedding []float32
	createdAt time.Time
	updatedAt time.Time
}

// New validates and creates a profile.
func New(id, name string, meta metadata.Record, now time.Time) (Profile, error) {
	if err := ValidateID(id); err != nil {
		return Profile{}, err
	}
	return Profile{
		id:        id,
		name:      strings.TrimSpace(name),
		metadata:  meta,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct creates a Profile without validation (storage hydration).
func Reconstruct(
	id, name string, meta metadata.Record, embedding []float32,
	createdAt, updatedAt time.Time,
) Profile {
	return Profile{
		id: id, name: name, metadata: meta, embedding: embedding,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ValidateID checks a company identifier.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("company ID is required")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("company ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("company ID must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// ID returns the company identifier.
func (p Profile) ID() string { return p.id }

// Name returns the name given at upload, possibly empty.
func (p Profile) Name() string { return p.name }

// DisplayName is the upload name, falling back to the extracted company name.
func (p Profile) DisplayName() string {
	if p.name != "" {
		return p.name
	}
	return p.metadata.CompanyName
}

// Metadata returns the extracted metadata record.
func (p Profile) Metadata() metadata.Record { return p.metadata }

// Embedding returns the summary embedding; nil when not computed.
func (p Profile) Embedding() []float32 { return p.embedding }

// CreatedAt returns the creation time.
func (p Profile) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last modification time.
func (p Profile) UpdatedAt() time.Time { return p.updatedAt }

// WithProcessing replaces metadata and embedding wholesale.
func (p Profile) WithProcessing(meta metadata.Record, embedding []float32, now time.Time) Profile {
	p.metadata = meta
	p.embedding = embedding
	p.updatedAt = now
	return p
}

// WithName renames the profile.
func (p Profile) WithName(name string, now time.Time) Profile {
	p.name = strings.TrimSpace(name)
	p.updatedAt = now
	return p
}
