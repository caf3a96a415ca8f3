package tender

import (
	"fmt"
	"regexp"
	"time"

	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:/-]+$`)

// MaxIDLength bounds tender and bid identifiers.
const MaxIDLength = 256

// Tender is a procurement opportunity with its extracted metadata and summary embedding.
type Tender struct {
	id        string
	bidID     string
	metadata  metadata.Record
	embedding []float32
	endDate   *time.Time
	active    bool
	expired   bool
	createdAt time.Time
	updatedAt time.Time
}

// New validates and creates an active, non-expired tender.
func New(id, bidID string, meta metadata.Record, endDate *time.Time, now time.Time) (Tender, error) {
	if err := ValidateID(id); err != nil {
		return Tender{}, err
	}
	if len(bidID) > MaxIDLength {
		return Tender{}, fmt.Errorf("bid ID too long (max %d)", MaxIDLength)
	}
	return Tender{
		id:        id,
		bidID:     bidID,
		metadata:  meta,
		endDate:   cloneTime(endDate),
		active:    true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct creates a Tender without validation (storage hydration).
func Reconstruct(
	id, bidID string,
	meta metadata.Record, embedding []float32,
	endDate *time.Time, active, expired bool,
	createdAt, updatedAt time.Time,
) Tender {
	return Tender{
		id: id, bidID: bidID,
		metadata: meta, embedding: embedding,
		endDate: endDate, active: active, expired: expired,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ValidateID checks a tender identifier.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("tender ID is required")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("tender ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("tender ID %q contains invalid characters", id)
	}
	return nil
}

// ID returns the tender identifier.
func (t Tender) ID() string { return t.id }

// BidID returns the portal bid number, possibly empty.
func (t Tender) BidID() string { return t.bidID }

// Label is the bid number when known, otherwise the ID.
func (t Tender) Label() string {
	if t.bidID != "" {
		return t.bidID
	}
	return t.id
}

// Metadata returns the extracted metadata record.
func (t Tender) Metadata() metadata.Record { return t.metadata }

// Embedding returns the summary embedding; nil when not computed.
func (t Tender) Embedding() []float32 { return t.embedding }

// EndDate returns the bid closing time, nil when unknown.
func (t Tender) EndDate() *time.Time { return t.endDate }

// Active reports whether the listing is still published.
func (t Tender) Active() bool { return t.active }

// Expired reports whether the closing time has passed.
func (t Tender) Expired() bool { return t.expired }

// CreatedAt returns the creation time.
func (t Tender) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the last modification time.
func (t Tender) UpdatedAt() time.Time { return t.updatedAt }

// Eligible reports whether the tender may appear in search results.
func (t Tender) Eligible() bool { return t.active && !t.expired }

// Overdue reports whether the end date lies before now.
func (t Tender) Overdue(now time.Time) bool {
	return t.endDate != nil && t.endDate.Before(now)
}

// WithProcessing replaces metadata and embedding wholesale.
func (t Tender) WithProcessing(meta metadata.Record, embedding []float32, now time.Time) Tender {
	t.metadata = meta
	t.embedding = embedding
	t.updatedAt = now
	return t
}

// WithListing updates the scraped listing fields, keeping processing results.
func (t Tender) WithListing(bidID string, endDate *time.Time, active bool, now time.Time) Tender {
	t.bidID = bidID
	t.endDate = cloneTime(endDate)
	t.active = active
	t.updatedAt = now
	return t
}

// MarkExpired flags the tender as expired.
func (t Tender) MarkExpired(now time.Time) Tender {
	t.expired = true
	t.updatedAt = now
	return t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
