package request

import (
	"fmt"
	"strings"

	"github.com/Dev7-web/tendorlelo/internal/domain"
	"github.com/Dev7-web/tendorlelo/internal/domain/company"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/filter"
	"github.com/Dev7-web/tendorlelo/internal/domain/tender"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed free-text query length.
	MaxQueryLength    = 4096
	DefaultLimit      = 20
	MaxLimit          = 100
	DefaultMatchLimit = 5
)

// Request is a validated tender search for one company.
type Request struct {
	companyID string
	query     string
	filters   filter.Filters
	limit     int
}

// New validates and normalizes search parameters.
// A zero limit means DefaultLimit; limits above MaxLimit are clamped.
func New(companyID, query string, filters filter.Filters, limit int) (Request, error) {
	if err := company.ValidateID(companyID); err != nil {
		return Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	query = strings.TrimSpace(query)
	if len(query) > MaxQueryLength {
		return Request{}, domain.InvalidInputf("query too long (max %d chars)", MaxQueryLength)
	}
	if err := filters.Validate(); err != nil {
		return Request{}, err
	}
	limit, err := clampLimit(limit, DefaultLimit)
	if err != nil {
		return Request{}, err
	}
	return Request{companyID: companyID, query: query, filters: filters, limit: limit}, nil
}

// CompanyID returns the searching company.
func (r Request) CompanyID() string { return r.companyID }

// Query returns the trimmed free-text query, possibly empty.
func (r Request) Query() string { return r.query }

// Filters returns the candidate filters.
func (r Request) Filters() filter.Filters { return r.filters }

// Limit returns the result cap.
func (r Request) Limit() int { return r.limit }

// Match is a validated request for the companies best suited to a tender.
type Match struct {
	tenderID string
	limit    int
}

// NewMatch validates parameters. A zero limit means DefaultMatchLimit.
func NewMatch(tenderID string, limit int) (Match, error) {
	if err := tender.ValidateID(tenderID); err != nil {
		return Match{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	limit, err := clampLimit(limit, DefaultMatchLimit)
	if err != nil {
		return Match{}, err
	}
	return Match{tenderID: tenderID, limit: limit}, nil
}

// TenderID returns the tender to match against.
func (m Match) TenderID() string { return m.tenderID }

// Limit returns the result cap.
func (m Match) Limit() int { return m.limit }

func clampLimit(limit, def int) (int, error) {
	switch {
	case limit < 0:
		return 0, domain.InvalidInputf("limit must be >= 0, got %d", limit)
	case limit == 0:
		return def, nil
	case limit > MaxLimit:
		return MaxLimit, nil
	}
	return limit, nil
}
