package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domcompany "github.com/Dev7-web/tendorlelo/internal/domain/company"
	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/filter"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/result"
	domtender "github.com/Dev7-web/tendorlelo/internal/domain/tender"
)

// maxBodyBytes caps request bodies; raw document text is the largest field.
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	CompanyID string         `json:"company_id" validate:"required,max=128"`
	Query     string         `json:"query" validate:"max=4096"`
	Filters   filter.Filters `json:"filters"`
	Limit     int            `json:"limit" validate:"gte=0"`
}

// TenderRequest is the body of PUT /tenders/{id}.
type TenderRequest struct {
	BidID    string         `json:"bid_id" validate:"max=128"`
	EndDate  *time.Time     `json:"end_date"`
	Active   *bool          `json:"active"`
	Metadata map[string]any `json:"metadata"`
	Text     string         `json:"text" validate:"max=500000"`
}

// CompanyRequest is the body of PUT /companies/{id}.
type CompanyRequest struct {
	Name     string         `json:"name" validate:"max=256"`
	Metadata map[string]any `json:"metadata"`
	Text     string         `json:"text" validate:"max=500000"`
}

// ReprocessRequest is the optional body of POST /tenders/{id}/reprocess.
type ReprocessRequest struct {
	Text string `json:"text" validate:"max=500000"`
}

// TenderResponse is the API view of a tender.
type TenderResponse struct {
	ID           string          `json:"id"`
	BidID        string          `json:"bid_id,omitempty"`
	Label        string          `json:"label"`
	Metadata     metadata.Record `json:"metadata"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	Active       bool            `json:"active"`
	Expired      bool            `json:"expired"`
	Eligible     bool            `json:"eligible"`
	HasEmbedding bool            `json:"has_embedding"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CompanyResponse is the API view of a company profile.
type CompanyResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	DisplayName  string          `json:"display_name"`
	Metadata     metadata.Record `json:"metadata"`
	HasEmbedding bool            `json:"has_embedding"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// MatchResponse is the body of GET /tenders/{id}/matches.
type MatchResponse struct {
	TenderID string         `json:"tender_id"`
	Matches  []result.Match `json:"matches"`
	Total    int            `json:"total"`
}

func tenderToResponse(t domtender.Tender) TenderResponse {
	return TenderResponse{
		ID:           t.ID(),
		BidID:        t.BidID(),
		Label:        t.Label(),
		Metadata:     t.Metadata(),
		EndDate:      t.EndDate(),
		Active:       t.Active(),
		Expired:      t.Expired(),
		Eligible:     t.Eligible(),
		HasEmbedding: len(t.Embedding()) > 0,
		CreatedAt:    t.CreatedAt().UTC(),
		UpdatedAt:    t.UpdatedAt().UTC(),
	}
}

func companyToResponse(p domcompany.Profile) CompanyResponse {
	return CompanyResponse{
		ID:           p.ID(),
		Name:         p.Name(),
		DisplayName:  p.DisplayName(),
		Metadata:     p.Metadata(),
		HasEmbedding: len(p.Embedding()) > 0,
		CreatedAt:    p.CreatedAt().UTC(),
		UpdatedAt:    p.UpdatedAt().UTC(),
	}
}

// decodeBody reads and validates a JSON body into dst. An empty body is
// accepted when allowEmpty is set. The returned message is client-safe.
func decodeBody(r *http.Request, dst any, allowEmpty bool) (ErrorCode, string, bool) {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	switch {
	case errors.Is(err, io.EOF) && allowEmpty:
	case err != nil:
		return CodeBadRequest, "Invalid request body: " + err.Error(), false
	}
	if err := validate.Struct(dst); err != nil {
		return CodeValidationFailed, validationMessage(err), false
	}
	return "", "", true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		v := verrs[0]
		return fmt.Sprintf("field %s failed %q", strings.ToLower(v.Field()), v.Tag())
	}
	return err.Error()
}
