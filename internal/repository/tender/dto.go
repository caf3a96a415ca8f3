package tender

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
	domtender "github.com/Dev7-web/tendorlelo/internal/domain/tender"
)

// row is the stored JSON form of a tender.
type row struct {
	ID        string          `json:"id"`
	BidID     string          `json:"bid_id,omitempty"`
	Metadata  metadata.Record `json:"metadata"`
	Embedding []float32       `json:"summary_embedding,omitempty"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
	Active    bool            `json:"is_active"`
	Expired   bool            `json:"expired"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func encode(t domtender.Tender) ([]byte, error) {
	data, err := json.Marshal(row{
		ID:        t.ID(),
		BidID:     t.BidID(),
		Metadata:  t.Metadata(),
		Embedding: t.Embedding(),
		EndDate:   t.EndDate(),
		Active:    t.Active(),
		Expired:   t.Expired(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tender %s: %w", t.ID(), err)
	}
	return data, nil
}

func decode(data []byte) (domtender.Tender, error) {
	var r row
	if err := json.Unmarshal(data, &r); err != nil {
		return domtender.Tender{}, fmt.Errorf("unmarshal tender: %w", err)
	}
	if r.ID == "" {
		return domtender.Tender{}, fmt.Errorf("tender record without id")
	}
	return domtender.Reconstruct(
		r.ID, r.BidID, r.Metadata, r.Embedding,
		r.EndDate, r.Active, r.Expired,
		r.CreatedAt, r.UpdatedAt,
	), nil
}
