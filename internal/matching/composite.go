// Package matching scores tenders against company profiles.
//
// The composite score blends seven rule-based signals (domain, technology,
// certification, capability, text, cross-field and government overlap) with
// embedding similarity, then boosts candidates that are strong on several
// signals at once. Scoring is pure: no I/O, no randomness, no errors. Missing
// metadata simply contributes nothing.
package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
)

// Weights are the per-signal coefficients of the base score.
// The defaults are empirical and have not been calibrated.
type Weights struct {
	Domain        float64 `yaml:"domain"`
	Technology    float64 `yaml:"technology"`
	Certification float64 `yaml:"certification"`
	Capability    float64 `yaml:"capability"`
	TextMatch     float64 `yaml:"text_match"`
	CrossMatch    float64 `yaml:"cross_match"`
	Government    float64 `yaml:"government"`
	Vector        float64 `yaml:"vector"`
}

// Boost multiplies the base score when several signals are strong.
type Boost struct {
	Strong3             float64 `yaml:"strong3"`              // applied at >= 3 strong signals
	Strong2             float64 `yaml:"strong2"`              // applied at >= 2 strong signals
	OverlapThreshold    float64 `yaml:"overlap_threshold"`    // domain, technology, capability
	SupportingThreshold float64 `yaml:"supporting_threshold"` // text and cross match
}

// DefaultWeights returns the stock signal weights (sum 1.0).
func DefaultWeights() Weights {
	return Weights{
		Domain:        0.20,
		Technology:    0.20,
		Certification: 0.10,
		Capability:    0.15,
		TextMatch:     0.15,
		CrossMatch:    0.10,
		Government:    0.05,
		Vector:        0.05,
	}
}

// DefaultBoost returns the stock boost policy.
func DefaultBoost() Boost {
	return Boost{Strong3: 1.5, Strong2: 1.3, OverlapThreshold: 0.5, SupportingThreshold: 0.3}
}

// Validate rejects negative weights and multipliers below 1.
func (w Weights) Validate() error {
	vals := map[string]float64{
		"domain": w.Domain, "technology": w.Technology, "certification": w.Certification,
		"capability": w.Capability, "text_match": w.TextMatch, "cross_match": w.CrossMatch,
		"government": w.Government, "vector": w.Vector,
	}
	for name, v := range vals {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must be >= 0, got %v", name, v)
		}
	}
	return nil
}

// Validate checks the boost policy.
func (b Boost) Validate() error {
	if b.Strong3 < 1 || b.Strong2 < 1 {
		return fmt.Errorf("boost multipliers must be >= 1, got %v and %v", b.Strong3, b.Strong2)
	}
	if b.OverlapThreshold < 0 || b.OverlapThreshold > 1 || b.SupportingThreshold < 0 || b.SupportingThreshold > 1 {
		return fmt.Errorf("boost thresholds must be within [0,1]")
	}
	return nil
}

// Breakdown carries every signal of one comparison.
type Breakdown struct {
	Domain        Signal
	Technology    Signal
	Certification Signal
	Capability    Signal
	TextMatch     Signal
	CrossMatch    Signal
	Government    Signal
	Vector        float64
	Base          float64
	Strong        int
}

// Result is a composite score with its explanations.
type Result struct {
	Score     float64
	Reasons   []string
	Breakdown Breakdown
}

// Scorer computes composite match scores.
type Scorer struct {
	expander *Expander
	weights  Weights
	boost    Boost
}

// NewScorer creates a scorer. A nil expander uses DefaultExpander.
func NewScorer(expander *Expander, weights Weights, boost Boost) *Scorer {
	if expander == nil {
		expander = DefaultExpander()
	}
	return &Scorer{expander: expander, weights: weights, boost: boost}
}

// DefaultScorer uses the stock tables, weights and boost policy.
func DefaultScorer() *Scorer {
	return NewScorer(DefaultExpander(), DefaultWeights(), DefaultBoost())
}

// Score rates how well profile fits tender. vectorSimilarity is the cosine
// similarity of their embeddings (0 when unavailable).
func (s *Scorer) Score(tender, profile metadata.Record, vectorSimilarity float64) Result {
	if math.IsNaN(vectorSimilarity) {
		vectorSimilarity = 0
	}
	b := Breakdown{
		Domain:        s.expander.OverlapScore(tender.Domains, profile.Domains),
		Technology:    s.expander.OverlapScore(tender.RequiredTechnologies, profile.Technologies),
		Certification: s.expander.OverlapScore(tender.RequiredCertifications, profile.Certifications),
		Capability:    CapabilityScore(tender, profile),
		TextMatch:     s.expander.TextMatchScore(tender, profile),
		CrossMatch:    CrossMatchScore(tender, profile),
		Government:    GovernmentScore(tender, profile),
		Vector:        vectorSimilarity,
	}

	w := s.weights
	b.Base = b.Domain.Score*w.Domain +
		b.Technology.Score*w.Technology +
		b.Certification.Score*w.Certification +
		b.Capability.Score*w.Capability +
		b.TextMatch.Score*w.TextMatch +
		b.CrossMatch.Score*w.CrossMatch +
		b.Government.Score*w.Government +
		b.Vector*w.Vector

	for _, strong := range []bool{
		b.Domain.Score > s.boost.OverlapThreshold,
		b.Technology.Score > s.boost.OverlapThreshold,
		b.Capability.Score > s.boost.OverlapThreshold,
		b.TextMatch.Score > s.boost.SupportingThreshold,
		b.CrossMatch.Score > s.boost.SupportingThreshold,
	} {
		if strong {
			b.Strong++
		}
	}

	final := b.Base
	switch {
	case b.Strong >= 3:
		final = math.Min(b.Base*s.boost.Strong3, 1)
	case b.Strong >= 2:
		final = math.Min(b.Base*s.boost.Strong2, 1)
	}

	return Result{Score: clamp01(final), Reasons: b.reasons(), Breakdown: b}
}

func (b Breakdown) reasons() []string {
	var out []string
	add := func(label string, sig Signal, n int) {
		if len(sig.Reasons) == 0 {
			return
		}
		out = append(out, label+": "+strings.Join(sig.Reasons[:min(len(sig.Reasons), n)], ", "))
	}
	add("Domain match", b.Domain, 3)
	add("Technology match", b.Technology, 3)
	add("Certification match", b.Certification, 2)
	add("Capability match", b.Capability, 3)
	add("Text match", b.TextMatch, 3)
	add("Cross match", b.CrossMatch, 2)
	out = append(out, b.Government.Reasons...)
	return out
}
