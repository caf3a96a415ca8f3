package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Dev7-web/tendorlelo/internal/domain"
	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
	"github.com/Dev7-web/tendorlelo/internal/matching"
)

// MaxTermsPerList is the maximum number of values per filter list.
const MaxTermsPerList = 32

var validate = validator.New(validator.WithRequiredStructEnabled())

// Filters narrow the tender candidate pool before scoring.
// Lists match when any value equals (after normalization) any tender value.
type Filters struct {
	Domains                []string `json:"domains,omitempty" validate:"max=32,dive,required,max=200"`
	RequiredCertifications []string `json:"required_certifications,omitempty" validate:"max=32,dive,required,max=200"`
	MinValue               *float64 `json:"min_value,omitempty" validate:"omitempty,gte=0"`
	MaxValue               *float64 `json:"max_value,omitempty" validate:"omitempty,gte=0"`
}

// Validate reports malformed filters as domain.ErrInvalidInput.
func (f Filters) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			v := verrs[0]
			return domain.InvalidInputf("filter %s failed %q", strings.ToLower(v.Field()), v.Tag())
		}
		return domain.InvalidInputf("filters: %v", err)
	}
	if f.MinValue != nil && f.MaxValue != nil && *f.MinValue > *f.MaxValue {
		return domain.InvalidInputf("min_value %v exceeds max_value %v", *f.MinValue, *f.MaxValue)
	}
	return nil
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return len(f.Domains) == 0 && len(f.RequiredCertifications) == 0 && f.MinValue == nil && f.MaxValue == nil
}

// Matches applies the filters to a tender's metadata.
// A tender whose estimated value cannot be parsed passes the value range.
func (f Filters) Matches(meta metadata.Record) bool {
	if len(f.Domains) > 0 && !intersects(f.Domains, meta.Domains) {
		return false
	}
	if len(f.RequiredCertifications) > 0 && !intersects(f.RequiredCertifications, meta.RequiredCertifications) {
		return false
	}
	if f.MinValue == nil && f.MaxValue == nil {
		return true
	}
	v, ok := ParseAmount(meta.EstimatedValue)
	if !ok {
		return true
	}
	if f.MinValue != nil && v < *f.MinValue {
		return false
	}
	if f.MaxValue != nil && v > *f.MaxValue {
		return false
	}
	return true
}

func intersects(want, have []string) bool {
	set := make(map[string]struct{}, len(want))
	for _, w := range want {
		if n := matching.Normalize(w); n != "" {
			set[n] = struct{}{}
		}
	}
	for _, h := range have {
		if _, ok := set[matching.Normalize(h)]; ok {
			return true
		}
	}
	return false
}

var amountUnits = []struct {
	word string
	mult float64
}{
	{"crore", 1e7},
	{"lakh", 1e5},
	{"lac", 1e5},
}

// ParseAmount reads a rupee amount such as "₹ 12,50,000" or "3.5 Crore".
// For a range like "10-20 lakh" the lower bound is returned.
func ParseAmount(s string) (float64, bool) {
	lower := strings.ToLower(s)
	start := strings.IndexFunc(lower, isDigit)
	if start < 0 {
		return 0, false
	}

	var num strings.Builder
	seenDot := false
	rest := lower[start:]
scan:
	for i, r := range rest {
		switch {
		case isDigit(r):
			num.WriteRune(r)
		case r == ',':
		case r == '.' && !seenDot && i+1 < len(rest) && isDigit(rune(rest[i+1])):
			seenDot = true
			num.WriteRune(r)
		default:
			break scan
		}
	}
	v, err := strconv.ParseFloat(num.String(), 64)
	if err != nil {
		return 0, false
	}
	for _, u := range amountUnits {
		if strings.Contains(lower, u.word) {
			return v * u.mult, true
		}
	}
	return v, true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// String renders the filters for logs.
func (f Filters) String() string {
	var parts []string
	if len(f.Domains) > 0 {
		parts = append(parts, "domains="+strings.Join(f.Domains, "|"))
	}
	if len(f.RequiredCertifications) > 0 {
		parts = append(parts, "certs="+strings.Join(f.RequiredCertifications, "|"))
	}
	if f.MinValue != nil {
		parts = append(parts, fmt.Sprintf("min=%g", *f.MinValue))
	}
	if f.MaxValue != nil {
		parts = append(parts, fmt.Sprintf("max=%g", *f.MaxValue))
	}
	return strings.Join(parts, " ")
}
