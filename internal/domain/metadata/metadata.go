// Package metadata holds the structured attribute record extracted from tender
// and company documents.
//
// Every field is optional. Absent fields keep their zero value: "" for text,
// nil for lists, false for GovernmentExperience and 0 for counts. Scorers treat
// zero values as "no evidence".
package metadata

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Record is the attribute record shared by tenders and company profiles.
// Tenders populate the Required* lists; profiles populate Technologies,
// Certifications, Capabilities and GovernmentExperience.
type Record struct {
	Title       string `json:"title,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Department  string `json:"department,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Location    string `json:"location,omitempty"`

	Domains                []string `json:"domains,omitempty"`
	Technologies           []string `json:"technologies,omitempty"`
	RequiredTechnologies   []string `json:"required_technologies,omitempty"`
	Certifications         []string `json:"certifications,omitempty"`
	RequiredCertifications []string `json:"required_certifications,omitempty"`
	Capabilities           []string `json:"capabilities,omitempty"`
	Industries             []string `json:"industries,omitempty"`
	Locations              []string `json:"locations,omitempty"`
	PastClients            []string `json:"past_clients,omitempty"`
	Registrations          []string `json:"registrations,omitempty"`

	GovernmentExperience    bool `json:"government_experience,omitempty"`
	YearsInBusiness         int  `json:"years_in_business,omitempty"`
	RequiredExperienceYears int  `json:"required_experience_years,omitempty"`

	EstimatedValue string `json:"estimated_value,omitempty"`
	EmployeeCount  string `json:"employee_count,omitempty"`
	AnnualTurnover string `json:"annual_turnover,omitempty"`
	DeliveryPeriod string `json:"delivery_period,omitempty"`
	EMDAmount      string `json:"emd_amount,omitempty"`
}

// IsEmpty reports whether the record carries no scoring evidence.
func (r Record) IsEmpty() bool {
	return r.Title == "" && r.Summary == "" && r.Sector == "" &&
		len(r.Domains) == 0 && len(r.Technologies) == 0 && len(r.RequiredTechnologies) == 0 &&
		len(r.Certifications) == 0 && len(r.RequiredCertifications) == 0 &&
		len(r.Capabilities) == 0 && !r.GovernmentExperience
}

// TitleAndSummary joins the free-text fields used for phrase matching.
func (r Record) TitleAndSummary() string {
	return r.Title + " " + r.Summary
}

// FieldError reports a field whose raw value could not be decoded.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("metadata field %q: %v", e.Field, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

// FromMap decodes a loosely typed record (LLM or JSON output) field by field.
// Unknown keys are ignored. A field that cannot be decoded keeps its default
// and is reported in the returned slice, ordered by field name.
func FromMap(raw map[string]any) (Record, []FieldError) {
	var rec Record
	var errs []FieldError

	for key, value := range raw {
		if value == nil {
			continue
		}
		target, ok := rec.field(key)
		if !ok {
			continue
		}
		if err := decodeField(value, target); err != nil {
			errs = append(errs, FieldError{Field: key, Err: err})
		}
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return rec, errs
}

//nolint:gocyclo // flat key table
func (r *Record) field(key string) (any, bool) {
	switch key {
	case "title":
		return &r.Title, true
	case "summary":
		return &r.Summary, true
	case "sector":
		return &r.Sector, true
	case "department":
		return &r.Department, true
	case "company_name":
		return &r.CompanyName, true
	case "location":
		return &r.Location, true
	case "domains":
		return &r.Domains, true
	case "technologies":
		return &r.Technologies, true
	case "required_technologies":
		return &r.RequiredTechnologies, true
	case "certifications":
		return &r.Certifications, true
	case "required_certifications":
		return &r.RequiredCertifications, true
	case "capabilities":
		return &r.Capabilities, true
	case "industries":
		return &r.Industries, true
	case "locations":
		return &r.Locations, true
	case "past_clients":
		return &r.PastClients, true
	case "registrations":
		return &r.Registrations, true
	case "government_experience":
		return &r.GovernmentExperience, true
	case "years_in_business":
		return &r.YearsInBusiness, true
	case "required_experience_years":
		return &r.RequiredExperienceYears, true
	case "estimated_value":
		return &r.EstimatedValue, true
	case "employee_count":
		return &r.EmployeeCount, true
	case "annual_turnover":
		return &r.AnnualTurnover, true
	case "delivery_period":
		return &r.DeliveryPeriod, true
	case "emd_amount":
		return &r.EMDAmount, true
	}
	return nil, false
}

// decodeField decodes value into a scratch variable and assigns it to target
// only on success, so a failed decode never leaves partial data behind.
func decodeField(value, target any) error {
	switch t := target.(type) {
	case *string:
		var v string
		if err := weakDecode(value, &v); err != nil {
			return err
		}
		*t = v
	case *[]string:
		var v []string
		if err := weakDecode(value, &v); err != nil {
			return err
		}
		*t = compact(v)
	case *bool:
		var v bool
		if err := weakDecode(value, &v); err != nil {
			return err
		}
		*t = v
	case *int:
		var v int
		if err := weakDecode(value, &v); err != nil {
			return err
		}
		*t = v
	default:
		return fmt.Errorf("unsupported target %T", target)
	}
	return nil
}

func weakDecode(value, result any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           result,
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// compact drops empty entries from a decoded list.
func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
