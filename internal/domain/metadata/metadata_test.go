package metadata

import (
	"reflect"
	"testing"
)

func TestFromMap(t *testing.T) {
	tests := []struct {
		name       string
		raw        map[string]any
		want       Record
		wantFields []string
	}{
		{
			name: "typed values",
			raw: map[string]any{
				"title":                 "LED wall",
				"domains":               []any{"Museum", "Heritage"},
				"government_experience": true,
				"years_in_business":     float64(12),
			},
			want: Record{
				Title:                "LED wall",
				Domains:              []string{"Museum", "Heritage"},
				GovernmentExperience: true,
				YearsInBusiness:      12,
			},
		},
		{
			name: "single string lifted to list",
			raw:  map[string]any{"technologies": "Projection Mapping"},
			want: Record{Technologies: []string{"Projection Mapping"}},
		},
		{
			name: "weak scalars",
			raw: map[string]any{
				"government_experience":     "true",
				"required_experience_years": "5",
				"estimated_value":           float64(2500000),
			},
			want: Record{GovernmentExperience: true, RequiredExperienceYears: 5, EstimatedValue: "2500000"},
		},
		{
			name:       "invalid bool keeps default",
			raw:        map[string]any{"government_experience": "sometimes", "title": "Kept"},
			want:       Record{Title: "Kept"},
			wantFields: []string{"government_experience"},
		},
		{
			name: "nested object in list drops the field",
			raw: map[string]any{
				"certifications": []any{"ISO 9001", map[string]any{"name": "ISO 27001"}},
				"domains":        []any{"Museum"},
			},
			want:       Record{Domains: []string{"Museum"}},
			wantFields: []string{"certifications"},
		},
		{
			name: "nil values and unknown keys ignored",
			raw:  map[string]any{"title": nil, "domains": nil, "unexpected": "x", "summary": "Kept"},
			want: Record{Summary: "Kept"},
		},
		{
			name: "blank list entries compacted",
			raw:  map[string]any{"capabilities": []any{"", "AMC", ""}, "industries": []any{""}},
			want: Record{Capabilities: []string{"AMC"}},
		},
		{
			name:       "errors ordered by field",
			raw:        map[string]any{"years_in_business": "many", "government_experience": []any{1, 2}},
			want:       Record{},
			wantFields: []string{"government_experience", "years_in_business"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := FromMap(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("record = %+v, want %+v", got, tt.want)
			}

			var fields []string
			for _, fe := range errs {
				if fe.Err == nil {
					t.Errorf("field %s reported without a cause", fe.Field)
				}
				fields = append(fields, fe.Field)
			}
			if !reflect.DeepEqual(fields, tt.wantFields) {
				t.Errorf("failed fields = %v, want %v", fields, tt.wantFields)
			}
		})
	}
}

func TestIsEmpty(t *testing.T) {
	if !(Record{}).IsEmpty() {
		t.Error("zero record must be empty")
	}
	if !(Record{EstimatedValue: "10 lakh", Location: "Delhi"}).IsEmpty() {
		t.Error("non-scoring fields alone must not count as evidence")
	}
	if (Record{Domains: []string{"Museum"}}).IsEmpty() {
		t.Error("domains are scoring evidence")
	}
}
