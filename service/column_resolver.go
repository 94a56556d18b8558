package service

import (
	"fmt"
	"strings"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/utils"
)

// FieldSpec a semantic task field, the header texts it is recognised by and
// the value used when no column maps to it.
type FieldSpec struct {
	Field    models.TaskField
	Synonyms []string
	Fallback string
	Required bool // required when the user maps columns by hand
}

// DefaultFieldSpecs synonyms used for automatic column detection
var DefaultFieldSpecs = []FieldSpec{
	{
		Field:    models.FieldOMNumber,
		Synonyms: []string{"n om", "om", "ordem", "numero ordem", "tag"},
		Fallback: "S/N",
		Required: true,
	},
	{
		Field:    models.FieldDescription,
		Synonyms: []string{"descricao", "texto breve", "atividade", "texto"},
		Fallback: "Sem descrição",
		Required: true,
	},
	{
		Field:    models.FieldWorkCenter,
		Synonyms: []string{"centro de trabalho", "centro trabalho", "ct", "cc", "setor", "centrab"},
		Fallback: "N/A",
		Required: true,
	},
	{
		Field:    models.FieldCircuit,
		Synonyms: []string{"circuito", "circuit", "loc", "tagloc"},
	},
	{
		Field:    models.FieldMinDate,
		Synonyms: []string{"data minima", "inicio", "data min", "min"},
	},
	{
		Field:    models.FieldMaxDate,
		Synonyms: []string{"data maxima", "fim", "data max", "max"},
	},
}

// ColumnMapping semantic field -> spreadsheet header. Unmapped fields are absent.
type ColumnMapping map[models.TaskField]string

// Normalize lower-cases s, strips diacritics and drops everything outside [a-z0-9].
func Normalize(s string) string {
	folded := utils.FoldDiacritics(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveColumns maps every field of specs to the best matching header.
//
// Exact normalized matches win over prefix matches. Within a pass the first
// header in sheet order wins, so two headers that normalize identically
// always resolve to the leftmost one.
func ResolveColumns(headers []string, specs []FieldSpec) ColumnMapping {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = Normalize(h)
	}

	mapping := make(ColumnMapping, len(specs))
	for _, spec := range specs {
		if header, ok := findColumn(headers, normalized, spec.Synonyms); ok {
			mapping[spec.Field] = header
		}
	}
	return mapping
}

func findColumn(headers, normalized, synonyms []string) (string, bool) {
	targets := make([]string, 0, len(synonyms))
	for _, s := range synonyms {
		if n := Normalize(s); n != "" {
			targets = append(targets, n)
		}
	}

	for i, nh := range normalized {
		if nh == "" {
			continue
		}
		for _, t := range targets {
			if nh == t {
				return headers[i], true
			}
		}
	}

	for i, nh := range normalized {
		if nh == "" {
			continue
		}
		for _, t := range targets {
			if strings.HasPrefix(nh, t) || strings.HasPrefix(t, nh) {
				return headers[i], true
			}
		}
	}
	return "", false
}

// ApplyManualMapping validates a user supplied mapping against the sheet headers.
// Empty values mean "not mapped"; required fields must be mapped.
func ApplyManualMapping(headers []string, manual map[models.TaskField]string, specs []FieldSpec) (ColumnMapping, error) {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	fields := make(map[models.TaskField]FieldSpec, len(specs))
	for _, spec := range specs {
		fields[spec.Field] = spec
	}

	mapping := make(ColumnMapping, len(manual))
	for field, header := range manual {
		if _, ok := fields[field]; !ok {
			return nil, validationError("unknown field %q in mapping", field)
		}
		if header == "" {
			continue
		}
		if !known[header] {
			return nil, validationError("column %q does not exist in the spreadsheet", header)
		}
		mapping[field] = header
	}

	var missing []string
	for _, spec := range specs {
		if spec.Required && mapping[spec.Field] == "" {
			missing = append(missing, string(spec.Field))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: map the required fields %s", ErrMappingIncomplete, strings.Join(missing, ", "))
	}
	return mapping, nil
}

// RequiredFields fields a manual mapping must cover
func RequiredFields(specs []FieldSpec) []models.TaskField {
	var fields []models.TaskField
	for _, spec := range specs {
		if spec.Required {
			fields = append(fields, spec.Field)
		}
	}
	return fields
}
