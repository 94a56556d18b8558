package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ompro/ompro_end/models"
)

var scenarioSpecs = []FieldSpec{
	{Field: models.FieldOMNumber, Synonyms: []string{"om", "ordem"}, Required: true},
	{Field: models.FieldDescription, Synonyms: []string{"descricao"}, Required: true},
	{Field: models.FieldWorkCenter, Synonyms: []string{"setor"}, Required: true},
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Descrição":          "descricao",
		"  Nº OM ":           "nom",
		"Centro de Trabalho": "centrodetrabalho",
		"DATA MÍNIMA":        "dataminima",
		"---":                "",
		"Ação-Corretiva_2":   "acaocorretiva2",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestResolveColumnsScenario(t *testing.T) {
	mapping := ResolveColumns([]string{"OM", "Descrição", "Setor"}, scenarioSpecs)

	assert.Equal(t, ColumnMapping{
		models.FieldOMNumber:    "OM",
		models.FieldDescription: "Descrição",
		models.FieldWorkCenter:  "Setor",
	}, mapping)
}

func TestResolveColumnsExactBeatsPrefix(t *testing.T) {
	specs := []FieldSpec{{Field: models.FieldOMNumber, Synonyms: []string{"om"}}}

	// "OM Antiga" only matches by prefix, "OM" matches exactly
	mapping := ResolveColumns([]string{"OM Antiga", "OM"}, specs)
	assert.Equal(t, "OM", mapping[models.FieldOMNumber])

	mapping = ResolveColumns([]string{"OM Antiga", "Texto"}, specs)
	assert.Equal(t, "OM Antiga", mapping[models.FieldOMNumber])
}

func TestResolveColumnsFirstDuplicateWins(t *testing.T) {
	specs := []FieldSpec{{Field: models.FieldDescription, Synonyms: []string{"descricao"}}}

	mapping := ResolveColumns([]string{"Descricao", "DESCRIÇÃO"}, specs)
	assert.Equal(t, "Descricao", mapping[models.FieldDescription])
}

func TestResolveColumnsSkipsEmptyHeaders(t *testing.T) {
	specs := []FieldSpec{{Field: models.FieldCircuit, Synonyms: []string{"circuito"}}}

	mapping := ResolveColumns([]string{"---", "__EMPTY"}, specs)
	_, ok := mapping[models.FieldCircuit]
	assert.False(t, ok)
}

func TestResolveColumnsDefaultSpecs(t *testing.T) {
	headers := []string{"Nº OM", "Texto Breve", "Centro de Trabalho", "Circuito", "Data Mínima", "Data Máxima", "Observação"}

	mapping := ResolveColumns(headers, DefaultFieldSpecs)

	assert.Equal(t, "Nº OM", mapping[models.FieldOMNumber])
	assert.Equal(t, "Texto Breve", mapping[models.FieldDescription])
	assert.Equal(t, "Centro de Trabalho", mapping[models.FieldWorkCenter])
	assert.Equal(t, "Circuito", mapping[models.FieldCircuit])
	assert.Equal(t, "Data Mínima", mapping[models.FieldMinDate])
	assert.Equal(t, "Data Máxima", mapping[models.FieldMaxDate])
}

func TestResolveColumnsIdempotent(t *testing.T) {
	headers := []string{"Ordem", "Atividade", "CT", "Inicio", "Fim", "Extra"}

	first := ResolveColumns(headers, DefaultFieldSpecs)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ResolveColumns(headers, DefaultFieldSpecs))
	}
}

func TestResolveColumnsExactSynonymAlwaysMaps(t *testing.T) {
	for _, spec := range DefaultFieldSpecs {
		for _, syn := range spec.Synonyms {
			// surrounding noise headers never match any synonym
			headers := []string{"zzz", syn, "yyy"}
			mapping := ResolveColumns(headers, []FieldSpec{spec})
			assert.Equal(t, syn, mapping[spec.Field], "synonym %q of %s", syn, spec.Field)
		}
	}
}

func TestApplyManualMapping(t *testing.T) {
	headers := []string{"A", "B", "C", "D"}

	t.Run("valid", func(t *testing.T) {
		mapping, err := ApplyManualMapping(headers, map[models.TaskField]string{
			models.FieldOMNumber:    "A",
			models.FieldDescription: "B",
			models.FieldWorkCenter:  "C",
			models.FieldCircuit:     "",
		}, DefaultFieldSpecs)

		require.NoError(t, err)
		assert.Len(t, mapping, 3)
		assert.Equal(t, "C", mapping[models.FieldWorkCenter])
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := ApplyManualMapping(headers, map[models.TaskField]string{
			models.FieldOMNumber: "A",
		}, DefaultFieldSpecs)

		assert.ErrorIs(t, err, ErrMappingIncomplete)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := ApplyManualMapping(headers, map[models.TaskField]string{
			models.FieldOMNumber: "Z",
		}, DefaultFieldSpecs)

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ApplyManualMapping(headers, map[models.TaskField]string{
			"priority": "A",
		}, DefaultFieldSpecs)

		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []models.TaskField{
		models.FieldOMNumber,
		models.FieldDescription,
		models.FieldWorkCenter,
	}, RequiredFields(DefaultFieldSpecs))
}
