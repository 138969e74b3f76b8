package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedicalQueryNormalizer_Normalize(t *testing.T) {
	n := NewMedicalQueryNormalizer(false)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "DIABETES", "diabetes"},
		{"collapses whitespace", "diabetes    mellitus", "diabetes mellitus"},
		{"trims", "  asthma  ", "asthma"},
		{"strips punctuation", "what is diabetes?", "diabetes"},
		{"keeps hyphens", "covid-19 symptoms", "covid-19 symptoms"},
		{"drops stop words", "information about the flu", "flu"},
		{"expands abbreviation", "mi", "myocardial infarction"},
		{"expands within phrase", "htn treatment", "hypertension treatment"},
		{"dedupes consecutive repeats", "diabetes diabetes mellitus", "diabetes mellitus"},
		{"empty input", "", ""},
		{"all stop words", "what is the", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestMedicalQueryNormalizer_Deterministic(t *testing.T) {
	n := NewMedicalQueryNormalizer(true)

	queries := []string{
		"Acute Myocardial Infarction",
		"stage 3 chronic kidney disease",
		"what is COPD?",
	}
	for _, q := range queries {
		first := n.Normalize(q)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, n.Normalize(q))
		}
	}
}

func TestMedicalQueryNormalizer_QualifierStripping(t *testing.T) {
	stripping := NewMedicalQueryNormalizer(true)
	preserving := NewMedicalQueryNormalizer(false)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"severity word", "acute pancreatitis", "pancreatitis"},
		{"multiple qualifiers", "severe chronic asthma", "asthma"},
		{"stage with number", "stage 3 kidney disease", "kidney disease"},
		{"stage with letter suffix", "stage 3a kidney disease", "kidney disease"},
		{"roman numeral stage", "stage iv melanoma", "melanoma"},
		{"grade", "grade 2 sprain", "sprain"},
		{"end stage", "end stage renal disease", "renal disease"},
		{"stage without number kept", "stage fright", "stage fright"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripping.Normalize(tt.input))
		})
	}

	t.Run("preserving normalizer keeps qualifiers", func(t *testing.T) {
		assert.Equal(t, "acute pancreatitis", preserving.Normalize("acute pancreatitis"))
		assert.Equal(t, "stage 3 kidney disease", preserving.Normalize("stage 3 kidney disease"))
	})

	t.Run("qualifiers inside expansions survive", func(t *testing.T) {
		// Stripping runs before expansion; "chronic" introduced by the
		// copd expansion must not be removed
		assert.Equal(t, "chronic obstructive pulmonary disease", stripping.Normalize("copd"))
		assert.Equal(t, "end stage renal disease", preserving.Normalize("esrd"))
	})
}

func TestMedicalQueryNormalizer_AbbreviationCollision(t *testing.T) {
	n := NewMedicalQueryNormalizer(true)

	pairs := [][2]string{
		{"mi", "myocardial infarction"},
		{"HTN", "hypertension"},
		{"t2dm", "type 2 diabetes mellitus"},
		{"chf", "congestive heart failure"},
		{"GERD symptoms", "gastroesophageal reflux disease symptoms"},
	}

	for _, pair := range pairs {
		t.Run(pair[0], func(t *testing.T) {
			assert.Equal(t, n.Normalize(pair[1]), n.Normalize(pair[0]))
		})
	}
}

func TestHashKey(t *testing.T) {
	t.Run("shape", func(t *testing.T) {
		key := HashKey("medref", "diabetes", nil)
		assert.Regexp(t, `^medref:q:[0-9a-f]{16}$`, key)
	})

	t.Run("param order irrelevant", func(t *testing.T) {
		a := HashKey("medref", "diabetes", map[string]string{"lang": "en", "detail": "full"})
		b := HashKey("medref", "diabetes", map[string]string{"detail": "full", "lang": "en"})
		assert.Equal(t, a, b)
	})

	t.Run("params change the key", func(t *testing.T) {
		bare := HashKey("medref", "diabetes", nil)
		with := HashKey("medref", "diabetes", map[string]string{"lang": "es"})
		assert.NotEqual(t, bare, with)
	})

	t.Run("prefix namespaces", func(t *testing.T) {
		a := HashKey("medref", "diabetes", nil)
		b := HashKey("search", "diabetes", nil)
		assert.NotEqual(t, a, b)
		assert.True(t, strings.HasPrefix(a, "medref:"))
		assert.True(t, strings.HasPrefix(b, "search:"))
	})
}
