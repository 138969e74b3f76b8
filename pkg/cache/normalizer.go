package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

// QueryNormalizer preprocesses domain queries so that semantically
// equivalent forms collide to the same cache key
type QueryNormalizer interface {
	Normalize(query string) string
}

// MedicalQueryNormalizer implements normalization for clinical terminology.
//
// The pipeline, in order: lowercase, collapse whitespace, strip
// punctuation, optionally strip severity/stage qualifiers, expand medical
// abbreviations, drop stop words, deduplicate consecutive repeats.
//
// Normalize is referentially transparent: no clock, randomness, or
// external state. The same input always yields the same output.
type MedicalQueryNormalizer struct {
	whitespaceRegex  *regexp.Regexp
	punctuationRegex *regexp.Regexp
	stageNumberRegex *regexp.Regexp
	stripQualifiers  bool
	qualifiers       map[string]bool
	abbreviations    map[string]string
	stopWords        map[string]bool
}

// NewMedicalQueryNormalizer creates a normalizer. stripQualifiers enables
// removal of severity/stage modifiers ("acute", "chronic", "stage 3") and
// should be set only for strategies whose cached identity is insensitive
// to them (reference data, not e.g. staged treatment plans).
func NewMedicalQueryNormalizer(stripQualifiers bool) *MedicalQueryNormalizer {
	return &MedicalQueryNormalizer{
		whitespaceRegex:  regexp.MustCompile(`\s+`),
		punctuationRegex: regexp.MustCompile(`[^\w\s-]`),
		stageNumberRegex: regexp.MustCompile(`^([0-9]+[ab]?|[ivx]+)$`),
		stripQualifiers:  stripQualifiers,
		qualifiers:       severityQualifiers(),
		abbreviations:    medicalAbbreviations(),
		stopWords:        queryStopWords(),
	}
}

// Normalize processes a query for consistent caching. An empty result
// means every token was stripped; callers fall back to hashing the raw
// input rather than failing the lookup.
func (n *MedicalQueryNormalizer) Normalize(query string) string {
	if query == "" {
		return ""
	}

	normalized := strings.ToLower(query)
	normalized = strings.TrimSpace(normalized)
	normalized = n.whitespaceRegex.ReplaceAllString(normalized, " ")
	normalized = n.punctuationRegex.ReplaceAllString(normalized, " ")

	words := strings.Fields(normalized)

	if n.stripQualifiers {
		words = n.removeQualifiers(words)
	}

	expanded := make([]string, 0, len(words))
	for _, word := range words {
		if full, ok := n.abbreviations[word]; ok {
			expanded = append(expanded, strings.Fields(full)...)
			continue
		}
		expanded = append(expanded, word)
	}

	filtered := make([]string, 0, len(expanded))
	for _, word := range expanded {
		if n.stopWords[word] {
			continue
		}
		filtered = append(filtered, word)
	}

	return strings.Join(dedupeConsecutive(filtered), " ")
}

// removeQualifiers drops severity words and "stage N" / "grade N" pairs
func (n *MedicalQueryNormalizer) removeQualifiers(words []string) []string {
	result := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		word := words[i]

		if (word == "stage" || word == "grade") &&
			i+1 < len(words) && n.stageNumberRegex.MatchString(words[i+1]) {
			i++ // skip the stage number too
			continue
		}

		// "end stage" without a number ("end stage renal disease")
		if word == "end" && i+1 < len(words) && words[i+1] == "stage" {
			i++
			continue
		}

		if n.qualifiers[word] {
			continue
		}

		result = append(result, word)
	}
	return result
}

func dedupeConsecutive(words []string) []string {
	if len(words) <= 1 {
		return words
	}

	result := make([]string, 0, len(words))
	result = append(result, words[0])
	for i := 1; i < len(words); i++ {
		if words[i] != words[i-1] {
			result = append(result, words[i])
		}
	}
	return result
}

// HashKey builds the final cache key: the strategy prefix plus a
// fixed-length hash of the canonical query and any extra parameters in
// sorted order, so parameter order never defeats caching.
func HashKey(prefix, canonical string, params map[string]string) string {
	var sb strings.Builder
	sb.WriteString(canonical)

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString("|")
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(params[k])
		}
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return prefix + ":q:" + hex.EncodeToString(sum[:8])
}

func severityQualifiers() map[string]bool {
	return map[string]bool{
		"acute":       true,
		"chronic":     true,
		"severe":      true,
		"mild":        true,
		"moderate":    true,
		"early":       true,
		"late":        true,
		"advanced":    true,
		"recurrent":   true,
		"refractory":  true,
		"progressive": true,
	}
}

// medicalAbbreviations maps domain shorthand to spelled-out terms so the
// abbreviated and full forms of a query share a key. Hand-maintained;
// entries must be unambiguous in this domain.
func medicalAbbreviations() map[string]string {
	return map[string]string{
		"mi":    "myocardial infarction",
		"htn":   "hypertension",
		"dm":    "diabetes mellitus",
		"t2dm":  "type 2 diabetes mellitus",
		"t1dm":  "type 1 diabetes mellitus",
		"copd":  "chronic obstructive pulmonary disease",
		"chf":   "congestive heart failure",
		"cad":   "coronary artery disease",
		"cva":   "cerebrovascular accident",
		"tia":   "transient ischemic attack",
		"uti":   "urinary tract infection",
		"gerd":  "gastroesophageal reflux disease",
		"ckd":   "chronic kidney disease",
		"esrd":  "end stage renal disease",
		"afib":  "atrial fibrillation",
		"ra":    "rheumatoid arthritis",
		"pe":    "pulmonary embolism",
		"dvt":   "deep vein thrombosis",
		"cabg":  "coronary artery bypass graft",
		"bp":    "blood pressure",
		"bph":   "benign prostatic hyperplasia",
		"ms":    "multiple sclerosis",
		"ibd":   "inflammatory bowel disease",
		"ibs":   "irritable bowel syndrome",
		"osa":   "obstructive sleep apnea",
		"pvd":   "peripheral vascular disease",
		"aki":   "acute kidney injury",
		"ards":  "acute respiratory distress syndrome",
		"covid": "covid-19",
	}
}

func queryStopWords() map[string]bool {
	return map[string]bool{
		"a": true, "an": true, "the": true,
		"of": true, "in": true, "on": true, "for": true, "to": true,
		"with": true, "and": true, "or": true,
		"what": true, "is": true, "are": true, "about": true,
		"info": true, "information": true,
	}
}
