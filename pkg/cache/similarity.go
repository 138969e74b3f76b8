package cache

// SynonymTable holds hand-maintained equivalence classes of clinical terms
// used for similarity fallback after an exact-key miss. Lookup is over
// normalized query strings; the probe is bounded by the size of the
// matching class and is fully deterministic (no fuzzy matching, no
// ranking).
//
// Equivalence classes must only contain terms that are interchangeable for
// every strategy that enables similarity; a class member returned for a
// different member's query is served as-is.
type SynonymTable struct {
	classes [][]string
	index   map[string]int
}

// NewSynonymTable builds a table from raw equivalence classes. Members are
// normalized (without qualifier stripping, so class membership does not
// depend on strategy flags) and deduplicated; abbreviations that expand to
// another member collapse into it.
func NewSynonymTable(rawClasses [][]string) *SynonymTable {
	normalizer := NewMedicalQueryNormalizer(false)

	table := &SynonymTable{index: make(map[string]int)}
	for _, raw := range rawClasses {
		var class []string
		for _, term := range raw {
			normalized := normalizer.Normalize(term)
			if normalized == "" {
				continue
			}
			if _, seen := table.index[normalized]; seen {
				continue
			}
			table.index[normalized] = len(table.classes)
			class = append(class, normalized)
		}
		if len(class) > 0 {
			table.classes = append(table.classes, class)
		}
	}
	return table
}

// Variants returns the other members of the class containing the
// normalized query, or nil when the query belongs to no class. The result
// bounds the number of extra lookups a similarity probe may perform.
func (t *SynonymTable) Variants(normalized string) []string {
	idx, ok := t.index[normalized]
	if !ok {
		return nil
	}

	class := t.classes[idx]
	variants := make([]string, 0, len(class)-1)
	for _, member := range class {
		if member != normalized {
			variants = append(variants, member)
		}
	}
	return variants
}

// DefaultSynonymTable returns the curated clinical equivalence classes.
// Abbreviated forms are listed alongside spelled-out forms even though
// normalization usually collapses them; the table stays readable and the
// constructor deduplicates.
func DefaultSynonymTable() *SynonymTable {
	return NewSynonymTable([][]string{
		{"heart attack", "myocardial infarction", "mi"},
		{"stroke", "cerebrovascular accident", "cva", "brain attack"},
		{"high blood pressure", "hypertension", "htn"},
		{"diabetes", "diabetes mellitus", "dm"},
		{"flu", "influenza"},
		{"kidney failure", "renal failure", "kidney disease"},
		{"heart failure", "congestive heart failure", "chf", "cardiac failure"},
		{"blood clot lung", "pulmonary embolism", "pe"},
		{"mini stroke", "transient ischemic attack", "tia"},
		{"bladder infection", "urinary tract infection", "uti"},
		{"acid reflux", "heartburn", "gastroesophageal reflux disease", "gerd"},
		{"irregular heartbeat", "atrial fibrillation", "afib"},
		{"high cholesterol", "hyperlipidemia", "hypercholesterolemia"},
		{"low blood sugar", "hypoglycemia"},
		{"high blood sugar", "hyperglycemia"},
		{"enlarged prostate", "benign prostatic hyperplasia", "bph"},
		{"shingles", "herpes zoster"},
		{"chickenpox", "varicella"},
		{"whooping cough", "pertussis"},
		{"lockjaw", "tetanus"},
	})
}
