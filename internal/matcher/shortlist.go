package matcher

import (
	"sort"

	"github.com/TFMV/InstitutionMatchPro/pkg/tfidf"
)

const shortlistNGram = 2

// shortlist pre-ranks equipment records against a target name by TF-IDF
// cosine over the character bigrams and words of the normalized names and
// keeps the best size records. Records sharing no term with the target rank
// last and still fill any free slots. Ties keep input order.
func (m *Matcher) shortlist(target TargetInstitution, candidates []EquipmentRecord, size int) []EquipmentRecord {
	if size <= 0 || len(candidates) <= size {
		return candidates
	}

	docs := make([][]string, 0, len(candidates)+1)
	docs = append(docs, m.terms(target.Name))
	for _, c := range candidates {
		docs = append(docs, m.terms(c.InstalledInstitutionName))
	}

	vectors := tfidf.NewVectorizer().FitTransform(docs)

	type ranked struct {
		index int
		score float64
	}
	scores := make([]ranked, len(candidates))
	for i := range candidates {
		scores[i] = ranked{index: i, score: tfidf.Cosine(vectors[0], vectors[i+1])}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})
	scores = scores[:size]

	kept := make([]EquipmentRecord, len(scores))
	for i, r := range scores {
		kept[i] = candidates[r.index]
	}
	return kept
}

func (m *Matcher) terms(name string) []string {
	normalized := m.scorer.NormalizeName(name)
	return append(tfidf.NGrams(normalized, shortlistNGram), tfidf.Words(normalized)...)
}
