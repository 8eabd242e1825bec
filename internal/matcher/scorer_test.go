package matcher

import (
	"testing"

	"github.com/TFMV/InstitutionMatchPro/internal/standardizer"
	"github.com/stretchr/testify/assert"
)

func newScorer() *Scorer {
	cache := standardizer.NewCache(0, 0)
	names := standardizer.NewNormalizer(standardizer.MustRuleSet(standardizer.DefaultRules()), cache)
	addresses := standardizer.NewNormalizer(standardizer.MustRuleSet(standardizer.DefaultAddressRules()), cache)
	return NewScorer(names, standardizer.NewAddressNormalizer(addresses))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"Identical", "서울중앙병원", "서울중앙병원", 100},
		{"One substitution", "abc", "abd", 67},
		{"One deletion", "강남구", "강남", 67},
		{"Disjoint", "abc", "xyz", 0},
		{"One side empty", "abc", "", 0},
		{"Both empty", "", "", 0},
		{"Counts runes not bytes", "서울중앙병원", "서울중앙의원", 83},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Similarity(tt.a, tt.b))
			assert.Equal(t, tt.expected, Similarity(tt.b, tt.a))
		})
	}
}

func TestSimilarityBounds(t *testing.T) {
	inputs := []string{"", "a", "서울", "서울중앙병원", "부산 해운대구 보건소", "abc def", "１２３"}
	for _, a := range inputs {
		for _, b := range inputs {
			s := Similarity(a, b)
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, 100)
			assert.Equal(t, s, Similarity(b, a))
		}
		if a != "" {
			assert.Equal(t, 100, Similarity(a, a))
		}
	}
}

func TestMatchConfidence(t *testing.T) {
	tests := []struct {
		name         string
		targetName   string
		targetAddr   string
		equipName    string
		equipAddr    string
		confidence   float64
		nameScore    float64
		addressScore float64
	}{
		{
			name:       "Identical after normalization without addresses",
			targetName: "강남구보건소",
			equipName:  "강남구 보건소",
			confidence: 100,
			nameScore:  100,
		},
		{
			name:         "Same address in both schemes of spelling",
			targetName:   "서울중앙병원",
			targetAddr:   "서울특별시 강남구 테헤란로 152",
			equipName:    "서울중앙병원",
			equipAddr:    "서울 강남구 테헤란로152",
			confidence:   100,
			nameScore:    100,
			addressScore: 100,
		},
		{
			name:         "Weighted name and address",
			targetName:   "서울중앙병원",
			targetAddr:   "서울특별시 강남구 테헤란로 152",
			equipName:    "서울중앙의원",
			equipAddr:    "서울 강남구 테헤란로 152 (역삼동)",
			confidence:   89.8,
			nameScore:    83,
			addressScore: 100,
		},
		{
			name:       "Missing equipment address uses name only",
			targetName: "서울중앙병원",
			targetAddr: "서울특별시 강남구 테헤란로 152",
			equipName:  "서울중앙의원",
			confidence: 83,
			nameScore:  83,
		},
		{
			name:       "Empty target name",
			targetName: "   ",
			equipName:  "서울중앙병원",
		},
	}

	s := newScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.MatchConfidence(tt.targetName, tt.targetAddr, tt.equipName, tt.equipAddr)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.InDelta(t, tt.nameScore, got.NameScore, 1e-9)
			assert.InDelta(t, tt.addressScore, got.AddressScore, 1e-9)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 100.0)
		})
	}
}

func TestAddressSimilarity(t *testing.T) {
	s := newScorer()

	score, ok := s.AddressSimilarity("서울 중구 세종대로 110, 3층", "서울특별시 중구 세종대로 110")
	assert.True(t, ok)
	assert.Equal(t, 100, score)

	score, ok = s.AddressSimilarity("서울 중구 세종대로 110", "서울 중구 세종대로 112")
	assert.True(t, ok)
	assert.Less(t, score, 100)
	assert.Greater(t, score, 80)

	_, ok = s.AddressSimilarity("", "서울 중구 세종대로 110")
	assert.False(t, ok)
	_, ok = s.AddressSimilarity("()", "서울 중구 세종대로 110")
	assert.False(t, ok)
}

func TestInstitutionSimilarity(t *testing.T) {
	base := TargetInstitution{Key: "a", Name: "서울중앙병원", Province: "서울", District: "중구"}

	tests := []struct {
		name     string
		a, b     TargetInstitution
		expected float64
	}{
		{
			name:     "Trailing space without categories",
			a:        base,
			b:        TargetInstitution{Key: "b", Name: "서울중앙병원 ", Province: "서울특별시", District: "중구"},
			expected: 1.0,
		},
		{
			name:     "Full division agreement",
			a:        withCategory(base, "의료기관", "종합병원"),
			b:        withCategory(TargetInstitution{Key: "b", Name: "서울중앙병원", Province: "서울", District: "중구"}, "의료기관", "종합병원"),
			expected: 1.0,
		},
		{
			name:     "Category only",
			a:        withCategory(base, "의료기관", "종합병원"),
			b:        withCategory(TargetInstitution{Key: "b", Name: "서울중앙병원", Province: "서울", District: "중구"}, "의료기관", "병원"),
			expected: 0.88,
		},
		{
			name:     "Same category, neither has a sub-category",
			a:        withCategory(base, "병원", ""),
			b:        withCategory(TargetInstitution{Key: "b", Name: "서울중앙병원", Province: "서울", District: "중구"}, "병원", " "),
			expected: 1.0,
		},
		{
			name:     "Same category, one sub-category missing",
			a:        withCategory(base, "병원", "종합병원"),
			b:        withCategory(TargetInstitution{Key: "b", Name: "서울중앙병원", Province: "서울", District: "중구"}, "병원", ""),
			expected: 0.88,
		},
		{
			name:     "Same province other district, categories differ",
			a:        withCategory(base, "의료기관", ""),
			b:        withCategory(TargetInstitution{Key: "b", Name: "서울중앙병원", Province: "서울", District: "종로구"}, "공공기관", ""),
			expected: 0.55,
		},
		{
			name:     "One side without category",
			a:        withCategory(base, "의료기관", ""),
			b:        TargetInstitution{Key: "b", Name: "서울중앙병원", Province: "부산", District: "중구"},
			expected: 0.4,
		},
		{
			name: "Address hints override region",
			a: TargetInstitution{Key: "a", Name: "서울중앙병원", Province: "서울", District: "중구",
				AddressHint: "서울 중구 세종대로 110"},
			b: TargetInstitution{Key: "b", Name: "서울중앙병원", Province: "부산", District: "해운대구",
				AddressHint: "서울특별시 중구 세종대로 110"},
			expected: 1.0,
		},
		{
			name:     "Empty name",
			a:        base,
			b:        TargetInstitution{Key: "b", Name: "", Province: "서울", District: "중구"},
			expected: 0,
		},
	}

	s := newScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.InstitutionSimilarity(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.expected, s.InstitutionSimilarity(tt.b, tt.a), 1e-9)
		})
	}
}

func withCategory(inst TargetInstitution, category, sub string) TargetInstitution {
	inst.Category = category
	inst.SubCategory = sub
	return inst
}
