package matcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equipment(number, name string) EquipmentRecord {
	return EquipmentRecord{ManagementNumber: number, InstalledInstitutionName: name, Province: "서울", District: "중구"}
}

func TestMatchTargetRanking(t *testing.T) {
	m := NewMatcher(newScorer())
	target := TargetInstitution{Key: "T1", Name: "서울중앙병원", Province: "서울", District: "중구"}

	got := m.MatchTarget(target, []EquipmentRecord{
		equipment("M3", "서울중앙병원"),
		equipment("M2", "서울 중앙병원"),
		equipment("M4", "부산해운대보건소"),
		equipment("M1", "서울중앙병원"),
	}, nil)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"M1", "M3", "M2"}, []string{got[0].ManagementNumber, got[1].ManagementNumber, got[2].ManagementNumber})
	assert.Equal(t, 100.0, got[0].Confidence)
	assert.Equal(t, 86.0, got[2].Confidence)
	for _, c := range got {
		assert.Equal(t, "T1", c.TargetKey)
		assert.False(t, c.Confirmed)
		assert.GreaterOrEqual(t, c.Confidence, MinConfidence)
	}
	assert.Equal(t, TierHigh, ClassifyTier(got))
}

func TestMatchTargetKeepsTopCandidates(t *testing.T) {
	m := NewMatcher(newScorer())
	target := TargetInstitution{Key: "T1", Name: "서울중앙병원"}

	var candidates []EquipmentRecord
	for i := 12; i >= 1; i-- {
		candidates = append(candidates, equipment(fmt.Sprintf("E%02d", i), "서울중앙병원"))
	}

	got := m.MatchTarget(target, candidates, nil)
	require.Len(t, got, MaxCandidates)
	assert.Equal(t, "E01", got[0].ManagementNumber)
	assert.Equal(t, "E10", got[MaxCandidates-1].ManagementNumber)
}

func TestMatchTargetConfirmedPrior(t *testing.T) {
	m := NewMatcher(newScorer())
	target := TargetInstitution{Key: "T1", Name: "서울중앙병원"}
	candidates := []EquipmentRecord{equipment("M1", "서울중앙병원")}

	prior := &MatchCandidate{ManagementNumber: "M9", Confidence: 72, Confirmed: true}
	got := m.MatchTarget(target, candidates, prior)
	require.Len(t, got, 1)
	assert.Equal(t, "M9", got[0].ManagementNumber)
	assert.Equal(t, 72.0, got[0].Confidence)
	assert.Equal(t, "T1", got[0].TargetKey)
	assert.True(t, got[0].Confirmed)
	assert.Zero(t, got[0].Reason)

	unconfirmed := &MatchCandidate{ManagementNumber: "M9", Confidence: 72}
	got = m.MatchTarget(target, candidates, unconfirmed)
	require.Len(t, got, 1)
	assert.Equal(t, "M1", got[0].ManagementNumber)
}

func TestMatchTargetNoCandidates(t *testing.T) {
	m := NewMatcher(newScorer())

	// Equipment from another district is filtered out by the caller.
	target := TargetInstitution{Key: "T1", Name: "상록보건지소", Province: "경기", District: "안산시"}
	got := m.MatchTarget(target, []EquipmentRecord{}, nil)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Equal(t, TierUnmatched, ClassifyTier(got))

	empty := TargetInstitution{Key: "T2", Name: "  "}
	assert.Empty(t, m.MatchTarget(empty, []EquipmentRecord{equipment("M1", "")}, nil))
}

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected Tier
	}{
		{"Empty", nil, TierUnmatched},
		{"High", []float64{95}, TierHigh},
		{"High boundary", []float64{90, 55}, TierHigh},
		{"Medium", []float64{89.99}, TierMedium},
		{"Medium boundary", []float64{60}, TierMedium},
		{"Low", []float64{55}, TierLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var candidates []MatchCandidate
			for _, s := range tt.scores {
				candidates = append(candidates, MatchCandidate{Confidence: s})
			}
			assert.Equal(t, tt.expected, ClassifyTier(candidates))
		})
	}
}

func TestMatchAll(t *testing.T) {
	m := NewMatcher(newScorer())

	_, err := m.MatchAll(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNilTargets)

	targets := []TargetInstitution{
		{Key: "T1", Name: "서울중앙병원", Province: "서울", District: "중구"},
		{Key: "T2", Name: "상록보건지소", Province: "경기", District: "안산시"},
		{Key: "T3", Name: "강남구보건소", Province: "서울", District: "강남구"},
	}
	byDistrict := map[string][]EquipmentRecord{
		"중구": {equipment("M1", "서울중앙병원")},
	}
	source := func(t TargetInstitution) []EquipmentRecord { return byDistrict[t.District] }
	confirmed := map[string]MatchCandidate{
		"T3": {TargetKey: "T3", ManagementNumber: "M7", Confidence: 65, Confirmed: true},
	}

	report, err := m.MatchAll(targets, source, confirmed)
	require.NoError(t, err)
	require.Len(t, report.Matches, 3)

	assert.Equal(t, TierHigh, report.Matches[0].Tier)
	assert.Equal(t, TierUnmatched, report.Matches[1].Tier)
	assert.Empty(t, report.Matches[1].Candidates)
	assert.Equal(t, TierMedium, report.Matches[2].Tier)
	assert.Equal(t, "M7", report.Matches[2].Candidates[0].ManagementNumber)

	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Matched)
	assert.Equal(t, 1, report.Summary.Unmatched)
	assert.Equal(t, 66.67, report.Summary.MatchRate)
	assert.Equal(t, map[Tier]int{TierHigh: 1, TierMedium: 1, TierLow: 0, TierUnmatched: 1}, report.Summary.Tiers)

	assert.Len(t, FilterByTier(report.Matches, TierUnmatched), 1)
	assert.Equal(t, "T1", FilterByTier(report.Matches, TierHigh)[0].Target.Key)
	assert.Empty(t, FilterByTier(report.Matches, TierLow))
}

func TestMatchAllEmptyTargets(t *testing.T) {
	report, err := NewMatcher(newScorer()).MatchAll([]TargetInstitution{}, AllCandidates(nil), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Matches)
	assert.Zero(t, report.Summary.MatchRate)
}

func TestShortlist(t *testing.T) {
	m := NewMatcher(newScorer(), WithShortlist(2))
	target := TargetInstitution{Key: "T1", Name: "서울중앙병원"}
	candidates := []EquipmentRecord{
		equipment("M1", "부산해운대"),
		equipment("M2", "대구동산병원"),
		equipment("M3", "서울중앙의원"),
		equipment("M4", "광주기독병원"),
		equipment("M5", "서울중앙병원"),
	}

	kept := m.shortlist(target, candidates, 2)
	require.Len(t, kept, 2)
	assert.Equal(t, "M5", kept[0].ManagementNumber)
	assert.Equal(t, "M3", kept[1].ManagementNumber)

	kept = m.shortlist(target, candidates, 4)
	var numbers []string
	for _, c := range kept {
		numbers = append(numbers, c.ManagementNumber)
	}
	assert.ElementsMatch(t, []string{"M2", "M3", "M4", "M5"}, numbers)

	got := m.MatchTarget(target, candidates, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "M5", got[0].ManagementNumber)
	assert.Equal(t, "M3", got[1].ManagementNumber)

	assert.Equal(t, candidates, m.shortlist(target, candidates, 10))
}

func TestShortlistKeepsAddressOnlyMatches(t *testing.T) {
	target := TargetInstitution{Key: "T1", Name: "가나다", AddressHint: "서울 중구 세종대로 110"}
	candidates := []EquipmentRecord{
		{ManagementNumber: "M1", InstalledInstitutionName: "가다나", InstalledAddress: "서울 중구 세종대로 110"},
		{ManagementNumber: "M2", InstalledInstitutionName: "라마바"},
		{ManagementNumber: "M3", InstalledInstitutionName: "사아자"},
	}

	full := NewMatcher(newScorer()).MatchTarget(target, candidates, nil)
	require.Len(t, full, 1)
	assert.Equal(t, "M1", full[0].ManagementNumber)
	assert.Equal(t, 59.8, full[0].Confidence)

	m := NewMatcher(newScorer(), WithShortlist(2))
	kept := m.shortlist(target, candidates, 2)
	require.Len(t, kept, 2)
	assert.Equal(t, []string{"M1", "M2"}, []string{kept[0].ManagementNumber, kept[1].ManagementNumber})
	assert.Equal(t, full, m.MatchTarget(target, candidates, nil))
}
