package matcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairScores builds a PairScorer from symmetric key pairs; unknown pairs score 0.
func pairScores(scores map[[2]string]float64) PairScorer {
	return func(a, b TargetInstitution) float64 {
		if s, ok := scores[[2]string{a.Key, b.Key}]; ok {
			return s
		}
		return scores[[2]string{b.Key, a.Key}]
	}
}

func inst(key string, equipment int) TargetInstitution {
	return TargetInstitution{Key: key, Name: key, Province: "서울", District: "중구", EquipmentCount: equipment}
}

func keysOf(insts []TargetInstitution) []string {
	keys := make([]string, 0, len(insts))
	for _, i := range insts {
		keys = append(keys, i.Key)
	}
	return keys
}

func TestGroupInvalidInput(t *testing.T) {
	g := NewGrouper(newScorer())

	_, err := g.Group(nil, DefaultThreshold)
	assert.ErrorIs(t, err, ErrNilInstitutions)

	for _, threshold := range []float64{-0.01, 1.01, math.NaN()} {
		_, err := g.Group([]TargetInstitution{}, threshold)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	}

	res, err := g.Group([]TargetInstitution{}, DefaultThreshold)
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
	assert.Empty(t, res.Ungrouped)
}

func TestGroupTrailingSpaceDuplicates(t *testing.T) {
	g := NewGrouper(newScorer())
	institutions := []TargetInstitution{
		{Key: "K1", Name: "서울중앙병원", Province: "서울", District: "중구", EquipmentCount: 2},
		{Key: "K2", Name: "서울중앙병원 ", Province: "서울", District: "중구", EquipmentCount: 1},
	}

	res, err := g.Group(institutions, DefaultThreshold)
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Empty(t, res.Ungrouped)

	group := res.Groups[0]
	assert.Equal(t, 1.0, group.AverageSimilarity)
	assert.Equal(t, TierHigh, group.ConfidenceTier)
	assert.Equal(t, "K1", group.Master.Key)
	assert.Equal(t, 3, group.TotalEquipment)
	assert.NotEmpty(t, group.GroupID)
}

func TestGroupSharedCategoryWithoutSubCategory(t *testing.T) {
	g := NewGrouper(newScorer())
	institutions := []TargetInstitution{
		{Key: "K1", Name: "서울중앙병원", Province: "서울", District: "중구", Category: "병원", EquipmentCount: 1},
		{Key: "K2", Name: "서울중앙병원", Province: "서울", District: "중구", Category: "병원", EquipmentCount: 1},
	}

	res, err := g.Group(institutions, DefaultThreshold)
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, 1.0, res.Groups[0].AverageSimilarity)
	assert.Equal(t, TierHigh, res.Groups[0].ConfidenceTier)
}

func TestGroupIsOrderSensitive(t *testing.T) {
	g := NewGrouper(nil, WithPairScorer(pairScores(map[[2]string]float64{
		{"A", "B"}: 0.90,
		{"B", "C"}: 0.80,
		{"A", "C"}: 0.70,
	})))

	res, err := g.Group([]TargetInstitution{inst("A", 1), inst("B", 1), inst("C", 1)}, 0.85)
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []string{"A", "B"}, keysOf(res.Groups[0].Members))
	assert.Equal(t, []string{"C"}, keysOf(res.Ungrouped))
	assert.Equal(t, 0.9, res.Groups[0].AverageSimilarity)
	assert.Equal(t, TierMedium, res.Groups[0].ConfidenceTier)
}

func TestGroupMasterAndOrdering(t *testing.T) {
	g := NewGrouper(nil, WithPairScorer(pairScores(map[[2]string]float64{
		{"A", "B"}: 0.86,
		{"A", "C"}: 0.88,
		{"D", "E"}: 0.97,
	})))

	institutions := []TargetInstitution{inst("A", 1), inst("B", 3), inst("C", 3), inst("D", 5), inst("E", 6), inst("F", 9)}
	res, err := g.Group(institutions, 0.85)
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)

	// D+E carry more equipment than A+B+C and come first.
	assert.Equal(t, []string{"D", "E"}, keysOf(res.Groups[0].Members))
	assert.Equal(t, "E", res.Groups[0].Master.Key)
	assert.Equal(t, 11, res.Groups[0].TotalEquipment)
	assert.Equal(t, TierHigh, res.Groups[0].ConfidenceTier)

	assert.Equal(t, []string{"A", "B", "C"}, keysOf(res.Groups[1].Members))
	assert.Equal(t, "B", res.Groups[1].Master.Key, "ties go to the earliest member")
	assert.Equal(t, 7, res.Groups[1].TotalEquipment)
	assert.Equal(t, 0.87, res.Groups[1].AverageSimilarity)
	assert.Equal(t, TierLow, res.Groups[1].ConfidenceTier)

	assert.Equal(t, []string{"F"}, keysOf(res.Ungrouped))
	assert.NotEqual(t, res.Groups[0].GroupID, res.Groups[1].GroupID)

	again, err := g.Group(institutions, 0.85)
	require.NoError(t, err)
	assert.Equal(t, res.Groups[0].GroupID, again.Groups[0].GroupID)
}

func TestGroupPartitionInvariant(t *testing.T) {
	institutions := []TargetInstitution{
		{Key: "1", Name: "강남구보건소", Province: "서울", District: "강남구", EquipmentCount: 2},
		{Key: "2", Name: "강남구 보건소", Province: "서울특별시", District: "강남구", EquipmentCount: 4},
		{Key: "3", Name: "서울중앙병원", Province: "서울", District: "중구", EquipmentCount: 1},
		{Key: "4", Name: "(재)서울중앙병원", Province: "서울", District: "중구", EquipmentCount: 1},
		{Key: "5", Name: "부산해운대보건소", Province: "부산", District: "해운대구", EquipmentCount: 3},
		{Key: "6", Name: "상록보건지소", Province: "경기", District: "안산시", EquipmentCount: 1},
		{Key: "7", Name: "", Province: "경기", District: "안산시", EquipmentCount: 1},
		{Key: "8", Name: "", Province: "경기", District: "안산시", EquipmentCount: 1},
	}
	SortInstitutions(institutions)

	res, err := NewGrouper(newScorer()).Group(institutions, DefaultThreshold)
	require.NoError(t, err)

	var seen []string
	for _, g := range res.Groups {
		assert.GreaterOrEqual(t, len(g.Members), 2)
		for _, m := range g.Members {
			assert.GreaterOrEqual(t, g.Master.EquipmentCount, m.EquipmentCount)
		}
		seen = append(seen, keysOf(g.Members)...)
	}
	seen = append(seen, keysOf(res.Ungrouped)...)
	assert.ElementsMatch(t, keysOf(institutions), seen)

	require.Len(t, res.Groups, 2)
	assert.Equal(t, "2", res.Groups[0].Master.Key)
	assert.Contains(t, keysOf(res.Ungrouped), "7")
	assert.Contains(t, keysOf(res.Ungrouped), "8")
}

func TestSortInstitutions(t *testing.T) {
	institutions := []TargetInstitution{
		{Key: "4", Name: "b", Province: "서울", District: "중구"},
		{Key: "3", Name: "a", Province: "서울", District: "중구"},
		{Key: "2", Name: "a", Province: "부산", District: "중구"},
		{Key: "1", Name: "a", Province: "서울", District: "강남구"},
		{Key: "0", Name: "a", Province: "서울", District: "중구"},
	}
	SortInstitutions(institutions)
	assert.Equal(t, []string{"2", "1", "0", "3", "4"}, keysOf(institutions))
}

func TestGroupStats(t *testing.T) {
	member := func(key string) TargetInstitution { return inst(key, 2) }
	groups := []InstitutionGroup{
		{Members: []TargetInstitution{member("a1"), member("a2"), member("a3"), member("a4")}},
		{Members: []TargetInstitution{member("b1"), member("b2"), member("b3")}},
		{Members: []TargetInstitution{member("c1"), member("c2"), member("c3")}},
	}
	ungrouped := []TargetInstitution{inst("u1", 1), inst("u2", 1), inst("u3", 1), inst("u4", 1)}

	assert.Equal(t, Stats{
		TotalInstitutions:     14,
		GroupedInstitutions:   10,
		UngroupedInstitutions: 4,
		GroupCount:            3,
		AverageGroupSize:      3.33,
		PotentialDuplicates:   7,
		GroupedEquipment:      20,
		UngroupedEquipment:    4,
		TotalEquipment:        24,
	}, GroupStats(groups, ungrouped))

	assert.Equal(t, Stats{}, GroupStats(nil, nil))
}
