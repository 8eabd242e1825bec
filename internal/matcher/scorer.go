package matcher

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/TFMV/InstitutionMatchPro/internal/standardizer"
	"github.com/agnivade/levenshtein"
)

// Weights of the cross-type match confidence.
const (
	nameWeight    = 0.6
	addressWeight = 0.4
)

// Weights of the three-factor institution similarity used for grouping.
const (
	groupNameWeight     = 0.4
	groupAddressWeight  = 0.3
	groupDivisionWeight = 0.3

	categoryCredit    = 0.6
	subCategoryCredit = 0.4
)

// Similarity returns the edit-distance similarity of two normalized strings on
// 0-100. An empty string on either side cannot be compared and scores 0, so
// two empty strings never match.
func Similarity(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	distance := levenshtein.ComputeDistance(a, b)
	return int(math.Round((1 - float64(distance)/float64(longest)) * 100))
}

// Confidence is a composite match score on 0-100 with its factors.
type Confidence struct {
	Confidence   float64 `json:"confidence"`
	NameScore    float64 `json:"name_score"`
	AddressScore float64 `json:"address_score"`
}

// Scorer compares institutions through the name and address normalizers.
type Scorer struct {
	names     *standardizer.Normalizer
	addresses *standardizer.AddressNormalizer
}

// NewScorer creates a Scorer.
func NewScorer(names *standardizer.Normalizer, addresses *standardizer.AddressNormalizer) *Scorer {
	return &Scorer{names: names, addresses: addresses}
}

// NormalizeName returns the cached normalized form of an institution name.
func (s *Scorer) NormalizeName(name string) string {
	return s.names.NormalizeWithCache(name).Normalized
}

// NameSimilarity compares two raw names. Identical normalized names score 100.
func (s *Scorer) NameSimilarity(a, b string) int {
	return Similarity(s.NormalizeName(a), s.NormalizeName(b))
}

// AddressSimilarity compares two raw addresses on 0-100. ok is false when
// either address normalizes to nothing. Equal address hashes score 100
// without computing an edit distance.
func (s *Scorer) AddressSimilarity(a, b string) (score int, ok bool) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0, false
	}
	x, y := s.addresses.Normalize(a), s.addresses.Normalize(b)
	if x.Hash == "" || y.Hash == "" {
		return 0, false
	}
	if x.Hash == y.Hash {
		return 100, true
	}
	switch {
	case x.RoadForm != "" && y.RoadForm != "":
		return Similarity(x.RoadForm, y.RoadForm), true
	case x.LotForm != "" && y.LotForm != "":
		return Similarity(x.LotForm, y.LotForm), true
	default:
		return Similarity(x.Cleaned, y.Cleaned), true
	}
}

// MatchConfidence scores a target institution against an equipment record.
// With both addresses available the confidence is 0.6 name + 0.4 address,
// otherwise it is the name similarity alone.
func (s *Scorer) MatchConfidence(targetName, targetAddress, equipmentName, equipmentAddress string) Confidence {
	tn, en := s.NormalizeName(targetName), s.NormalizeName(equipmentName)
	if tn == "" || en == "" {
		return Confidence{}
	}

	name := float64(Similarity(tn, en))
	if tn == en {
		name = 100
	}

	addr, ok := s.AddressSimilarity(targetAddress, equipmentAddress)
	if !ok {
		return Confidence{Confidence: name, NameScore: name}
	}
	conf := nameWeight*name + addressWeight*float64(addr)
	return Confidence{
		Confidence:   clamp(round(conf, 2), 0, 100),
		NameScore:    name,
		AddressScore: float64(addr),
	}
}

// InstitutionSimilarity compares two target institutions on 0-1 using name
// (0.4), address (0.3) and division (0.3). The address factor falls back to
// region agreement when either side has no address. When neither side has a
// category the division factor is left out and the rest reweighted.
func (s *Scorer) InstitutionSimilarity(a, b TargetInstitution) float64 {
	an, bn := s.NormalizeName(a.Name), s.NormalizeName(b.Name)
	if an == "" || bn == "" {
		return 0
	}
	name := float64(Similarity(an, bn)) / 100

	var address float64
	if score, ok := s.AddressSimilarity(a.AddressHint, b.AddressHint); ok {
		address = float64(score) / 100
	} else {
		address = regionAgreement(a, b)
	}

	catA, catB := strings.TrimSpace(a.Category), strings.TrimSpace(b.Category)
	if catA == "" && catB == "" {
		total := (groupNameWeight*name + groupAddressWeight*address) / (groupNameWeight + groupAddressWeight)
		return clamp(round(total, 4), 0, 1)
	}

	var division float64
	if catA != "" && catA == catB {
		division = categoryCredit
		// Two missing sub-categories agree, the same as two missing categories.
		if strings.TrimSpace(a.SubCategory) == strings.TrimSpace(b.SubCategory) {
			division += subCategoryCredit
		}
	}
	total := groupNameWeight*name + groupAddressWeight*address + groupDivisionWeight*division
	return clamp(round(total, 4), 0, 1)
}

func regionAgreement(a, b TargetInstitution) float64 {
	pa, pb := standardizer.CanonicalProvince(a.Province), standardizer.CanonicalProvince(b.Province)
	if pa == "" || pa != pb {
		return 0
	}
	da, db := strings.TrimSpace(a.District), strings.TrimSpace(b.District)
	if da != "" && da == db {
		return 1
	}
	return 0.5
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
