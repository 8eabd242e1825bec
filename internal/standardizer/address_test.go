package standardizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newAddressNormalizer() *AddressNormalizer {
	return NewAddressNormalizer(NewNormalizer(MustRuleSet(DefaultAddressRules()), nil))
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		cleaned string
		road    string
		lot     string
	}{
		{
			name:    "Road address with building detail",
			input:   "서울특별시 강남구 테헤란로 152 (역삼동, 강남파이낸스센터)",
			cleaned: "서울특별시 강남구 테헤란로 152",
			road:    "서울 강남구 테헤란로 152",
		},
		{
			name:    "Road name glued to building number",
			input:   "서울 강남구 테헤란로152",
			cleaned: "서울 강남구 테헤란로152",
			road:    "서울 강남구 테헤란로 152",
		},
		{
			name:    "Lot address",
			input:   "경기도 안산시 상록구 사동 1234-5번지",
			cleaned: "경기도 안산시 상록구 사동 1234-5번지",
			lot:     "경기 안산시 상록구 사동 1234-5",
		},
		{
			name:    "Township and village",
			input:   "강원도 홍천군 홍천읍 희망리 산 12",
			cleaned: "강원도 홍천군 홍천읍 희망리 산 12",
			lot:     "강원 홍천군 홍천읍 희망리 산12",
		},
		{
			name:    "Mountain lot prefix",
			input:   "강원도 홍천군 홍천읍 희망리 산12",
			cleaned: "강원도 홍천군 홍천읍 희망리 산12",
			lot:     "강원 홍천군 홍천읍 희망리 산12",
		},
		{
			name:    "Floor and unit are dropped",
			input:   "서울 중구 세종대로 110, 3층 301호",
			cleaned: "서울 중구 세종대로 110",
			road:    "서울 중구 세종대로 110",
		},
		{
			name:    "Full width digits",
			input:   "대전광역시 서구 둔산로 １００",
			cleaned: "대전광역시 서구 둔산로 100",
			road:    "대전 서구 둔산로 100",
		},
	}

	a := newAddressNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := a.Normalize(tt.input)
			assert.Equal(t, tt.cleaned, addr.Cleaned)
			assert.Equal(t, tt.road, addr.RoadForm)
			assert.Equal(t, tt.lot, addr.LotForm)
			assert.NotEmpty(t, addr.Hash)
		})
	}
}

func TestNormalizeAddressHash(t *testing.T) {
	a := newAddressNormalizer()

	long := a.Normalize("서울특별시 강남구 테헤란로 152")
	short := a.Normalize("서울 강남구 테헤란로152 (역삼동)")
	other := a.Normalize("서울 강남구 테헤란로 153")

	assert.Equal(t, long.Hash, short.Hash)
	assert.NotEqual(t, long.Hash, other.Hash)
	assert.Equal(t, long.Hash, a.Normalize("서울특별시 강남구 테헤란로 152").Hash, "hash must be stable")
}

func TestNormalizeAddressEmpty(t *testing.T) {
	a := newAddressNormalizer()
	assert.Equal(t, Address{}, a.Normalize(""))
	assert.Equal(t, Address{}, a.Normalize("  (  ) "))
}

func TestCanonicalProvince(t *testing.T) {
	assert.Equal(t, "서울", CanonicalProvince("서울특별시"))
	assert.Equal(t, "경기", CanonicalProvince(" 경기도 "))
	assert.Equal(t, "전북", CanonicalProvince("전북특별자치도"))
	assert.Equal(t, "어딘가", CanonicalProvince("어딘가"))
}

func TestProvinceSpellings(t *testing.T) {
	assert.Equal(t, []string{"서울", "서울시", "서울특별시"}, ProvinceSpellings("서울"))
	assert.Equal(t, ProvinceSpellings("서울"), ProvinceSpellings("서울특별시"))
	assert.Equal(t, []string{"광주", "광주광역시"}, ProvinceSpellings(" 광주광역시 "))
	assert.Equal(t, []string{"어딘가"}, ProvinceSpellings("어딘가"))
	assert.Nil(t, ProvinceSpellings("  "))
}
