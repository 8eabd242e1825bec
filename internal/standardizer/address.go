// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package standardizer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// Address is a normalized address in both Korean addressing schemes.
//
// RoadForm is "<region> <road> <building no>" and LotForm is
// "<region> <dong/ri...> <lot no>". Either may be empty when the raw address
// does not carry that scheme. Hash identifies the canonical form and is empty
// for an empty address.
type Address struct {
	Cleaned  string `json:"cleaned"`
	RoadForm string `json:"road_form,omitempty"`
	LotForm  string `json:"lot_form,omitempty"`
	Hash     string `json:"hash,omitempty"`
}

var (
	buildingNumber = regexp.MustCompile(`^(지하)?\d+(-\d+)?$`)
	roadWithNumber = regexp.MustCompile(`^(.+(?:로|길))((?:지하)?\d+(?:-\d+)?)$`)
	lotNumber      = regexp.MustCompile(`^(산)?(\d+(?:-\d+)?)(번지)?$`)
)

// provinceAliases maps every accepted province spelling to its short form.
var provinceAliases = map[string]string{
	"서울특별시": "서울", "서울시": "서울", "서울": "서울",
	"부산광역시": "부산", "부산시": "부산", "부산": "부산",
	"대구광역시": "대구", "대구시": "대구", "대구": "대구",
	"인천광역시": "인천", "인천시": "인천", "인천": "인천",
	"광주광역시": "광주", "광주": "광주",
	"대전광역시": "대전", "대전시": "대전", "대전": "대전",
	"울산광역시": "울산", "울산시": "울산", "울산": "울산",
	"세종특별자치시": "세종", "세종시": "세종", "세종": "세종",
	"경기도": "경기", "경기": "경기",
	"강원특별자치도": "강원", "강원도": "강원", "강원": "강원",
	"충청북도": "충북", "충북": "충북",
	"충청남도": "충남", "충남": "충남",
	"전북특별자치도": "전북", "전라북도": "전북", "전북": "전북",
	"전라남도": "전남", "전남": "전남",
	"경상북도": "경북", "경북": "경북",
	"경상남도": "경남", "경남": "경남",
	"제주특별자치도": "제주", "제주도": "제주", "제주": "제주",
}

// CanonicalProvince returns the short province name, or the input trimmed when
// it is not a known province.
func CanonicalProvince(name string) string {
	name = strings.TrimSpace(name)
	if short, ok := provinceAliases[name]; ok {
		return short
	}
	return name
}

// ProvinceSpellings returns every accepted spelling of the province name,
// sorted. Unknown names yield themselves and blank names yield nothing.
func ProvinceSpellings(name string) []string {
	short := CanonicalProvince(name)
	if short == "" {
		return nil
	}
	var spellings []string
	for alias, s := range provinceAliases {
		if s == short {
			spellings = append(spellings, alias)
		}
	}
	if len(spellings) == 0 {
		return []string{short}
	}
	sort.Strings(spellings)
	return spellings
}

// AddressNormalizer splits cleaned addresses into road and lot forms.
type AddressNormalizer struct {
	text *Normalizer
}

// NewAddressNormalizer wraps a normalizer configured with address rules.
func NewAddressNormalizer(text *Normalizer) *AddressNormalizer {
	return &AddressNormalizer{text: text}
}

// Normalize cleans raw and extracts its road and lot forms.
func (a *AddressNormalizer) Normalize(raw string) Address {
	cleaned := a.text.NormalizeWithCache(raw).Normalized
	if cleaned == "" {
		return Address{}
	}
	tokens := strings.Fields(cleaned)

	// Leading region tokens: province, city, county, district.
	var region []string
	i := 0
	for ; i < len(tokens); i++ {
		if short, ok := provinceAliases[tokens[i]]; ok {
			region = append(region, short)
			continue
		}
		if isAdministrativeUnit(tokens[i]) {
			region = append(region, tokens[i])
			continue
		}
		break
	}
	rest := tokens[i:]

	addr := Address{
		Cleaned:  cleaned,
		RoadForm: roadForm(region, rest),
		LotForm:  lotForm(region, rest),
	}
	canonical := addr.RoadForm
	if canonical == "" {
		canonical = addr.LotForm
	}
	if canonical == "" {
		canonical = cleaned
	}
	canonical = strings.Join(strings.Fields(canonical), "")
	addr.Hash = strconv.FormatUint(xxhash.Sum64String(canonical), 16)
	return addr
}

func roadForm(region, rest []string) string {
	for i, tok := range rest {
		if m := roadWithNumber.FindStringSubmatch(tok); m != nil {
			return joinForm(region, m[1], m[2])
		}
		if !hasSuffixRune(tok, "로길") {
			continue
		}
		if i+1 < len(rest) && buildingNumber.MatchString(rest[i+1]) {
			return joinForm(region, tok, rest[i+1])
		}
		return ""
	}
	return ""
}

func lotForm(region, rest []string) string {
	var locality []string
	mountain := ""
	for _, tok := range rest {
		if hasSuffixRune(tok, "동리가읍면") {
			locality = append(locality, tok)
			continue
		}
		if len(locality) == 0 {
			continue
		}
		if tok == "산" {
			mountain = tok
			continue
		}
		m := lotNumber.FindStringSubmatch(tok)
		if m == nil {
			// Locality not followed by a lot number; keep scanning past it.
			locality = locality[:0]
			mountain = ""
			continue
		}
		prefix := m[1]
		if prefix == "" {
			prefix = mountain
		}
		parts := append(append([]string{}, locality...), prefix+m[2])
		return joinForm(region, parts...)
	}
	return ""
}

func joinForm(region []string, parts ...string) string {
	all := make([]string, 0, len(region)+len(parts))
	all = append(all, region...)
	all = append(all, parts...)
	return strings.Join(all, " ")
}

// isAdministrativeUnit reports whether tok looks like a city, county or district.
func isAdministrativeUnit(tok string) bool {
	return utf8.RuneCountInString(tok) >= 2 && hasSuffixRune(tok, "시군구도")
}

func hasSuffixRune(tok string, suffixes string) bool {
	if utf8.RuneCountInString(tok) < 2 {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(tok)
	return strings.ContainsRune(suffixes, last)
}
