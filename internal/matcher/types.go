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

package matcher

// TargetInstitution is an institution from a yearly compliance list that is
// required to host a defibrillator. Key is unique within one year.
type TargetInstitution struct {
	Year           int    `json:"year,omitempty"`
	Key            string `json:"key"`
	Name           string `json:"name"`
	Province       string `json:"province"`
	District       string `json:"district"`
	Category       string `json:"category,omitempty"`
	SubCategory    string `json:"sub_category,omitempty"`
	AddressHint    string `json:"address_hint,omitempty"`
	EquipmentCount int    `json:"equipment_count"`
}

// EquipmentRecord is an installed defibrillator.
type EquipmentRecord struct {
	ManagementNumber         string `json:"management_number,omitempty"`
	InstalledInstitutionName string `json:"installed_institution_name"`
	InstalledAddress         string `json:"installed_address,omitempty"`
	Province                 string `json:"province"`
	District                 string `json:"district"`
	Serial                   string `json:"serial,omitempty"`
}

// Reason breaks a confidence down into its factors, each on 0-100.
type Reason struct {
	Name    float64 `json:"name"`
	Address float64 `json:"address"`
}

// MatchCandidate is a scored equipment record for one target.
// Confirmed is only ever set by a human reviewer.
type MatchCandidate struct {
	TargetKey        string  `json:"target_key"`
	ManagementNumber string  `json:"management_number,omitempty"`
	InstitutionName  string  `json:"institution_name,omitempty"`
	Confidence       float64 `json:"confidence"`
	Reason           Reason  `json:"reason"`
	Confirmed        bool    `json:"confirmed"`
}

// Tier is a coarse confidence bucket for human triage.
type Tier string

const (
	TierHigh      Tier = "high"
	TierMedium    Tier = "medium"
	TierLow       Tier = "low"
	TierUnmatched Tier = "unmatched"
)

// ParseTier accepts the tier names used in query strings.
func ParseTier(s string) (Tier, bool) {
	switch t := Tier(s); t {
	case TierHigh, TierMedium, TierLow, TierUnmatched:
		return t, true
	}
	return "", false
}

// InstitutionGroup is a cluster of target records that likely describe one
// physical institution.
type InstitutionGroup struct {
	GroupID           string              `json:"group_id"`
	Master            TargetInstitution   `json:"master"`
	Members           []TargetInstitution `json:"members"`
	AverageSimilarity float64             `json:"average_similarity"`
	TotalEquipment    int                 `json:"total_equipment"`
	ConfidenceTier    Tier                `json:"confidence_tier"`
}

// GroupResult partitions a grouping input into groups and singletons.
type GroupResult struct {
	Groups    []InstitutionGroup  `json:"groups"`
	Ungrouped []TargetInstitution `json:"ungrouped"`
}

// Stats summarizes a GroupResult.
type Stats struct {
	TotalInstitutions     int     `json:"total_institutions"`
	GroupedInstitutions   int     `json:"grouped_institutions"`
	UngroupedInstitutions int     `json:"ungrouped_institutions"`
	GroupCount            int     `json:"group_count"`
	AverageGroupSize      float64 `json:"average_group_size"`
	PotentialDuplicates   int     `json:"potential_duplicates"`
	GroupedEquipment      int     `json:"grouped_equipment"`
	UngroupedEquipment    int     `json:"ungrouped_equipment"`
	TotalEquipment        int     `json:"total_equipment"`
}
