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

// GroupStats summarizes a grouping result. PotentialDuplicates is the number
// of records removed if every group collapsed to its master.
func GroupStats(groups []InstitutionGroup, ungrouped []TargetInstitution) Stats {
	var s Stats
	for _, g := range groups {
		s.GroupedInstitutions += len(g.Members)
		for _, m := range g.Members {
			s.GroupedEquipment += m.EquipmentCount
		}
	}
	for _, u := range ungrouped {
		s.UngroupedEquipment += u.EquipmentCount
	}

	s.GroupCount = len(groups)
	s.UngroupedInstitutions = len(ungrouped)
	s.TotalInstitutions = s.GroupedInstitutions + s.UngroupedInstitutions
	s.PotentialDuplicates = s.GroupedInstitutions - s.GroupCount
	s.TotalEquipment = s.GroupedEquipment + s.UngroupedEquipment
	if s.GroupCount > 0 {
		s.AverageGroupSize = round(float64(s.GroupedInstitutions)/float64(s.GroupCount), 2)
	}
	return s
}
