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

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/TFMV/InstitutionMatchPro/pkg/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// DefaultThreshold is the grouping threshold used when none is configured.
const DefaultThreshold = 0.85

const (
	highGroupFloor   = 0.95
	mediumGroupFloor = 0.90
)

var (
	// ErrNilInstitutions is returned when Group is called without a list.
	ErrNilInstitutions = errors.New("institutions must not be nil")
	// ErrInvalidThreshold is returned for thresholds outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")
)

// groupNamespace seeds the deterministic group IDs.
var groupNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("institution-group"))

// PairScorer scores two institutions on 0-1.
type PairScorer func(a, b TargetInstitution) float64

// Grouper clusters target institutions that likely describe the same place.
type Grouper struct {
	score  PairScorer
	logger *zap.Logger
}

// GrouperOption configures a Grouper.
type GrouperOption func(*Grouper)

// WithPairScorer replaces the institution similarity used for clustering.
func WithPairScorer(score PairScorer) GrouperOption {
	return func(g *Grouper) {
		if score != nil {
			g.score = score
		}
	}
}

// WithGroupLogger sets the logger used for debug output.
func WithGroupLogger(logger *zap.Logger) GrouperOption {
	return func(g *Grouper) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGrouper creates a Grouper that scores pairs with scorer.
func NewGrouper(scorer *Scorer, opts ...GrouperOption) *Grouper {
	g := &Grouper{logger: zap.NewNop()}
	if scorer != nil {
		g.score = scorer.InstitutionSimilarity
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Group clusters institutions in a single greedy pass. Each institution not
// yet clustered collects every later unclustered institution scoring at least
// threshold against it. The result depends on input order; SortInstitutions
// gives a reproducible one. Groups are returned largest TotalEquipment first.
func (g *Grouper) Group(institutions []TargetInstitution, threshold float64) (GroupResult, error) {
	if institutions == nil {
		return GroupResult{}, ErrNilInstitutions
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return GroupResult{}, errors.Wrapf(ErrInvalidThreshold, "got %v", threshold)
	}
	if g.score == nil {
		return GroupResult{}, errors.New("grouper has no pair scorer")
	}

	start := time.Now()
	defer func() {
		metrics.GroupingDuration.Observe(time.Since(start).Seconds())
	}()

	result := GroupResult{
		Groups:    []InstitutionGroup{},
		Ungrouped: []TargetInstitution{},
	}
	processed := make([]bool, len(institutions))

	for i := range institutions {
		if processed[i] {
			continue
		}
		processed[i] = true

		members := []int{i}
		var scores []float64
		for j := i + 1; j < len(institutions); j++ {
			if processed[j] {
				continue
			}
			score := g.score(institutions[i], institutions[j])
			if score >= threshold {
				members = append(members, j)
				scores = append(scores, score)
				processed[j] = true
			}
		}

		if len(members) == 1 {
			result.Ungrouped = append(result.Ungrouped, institutions[i])
			continue
		}
		group := buildGroup(institutions, members, scores)
		result.Groups = append(result.Groups, group)
		metrics.GroupsFound.WithLabelValues(string(group.ConfidenceTier)).Inc()
	}

	sort.SliceStable(result.Groups, func(i, j int) bool {
		return result.Groups[i].TotalEquipment > result.Groups[j].TotalEquipment
	})

	g.logger.Debug("grouped institutions",
		zap.Int("institutions", len(institutions)),
		zap.Int("groups", len(result.Groups)),
		zap.Int("ungrouped", len(result.Ungrouped)),
		zap.Float64("threshold", threshold))
	return result, nil
}

func buildGroup(institutions []TargetInstitution, members []int, scores []float64) InstitutionGroup {
	group := InstitutionGroup{Members: make([]TargetInstitution, 0, len(members))}
	keys := make([]string, 0, len(members))

	master := members[0]
	for _, idx := range members {
		inst := institutions[idx]
		group.Members = append(group.Members, inst)
		group.TotalEquipment += inst.EquipmentCount
		keys = append(keys, inst.Key)
		// members is ascending, so strict > keeps the earliest on ties
		if inst.EquipmentCount > institutions[master].EquipmentCount {
			master = idx
		}
	}
	group.Master = institutions[master]
	group.AverageSimilarity = round(stat.Mean(scores, nil), 4)
	group.ConfidenceTier = groupTier(group.AverageSimilarity)
	group.GroupID = uuid.NewSHA1(groupNamespace, []byte(strings.Join(keys, "\x1f"))).String()
	return group
}

func groupTier(avg float64) Tier {
	switch {
	case avg >= highGroupFloor:
		return TierHigh
	case avg >= mediumGroupFloor:
		return TierMedium
	default:
		return TierLow
	}
}

// SortInstitutions orders institutions by name, province, district and key
// in place. The sort is stable.
func SortInstitutions(institutions []TargetInstitution) {
	sort.SliceStable(institutions, func(i, j int) bool {
		a, b := institutions[i], institutions[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Province != b.Province {
			return a.Province < b.Province
		}
		if a.District != b.District {
			return a.District < b.District
		}
		return a.Key < b.Key
	})
}
