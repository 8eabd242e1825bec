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
	"sort"

	"github.com/TFMV/InstitutionMatchPro/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// MinConfidence is the lowest confidence a candidate may have to be kept.
	MinConfidence = 50.0
	// MaxCandidates caps the candidates returned per target.
	MaxCandidates = 10

	highTierFloor   = 90.0
	mediumTierFloor = 60.0
)

// ErrNilTargets is returned when MatchAll is called without a target list.
var ErrNilTargets = errors.New("target institutions must not be nil")

// Matcher ranks equipment records against target institutions.
type Matcher struct {
	scorer        *Scorer
	shortlistSize int
	logger        *zap.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithShortlist enables TF-IDF pre-ranking when a target has more than size
// candidates. Zero disables it.
func WithShortlist(size int) Option {
	return func(m *Matcher) {
		if size > 0 {
			m.shortlistSize = size
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMatcher creates a Matcher.
func NewMatcher(scorer *Scorer, opts ...Option) *Matcher {
	m := &Matcher{scorer: scorer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Scorer returns the scorer shared with the grouping engine.
func (m *Matcher) Scorer() *Scorer {
	return m.scorer
}

// MatchTarget scores candidates against one target. A confirmed prior match is
// returned on its own without scoring. Otherwise candidates below
// MinConfidence are dropped and at most MaxCandidates are returned, best
// first, ties ordered by management number.
func (m *Matcher) MatchTarget(target TargetInstitution, candidates []EquipmentRecord, confirmed *MatchCandidate) []MatchCandidate {
	if confirmed != nil && confirmed.Confirmed {
		prior := *confirmed
		prior.TargetKey = target.Key
		return []MatchCandidate{prior}
	}
	if m.scorer.NormalizeName(target.Name) == "" || len(candidates) == 0 {
		return []MatchCandidate{}
	}

	if m.shortlistSize > 0 && len(candidates) > m.shortlistSize {
		before := len(candidates)
		candidates = m.shortlist(target, candidates, m.shortlistSize)
		m.logger.Debug("shortlisted candidates",
			zap.String("target", target.Key),
			zap.Int("before", before),
			zap.Int("after", len(candidates)))
	}

	results := make([]MatchCandidate, 0, len(candidates))
	for _, c := range candidates {
		conf := m.scorer.MatchConfidence(target.Name, target.AddressHint, c.InstalledInstitutionName, c.InstalledAddress)
		if conf.Confidence < MinConfidence {
			continue
		}
		results = append(results, MatchCandidate{
			TargetKey:        target.Key,
			ManagementNumber: c.ManagementNumber,
			InstitutionName:  c.InstalledInstitutionName,
			Confidence:       conf.Confidence,
			Reason:           Reason{Name: conf.NameScore, Address: conf.AddressScore},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].ManagementNumber < results[j].ManagementNumber
	})
	if len(results) > MaxCandidates {
		results = results[:MaxCandidates]
	}
	return results
}

// ClassifyTier buckets a ranked candidate list by its best confidence.
func ClassifyTier(candidates []MatchCandidate) Tier {
	if len(candidates) == 0 {
		return TierUnmatched
	}
	best := candidates[0].Confidence
	for _, c := range candidates[1:] {
		if c.Confidence > best {
			best = c.Confidence
		}
	}
	switch {
	case best >= highTierFloor:
		return TierHigh
	case best >= mediumTierFloor:
		return TierMedium
	default:
		return TierLow
	}
}

// TargetMatch is the ranked candidate list of one target.
type TargetMatch struct {
	Target     TargetInstitution `json:"target"`
	Candidates []MatchCandidate  `json:"candidates"`
	Tier       Tier              `json:"tier"`
}

// MatchSummary counts a MatchReport by outcome.
type MatchSummary struct {
	Total     int          `json:"total"`
	Matched   int          `json:"matched"`
	Unmatched int          `json:"unmatched"`
	MatchRate float64      `json:"match_rate"`
	Tiers     map[Tier]int `json:"tiers"`
}

// MatchReport is the result of matching a target list.
type MatchReport struct {
	Matches []TargetMatch `json:"matches"`
	Summary MatchSummary  `json:"summary"`
}

// CandidateSource returns the equipment records a target is compared with.
type CandidateSource func(TargetInstitution) []EquipmentRecord

// AllCandidates compares every target with the same equipment list.
func AllCandidates(records []EquipmentRecord) CandidateSource {
	return func(TargetInstitution) []EquipmentRecord { return records }
}

// MatchAll matches every target in order. confirmed maps target keys to
// reviewer-confirmed matches and may be nil.
func (m *Matcher) MatchAll(targets []TargetInstitution, candidatesFor CandidateSource, confirmed map[string]MatchCandidate) (MatchReport, error) {
	if targets == nil {
		return MatchReport{}, ErrNilTargets
	}
	if candidatesFor == nil {
		candidatesFor = AllCandidates(nil)
	}

	report := MatchReport{
		Matches: make([]TargetMatch, 0, len(targets)),
		Summary: MatchSummary{
			Total: len(targets),
			Tiers: map[Tier]int{TierHigh: 0, TierMedium: 0, TierLow: 0, TierUnmatched: 0},
		},
	}
	for _, target := range targets {
		var prior *MatchCandidate
		if c, ok := confirmed[target.Key]; ok {
			prior = &c
		}
		candidates := m.MatchTarget(target, candidatesFor(target), prior)
		tier := ClassifyTier(candidates)

		report.Matches = append(report.Matches, TargetMatch{Target: target, Candidates: candidates, Tier: tier})
		report.Summary.Tiers[tier]++
		if tier == TierUnmatched {
			report.Summary.Unmatched++
		} else {
			report.Summary.Matched++
		}
		metrics.TargetsMatched.WithLabelValues(string(tier)).Inc()
	}
	if report.Summary.Total > 0 {
		report.Summary.MatchRate = round(float64(report.Summary.Matched)/float64(report.Summary.Total)*100, 2)
	}

	m.logger.Debug("matched targets",
		zap.Int("total", report.Summary.Total),
		zap.Int("matched", report.Summary.Matched))
	return report, nil
}

// FilterByTier keeps the matches in the given tier.
func FilterByTier(matches []TargetMatch, tier Tier) []TargetMatch {
	filtered := make([]TargetMatch, 0, len(matches))
	for _, tm := range matches {
		if tm.Tier == tier {
			filtered = append(filtered, tm)
		}
	}
	return filtered
}
