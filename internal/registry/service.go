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

// Package registry runs the matching and grouping engines over region-scoped
// slices of the institution registry.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/TFMV/InstitutionMatchPro/internal/matcher"
	"github.com/TFMV/InstitutionMatchPro/internal/standardizer"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrInvalidRequest wraps every validation failure of a query or confirmation.
var ErrInvalidRequest = errors.New("invalid request")

// Store is the registry data the service reads and writes.
type Store interface {
	TargetInstitutions(ctx context.Context, year int, province, district string, limit int) ([]matcher.TargetInstitution, error)
	EquipmentRecords(ctx context.Context, province, district string) ([]matcher.EquipmentRecord, error)
	ConfirmedMatches(ctx context.Context, year int) (map[string]matcher.MatchCandidate, error)
	SaveConfirmation(ctx context.Context, year int, match matcher.MatchCandidate, reviewer string) error
	Provinces(ctx context.Context, year int) ([]string, error)
}

// RegionQuery selects the targets of one year in a province and optionally a
// district.
type RegionQuery struct {
	Year     int    `form:"year" json:"year" validate:"required,gte=2000,lte=2100"`
	Province string `form:"province" json:"province" validate:"required"`
	District string `form:"district" json:"district,omitempty"`
	Tier     string `form:"tier" json:"tier,omitempty" validate:"omitempty,oneof=high medium low unmatched"`
}

// Confirmation is a reviewer's decision that an equipment record belongs to
// a target.
type Confirmation struct {
	Year             int     `json:"year" validate:"required,gte=2000,lte=2100"`
	TargetKey        string  `json:"target_key" validate:"required"`
	ManagementNumber string  `json:"management_number" validate:"required"`
	InstitutionName  string  `json:"institution_name"`
	Confidence       float64 `json:"confidence" validate:"gte=0,lte=100"`
	Reviewer         string  `json:"-" validate:"required"`
}

// RegionGroups is the grouping result of one region with its statistics.
type RegionGroups struct {
	Province string              `json:"province"`
	District string              `json:"district,omitempty"`
	Result   matcher.GroupResult `json:"result"`
	Stats    matcher.Stats       `json:"stats"`
}

// Options tunes a Service.
type Options struct {
	MaxTargets int
	Workers    int
	Logger     *zap.Logger
}

// Service loads region data from the store and runs the engines on it.
type Service struct {
	store      Store
	matcher    *matcher.Matcher
	grouper    *matcher.Grouper
	maxTargets int
	workers    int
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewService creates a Service.
func NewService(store Store, m *matcher.Matcher, g *matcher.Grouper, opts Options) *Service {
	s := &Service{
		store:      store,
		matcher:    m,
		grouper:    g,
		maxTargets: opts.MaxTargets,
		workers:    opts.Workers,
		validate:   validator.New(),
		logger:     opts.Logger,
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *Service) check(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return errors.Wrap(ErrInvalidRequest, err.Error())
	}
	return nil
}

// loadTargets reads the region's targets capped at maxTargets.
func (s *Service) loadTargets(ctx context.Context, year int, province, district string) ([]matcher.TargetInstitution, error) {
	targets, err := s.store.TargetInstitutions(ctx, year, province, district, s.maxTargets)
	if err != nil {
		return nil, errors.Wrap(err, "load targets")
	}
	if targets == nil {
		targets = []matcher.TargetInstitution{}
	}
	if s.maxTargets > 0 && len(targets) >= s.maxTargets {
		s.logger.Warn("target list reached the row limit",
			zap.Int("year", year),
			zap.String("province", province),
			zap.String("district", district),
			zap.Int("limit", s.maxTargets))
	}
	return targets, nil
}

// MatchRegion matches the targets of a region against the equipment installed
// in the same province and district. A tier in the query keeps only targets
// in that tier; the summary always covers every target.
func (s *Service) MatchRegion(ctx context.Context, q RegionQuery) (matcher.MatchReport, error) {
	if err := s.check(q); err != nil {
		return matcher.MatchReport{}, err
	}

	targets, err := s.loadTargets(ctx, q.Year, q.Province, q.District)
	if err != nil {
		return matcher.MatchReport{}, err
	}
	equipment, err := s.store.EquipmentRecords(ctx, q.Province, q.District)
	if err != nil {
		return matcher.MatchReport{}, errors.Wrap(err, "load equipment")
	}
	confirmed, err := s.store.ConfirmedMatches(ctx, q.Year)
	if err != nil {
		return matcher.MatchReport{}, errors.Wrap(err, "load confirmed matches")
	}

	report, err := s.matcher.MatchAll(targets, RegionCandidates(equipment), confirmed)
	if err != nil {
		return matcher.MatchReport{}, err
	}
	if tier, ok := matcher.ParseTier(q.Tier); ok {
		report.Matches = matcher.FilterByTier(report.Matches, tier)
	}

	s.logger.Info("matched region",
		zap.Int("year", q.Year),
		zap.String("province", q.Province),
		zap.String("district", q.District),
		zap.Int("targets", report.Summary.Total),
		zap.Int("matched", report.Summary.Matched))
	return report, nil
}

type regionKey struct {
	province string
	district string
}

// RegionCandidates indexes equipment by province and district so a target
// only sees records from its own region. A target without a district sees its
// whole province.
func RegionCandidates(records []matcher.EquipmentRecord) matcher.CandidateSource {
	byDistrict := make(map[regionKey][]matcher.EquipmentRecord)
	byProvince := make(map[string][]matcher.EquipmentRecord)
	for _, r := range records {
		province := standardizer.CanonicalProvince(r.Province)
		district := strings.TrimSpace(r.District)
		byDistrict[regionKey{province, district}] = append(byDistrict[regionKey{province, district}], r)
		byProvince[province] = append(byProvince[province], r)
	}
	return func(t matcher.TargetInstitution) []matcher.EquipmentRecord {
		province := standardizer.CanonicalProvince(t.Province)
		district := strings.TrimSpace(t.District)
		if district == "" {
			return byProvince[province]
		}
		return byDistrict[regionKey{province, district}]
	}
}

// GroupRegion groups the targets of one region.
func (s *Service) GroupRegion(ctx context.Context, q RegionQuery, threshold float64) (RegionGroups, error) {
	if err := s.check(q); err != nil {
		return RegionGroups{}, err
	}
	return s.groupRegion(ctx, q.Year, q.Province, q.District, threshold)
}

func (s *Service) groupRegion(ctx context.Context, year int, province, district string, threshold float64) (RegionGroups, error) {
	targets, err := s.loadTargets(ctx, year, province, district)
	if err != nil {
		return RegionGroups{}, err
	}
	matcher.SortInstitutions(targets)

	result, err := s.grouper.Group(targets, threshold)
	if err != nil {
		return RegionGroups{}, err
	}
	return RegionGroups{
		Province: province,
		District: district,
		Result:   result,
		Stats:    matcher.GroupStats(result.Groups, result.Ungrouped),
	}, nil
}

// GroupProvinces groups every listed province of a year, one province per
// worker. With no provinces listed every province in the store is grouped.
// Results are ordered by province.
func (s *Service) GroupProvinces(ctx context.Context, year int, provinces []string, threshold float64) ([]RegionGroups, error) {
	if year < 2000 || year > 2100 {
		return nil, errors.Wrapf(ErrInvalidRequest, "year %d out of range", year)
	}
	if len(provinces) == 0 {
		var err error
		if provinces, err = s.store.Provinces(ctx, year); err != nil {
			return nil, errors.Wrap(err, "load provinces")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  = make([]RegionGroups, 0, len(provinces))
		firstErr error
	)

	workers := s.workers
	if workers > len(provinces) {
		workers = len(provinces)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for province := range jobs {
				rg, err := s.groupRegion(ctx, year, province, "", threshold)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = errors.Wrapf(err, "group %s", province)
						cancel()
					}
				} else {
					results = append(results, rg)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, p := range provinces {
		select {
		case jobs <- p:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Province < results[j].Province })
	return results, nil
}

// ConfirmMatch stores a reviewer confirmation. Later matching runs return the
// confirmed record for the target without scoring.
func (s *Service) ConfirmMatch(ctx context.Context, c Confirmation) error {
	if err := s.check(c); err != nil {
		return err
	}
	match := matcher.MatchCandidate{
		TargetKey:        c.TargetKey,
		ManagementNumber: c.ManagementNumber,
		InstitutionName:  c.InstitutionName,
		Confidence:       c.Confidence,
		Confirmed:        true,
	}
	if err := s.store.SaveConfirmation(ctx, c.Year, match, c.Reviewer); err != nil {
		return errors.Wrap(err, "save confirmation")
	}
	s.logger.Info("match confirmed",
		zap.Int("year", c.Year),
		zap.String("target", c.TargetKey),
		zap.String("management_number", c.ManagementNumber),
		zap.String("reviewer", c.Reviewer))
	return nil
}
