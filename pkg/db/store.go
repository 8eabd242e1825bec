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

package db

import (
	"context"
	"sort"

	"github.com/TFMV/InstitutionMatchPro/internal/matcher"
	"github.com/TFMV/InstitutionMatchPro/internal/standardizer"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Rule scopes in the normalization_rules table.
const (
	ScopeName    = "name"
	ScopeAddress = "address"
)

// Store reads and writes registry data in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store on an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ActiveRules loads the active rules of one scope.
func (s *Store) ActiveRules(ctx context.Context, scope string) ([]standardizer.Rule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, kind, priority, pattern, replacement, literals, replacements
		FROM normalization_rules
		WHERE scope = $1 AND active
		ORDER BY priority DESC, name`, scope)
	if err != nil {
		return nil, errors.Wrap(err, "query normalization rules")
	}
	defer rows.Close()

	var rules []standardizer.Rule
	for rows.Next() {
		var (
			r    standardizer.Rule
			kind string
		)
		if err := rows.Scan(&r.Name, &kind, &r.Priority, &r.Pattern, &r.Replacement, &r.Literals, &r.Replacements); err != nil {
			return nil, errors.Wrap(err, "scan normalization rule")
		}
		if r.Kind, err = standardizer.ParseKind(kind); err != nil {
			return nil, errors.Wrapf(err, "rule %q", r.Name)
		}
		r.Active = true
		rules = append(rules, r)
	}
	return rules, errors.Wrap(rows.Err(), "read normalization rules")
}

// provinceFilter lists the stored spellings that match a requested province.
// An empty list matches every province.
func provinceFilter(province string) []string {
	spellings := standardizer.ProvinceSpellings(province)
	if spellings == nil {
		return []string{}
	}
	return spellings
}

// TargetInstitutions loads the targets of a year in a region ordered by name,
// province, district and key. Any spelling of the province matches. Empty
// province or district match everything.
// At most limit rows are returned when limit is positive.
func (s *Store) TargetInstitutions(ctx context.Context, year int, province, district string, limit int) ([]matcher.TargetInstitution, error) {
	query := `
		SELECT year, key, name, province, district, category, sub_category, address_hint, equipment_count
		FROM target_institutions
		WHERE year = $1
		  AND (cardinality($2::text[]) = 0 OR province = ANY($2::text[]))
		  AND ($3::text = '' OR district = $3)
		ORDER BY name, province, district, key`
	args := []any{year, provinceFilter(province), district}
	if limit > 0 {
		query += " LIMIT $4"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query target institutions")
	}
	targets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (matcher.TargetInstitution, error) {
		var t matcher.TargetInstitution
		err := row.Scan(&t.Year, &t.Key, &t.Name, &t.Province, &t.District, &t.Category, &t.SubCategory, &t.AddressHint, &t.EquipmentCount)
		return t, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "read target institutions")
	}
	return targets, nil
}

// EquipmentRecords loads the installed equipment of a region.
func (s *Store) EquipmentRecords(ctx context.Context, province, district string) ([]matcher.EquipmentRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT management_number, installed_institution_name, installed_address, province, district, serial
		FROM equipment_records
		WHERE (cardinality($1::text[]) = 0 OR province = ANY($1::text[]))
		  AND ($2::text = '' OR district = $2)
		ORDER BY management_number, id`, provinceFilter(province), district)
	if err != nil {
		return nil, errors.Wrap(err, "query equipment records")
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (matcher.EquipmentRecord, error) {
		var e matcher.EquipmentRecord
		err := row.Scan(&e.ManagementNumber, &e.InstalledInstitutionName, &e.InstalledAddress, &e.Province, &e.District, &e.Serial)
		return e, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "read equipment records")
	}
	return records, nil
}

// ConfirmedMatches loads the reviewer-confirmed matches of a year keyed by
// target key.
func (s *Store) ConfirmedMatches(ctx context.Context, year int) (map[string]matcher.MatchCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT target_key, management_number, institution_name, confidence
		FROM confirmed_matches
		WHERE year = $1`, year)
	if err != nil {
		return nil, errors.Wrap(err, "query confirmed matches")
	}
	defer rows.Close()

	confirmed := make(map[string]matcher.MatchCandidate)
	for rows.Next() {
		var (
			targetKey, number, name string
			confidence              float64
		)
		if err := rows.Scan(&targetKey, &number, &name, &confidence); err != nil {
			return nil, errors.Wrap(err, "scan confirmed match")
		}
		confirmed[targetKey] = confirmedMatch(targetKey, number, name, confidence)
	}
	return confirmed, errors.Wrap(rows.Err(), "read confirmed matches")
}

// confirmedMatch rebuilds a stored confirmation. Only the confidence the
// reviewer saw is stored, so the reason stays empty.
func confirmedMatch(targetKey, number, name string, confidence float64) matcher.MatchCandidate {
	return matcher.MatchCandidate{
		TargetKey:        targetKey,
		ManagementNumber: number,
		InstitutionName:  name,
		Confidence:       confidence,
		Confirmed:        true,
	}
}

// SaveConfirmation records a reviewer's confirmation, replacing any earlier
// confirmation of the same target.
func (s *Store) SaveConfirmation(ctx context.Context, year int, match matcher.MatchCandidate, reviewer string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO confirmed_matches (year, target_key, management_number, institution_name, confidence, confirmed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (year, target_key) DO UPDATE
		SET management_number = EXCLUDED.management_number,
		    institution_name = EXCLUDED.institution_name,
		    confidence = EXCLUDED.confidence,
		    confirmed_by = EXCLUDED.confirmed_by,
		    confirmed_at = now()`,
		year, match.TargetKey, match.ManagementNumber, match.InstitutionName, match.Confidence, reviewer)
	return errors.Wrap(err, "save confirmed match")
}

// Provinces lists the provinces that have targets in a year by short name.
func (s *Store) Provinces(ctx context.Context, year int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT province FROM target_institutions WHERE year = $1 ORDER BY province`, year)
	if err != nil {
		return nil, errors.Wrap(err, "query provinces")
	}
	stored, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "read provinces")
	}
	return canonicalProvinces(stored), nil
}

// canonicalProvinces folds stored spellings into sorted, distinct short names.
func canonicalProvinces(stored []string) []string {
	seen := make(map[string]bool, len(stored))
	provinces := make([]string, 0, len(stored))
	for _, p := range stored {
		short := standardizer.CanonicalProvince(p)
		if short == "" || seen[short] {
			continue
		}
		seen[short] = true
		provinces = append(provinces, short)
	}
	sort.Strings(provinces)
	return provinces
}
