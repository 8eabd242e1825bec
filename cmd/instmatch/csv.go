package main

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/TFMV/InstitutionMatchPro/internal/matcher"
	"github.com/pkg/errors"
)

// csvRows reads a CSV file with a header row into maps keyed by the
// lower-cased column name. Every column in required must be present.
func csvRows(path string, required ...string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading CSV header of %s", path)
	}
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	for _, col := range required {
		found := false
		for _, h := range headers {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("%s: missing column %q", path, col)
		}
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error reading %s", path)
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			row[h] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readTargets(path string) ([]matcher.TargetInstitution, error) {
	rows, err := csvRows(path, "key", "name")
	if err != nil {
		return nil, err
	}
	targets := make([]matcher.TargetInstitution, 0, len(rows))
	for i, row := range rows {
		t := matcher.TargetInstitution{
			Key:         row["key"],
			Name:        row["name"],
			Province:    row["province"],
			District:    row["district"],
			Category:    row["category"],
			SubCategory: row["sub_category"],
			AddressHint: row["address_hint"],
		}
		if t.Year, err = optionalInt(row["year"]); err != nil {
			return nil, errors.Wrapf(err, "%s line %d: year", path, i+2)
		}
		if t.EquipmentCount, err = optionalInt(row["equipment_count"]); err != nil {
			return nil, errors.Wrapf(err, "%s line %d: equipment_count", path, i+2)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func readEquipment(path string) ([]matcher.EquipmentRecord, error) {
	rows, err := csvRows(path, "installed_institution_name")
	if err != nil {
		return nil, err
	}
	records := make([]matcher.EquipmentRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, matcher.EquipmentRecord{
			ManagementNumber:         row["management_number"],
			InstalledInstitutionName: row["installed_institution_name"],
			InstalledAddress:         row["installed_address"],
			Province:                 row["province"],
			District:                 row["district"],
			Serial:                   row["serial"],
		})
	}
	return records, nil
}

func optionalInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
