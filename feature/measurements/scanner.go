package measurements

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"measurement-extractor/core/reconcile"
	"measurement-extractor/core/utils"
)

// Record stream column names.
const (
	ColumnValue     = "VALUENUM"
	ColumnAdmission = "HADM_ID"
	ColumnItem      = "ITEMID"
	ColumnUnit      = "VALUEUOM"
	ColumnError     = "ERROR"
)

// RequiredColumns must all be present in the header.
var RequiredColumns = []string{ColumnValue, ColumnAdmission, ColumnItem, ColumnUnit}

// cancelCheckInterval is how many rows are read between context checks.
const cancelCheckInterval = 4096

// ScanStats summarizes one pass over a record stream.
type ScanStats struct {
	// RecordsScanned counts data rows, error-flagged rows excluded.
	RecordsScanned int `json:"records_scanned"`
	// RowsExamined counts every data row read, error-flagged rows included.
	RowsExamined int `json:"rows_examined"`
	// ErrorRows counts rows skipped for a set error flag.
	ErrorRows int `json:"error_rows"`
	// MatchedRows counts rows whose item was requested.
	MatchedRows int `json:"matched_rows"`
	// ItemsObserved lists requested items seen at least once, in first-seen order.
	ItemsObserved []string `json:"items_observed"`
	// CutoffReached is true when the row limit stopped the scan.
	CutoffReached bool `json:"cutoff_reached"`
}

type columns struct {
	value, admission, item, unit int
	errFlag                      int
}

func locateColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	cols := columns{
		value:     lookup(ColumnValue),
		admission: lookup(ColumnAdmission),
		item:      lookup(ColumnItem),
		unit:      lookup(ColumnUnit),
		errFlag:   -1,
	}
	if len(missing) > 0 {
		return columns{}, &SchemaError{Missing: missing}
	}
	if i, ok := index[ColumnError]; ok {
		cols.errFlag = i
	}
	return cols, nil
}

// Scan reads the record stream once and accumulates observations of the requested items.
// maxRows > 0 stops after exactly that many data rows have been examined.
func Scan(ctx context.Context, r io.Reader, items *reconcile.Items, maxRows int) (*reconcile.Admissions, ScanStats, error) {
	var stats ScanStats

	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, &SchemaError{Missing: RequiredColumns}
		}
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, stats, err
	}

	adms := reconcile.NewAdmissions()
	seen := make(map[string]struct{}, items.Len())

	for {
		if stats.RowsExamined%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read row %d: %w", stats.RowsExamined+1, err)
		}
		stats.RowsExamined++

		if cols.errFlag >= 0 && utils.IsFlagSet(row[cols.errFlag]) {
			stats.ErrorRows++
		} else {
			stats.RecordsScanned++

			itemID := row[cols.item]
			if items.Has(itemID) {
				stats.MatchedRows++
				if _, ok := seen[itemID]; !ok {
					seen[itemID] = struct{}{}
					stats.ItemsObserved = append(stats.ItemsObserved, itemID)
				}
				adms.Add(row[cols.admission], itemID, reconcile.Observation{
					Value: row[cols.value],
					Unit:  reconcile.NormalizeUnit(row[cols.unit]),
				})
			}
		}

		if maxRows > 0 && stats.RowsExamined >= maxRows {
			stats.CutoffReached = true
			break
		}
	}

	return adms, stats, nil
}
