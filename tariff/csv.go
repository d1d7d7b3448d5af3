/*
csv.go - Tabular tier import

PURPOSE:
  Parses the tier upload format: a CSV with a header row and two columns,
  km (positive integer) and importo_base (positive decimal). Every invalid
  row is collected into one aggregate report; a file with any bad row
  applies nothing.

FORMAT:
  km,importo_base
  12,10.50
  15,12.00
  ...

  The second column header also accepts "base_amount" for files exported
  from the reporting spreadsheet.

SEE ALSO:
  - store.go: ReplaceTiers consumes the parsed entries atomically
  - api/handlers.go: upload and template-download endpoints
*/
package tariff

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IMPORT ERRORS - per-row, aggregated
// =============================================================================

// RowError describes one rejected CSV row.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ImportError aggregates every rejected row of one upload.
type ImportError struct {
	Rows []RowError
}

func (e *ImportError) Error() string {
	if len(e.Rows) == 1 {
		return "tier import rejected: " + e.Rows[0].Error()
	}
	return fmt.Sprintf("tier import rejected: %d invalid rows (first: %s)",
		len(e.Rows), e.Rows[0].Error())
}

// =============================================================================
// PARSING
// =============================================================================

// ParseTiersCSV reads the upload format and returns validated entries.
// On any invalid row it returns (nil, *ImportError) listing every problem,
// so the caller can show the full report and apply nothing.
func ParseTiersCSV(r io.Reader) ([]TierEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ImportError{Rows: []RowError{{Line: 0, Message: "malformed CSV: " + err.Error()}}}
	}
	if len(records) == 0 {
		return nil, &ImportError{Rows: []RowError{{Line: 0, Message: "empty file"}}}
	}

	start := 0
	if isHeaderRow(records[0]) {
		start = 1
	}

	var (
		entries []TierEntry
		rowErrs []RowError
		seen    = make(map[int]int) // km -> first line
	)

	for i, record := range records[start:] {
		line := start + i + 1
		if len(record) < 2 {
			rowErrs = append(rowErrs, RowError{Line: line, Message: "expected 2 columns (km, importo_base)"})
			continue
		}

		km, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("km %q is not an integer", record[0])})
			continue
		}
		if km <= 0 {
			rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("km %d must be positive", km)})
			continue
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(record[1]))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("amount %q is not a number", record[1])})
			continue
		}
		if !amount.IsPositive() {
			rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("amount %s must be positive", amount)})
			continue
		}

		if firstLine, dup := seen[km]; dup {
			rowErrs = append(rowErrs, RowError{Line: line, Message: fmt.Sprintf("km %d already defined on line %d", km, firstLine)})
			continue
		}
		seen[km] = line

		entries = append(entries, TierEntry{Km: km, BaseAmount: amount})
	}

	if len(rowErrs) > 0 {
		return nil, &ImportError{Rows: rowErrs}
	}
	if len(entries) == 0 {
		return nil, &ImportError{Rows: []RowError{{Line: 0, Message: "no data rows"}}}
	}
	return entries, nil
}

func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "km"
}

// TemplateCSV returns the downloadable import template: the header plus the
// standard ladder from 12 to 200 km with blank amounts to fill in.
func TemplateCSV() string {
	var b strings.Builder
	b.WriteString("km,importo_base\n")
	b.WriteString("12,\n")
	for km := 15; km <= TieredCeilingKm; km += 5 {
		fmt.Fprintf(&b, "%d,\n", km)
	}
	return b.String()
}
