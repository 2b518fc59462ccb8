package eventlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"aat-go/internal/models"
)

// Canonical column names, applied positionally.
const (
	ColEventType = "EventType"
	ColTimeStamp = "TimeStamp"
	ColEventData = "EventData"
	ColDetail1   = "Detail1"
)

// CanonicalColumns is the full positional schema. A file only gets as many of
// these names as it has surviving columns.
var CanonicalColumns = []string{
	ColEventType, ColTimeStamp, ColEventData,
	ColDetail1, "Detail2", "Detail3", "Detail4", "Detail5", "Detail6",
	"Detail7", "Detail8", "Detail9", "Detail10", "Detail11",
}

// Table is a parsed log with canonical column names. Every row has
// len(Columns) cells.
type Table struct {
	Columns     []string
	Rows        [][]string
	SkippedRows int
	index       map[string]int
}

// ParseTable parses each line as one comma delimited record. Records the
// grammar rejects are skipped; the table only fails when none survive.
func ParseTable(lines []string) (*Table, error) {
	return parseTable(0, lines)
}

// ParseWithHeader parses the records that follow a header line. The header
// only contributes its width; columns are still named positionally.
func ParseWithHeader(header string, lines []string) (*Table, error) {
	return parseTable(headerWidth(header), lines)
}

func headerWidth(header string) int {
	if record, err := parseRecord(header); err == nil {
		return len(record)
	}
	return strings.Count(header, ",") + 1
}

func parseTable(minWidth int, lines []string) (*Table, error) {
	var (
		rows    [][]string
		skipped int
		width   = minWidth
		lastErr error
	)
	for _, line := range lines {
		record, err := parseRecord(line)
		if err != nil {
			skipped++
			lastErr = err
			continue
		}
		if len(record) > width {
			width = len(record)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, newError(KindParse, "parse table",
			"all %d records rejected, last: %v: %w", skipped, lastErr, ErrParse)
	}

	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}

	t := &Table{Rows: dropEmptyColumns(rows, width), SkippedRows: skipped}
	if len(t.Rows) > 0 {
		t.Columns = canonicalNames(len(t.Rows[0]))
	}
	t.index = make(map[string]int, len(t.Columns))
	for i, name := range t.Columns {
		t.index[name] = i
	}
	return t, nil
}

func parseRecord(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	// A quoted field may hide a line break; one line must be one record.
	if _, err := r.Read(); err != io.EOF {
		return nil, fmt.Errorf("line holds more than one record")
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record, nil
}

func dropEmptyColumns(rows [][]string, width int) [][]string {
	keep := make([]int, 0, width)
	for col := 0; col < width; col++ {
		for _, row := range rows {
			if row[col] != "" {
				keep = append(keep, col)
				break
			}
		}
	}
	if len(keep) == width {
		return rows
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		narrowed := make([]string, len(keep))
		for j, col := range keep {
			narrowed[j] = row[col]
		}
		out[i] = narrowed
	}
	return out
}

func canonicalNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		if i < len(CanonicalColumns) {
			names[i] = CanonicalColumns[i]
		} else {
			names[i] = fmt.Sprintf("Extra%d", i+1)
		}
	}
	return names
}

// Column returns the position of a named column.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Records returns the typed view of the rows. Missing canonical columns are
// left empty; callers check Column first.
func (t *Table) Records() []models.RawRecord {
	get := func(row []string, name string) string {
		if i, ok := t.index[name]; ok {
			return row[i]
		}
		return ""
	}
	detailStart, hasDetails := t.index[ColDetail1]
	detailEnd := len(t.Columns)
	if detailEnd > len(CanonicalColumns) {
		detailEnd = len(CanonicalColumns)
	}

	records := make([]models.RawRecord, len(t.Rows))
	for i, row := range t.Rows {
		rec := models.RawRecord{
			EventType: get(row, ColEventType),
			TimeStamp: get(row, ColTimeStamp),
			EventData: get(row, ColEventData),
		}
		if hasDetails {
			rec.Details = append([]string(nil), row[detailStart:detailEnd]...)
		}
		records[i] = rec
	}
	return records
}
