package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LoadCSV reads an indicator table from a CSV file. The first column must be
// the bar timestamp; remaining columns become table columns. Cells parse as
// booleans ("true"/"false"), then as floats; empty and unparseable cells are
// recorded as missing.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a table from CSV content. See LoadCSV for the format.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read table header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("table header needs a time column plus at least one data column, got %d columns", len(header))
	}

	table := NewTable()
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read table row %d: %w", table.Len()+1, err)
		}

		ts, err := parseCSVTime(rec[0])
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q on row %d: %w", rec[0], table.Len()+1, err)
		}

		row := make(Row, len(header)-1)
		for i := 1; i < len(header) && i < len(rec); i++ {
			row[header[i]] = parseCSVCell(rec[i])
		}
		table.Append(ts, row)
	}

	return table, nil
}

func parseCSVTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range csvTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	// Unix seconds as a last resort
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func parseCSVCell(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing()
	}
	switch strings.ToLower(s) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "nan":
		return Missing()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing()
	}
	return Number(f)
}
