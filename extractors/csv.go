package extractors

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"epi-etl/batch"

	"go.uber.org/zap"
)

// dateLayouts deckt die Formate beider Quellen ab (ISO bei OWID, US-Format in älteren Kaggle-Exporten).
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseDate parst ein Datum in einem der bekannten Formate und normiert es auf Mitternacht UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.New("unrecognised date format")
}

// ReadCSV liest CSV-Daten gegen die geforderten Spalten.
// Zusätzliche Spalten werden ignoriert, leere Zahlen werden 0, komplett leere Zeilen
// und exakte Duplikate werden verworfen.
func ReadCSV(r io.Reader, source string, columns []batch.Column, logger *zap.Logger) (*batch.Batch, error) {
	log := logger.With(zap.String("source", source))

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &SchemaError{Source: source, Reason: "empty file"}
	}
	if err != nil {
		return nil, err
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		// BOM am Dateianfang entfernen
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		pos[h] = i
	}
	for _, c := range columns {
		if _, ok := pos[c.Name]; !ok {
			return nil, &SchemaError{Source: source, Column: c.Name, Reason: "missing required column"}
		}
	}

	out := batch.New(columns...)
	seen := map[string]bool{}
	line := 1
	total, empty, duplicates := 0, 0, 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		total++

		if isEmptyRecord(record) {
			empty++
			continue
		}

		values := make([]batch.Value, len(columns))
		for i, c := range columns {
			raw := ""
			if p := pos[c.Name]; p < len(record) {
				raw = strings.TrimSpace(record[p])
			}
			v, err := parseCell(raw, c.Kind)
			if err != nil {
				return nil, &SchemaError{Source: source, Column: c.Name, Row: line, Reason: err.Error()}
			}
			values[i] = v
		}
		key := batch.Key(values)
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true
		if err := out.Append(values...); err != nil {
			return nil, err
		}
	}

	log.Info("Extract finished",
		zap.Int("raw_rows", total),
		zap.Int("valid_rows", out.Len()),
		zap.Int("empty_rows", empty),
		zap.Int("duplicates_removed", duplicates))
	return out, nil
}

func parseCell(raw string, kind batch.Kind) (batch.Value, error) {
	switch kind {
	case batch.Number:
		if raw == "" {
			return batch.NumberValue(0), nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return batch.Value{}, errors.New("not a number: " + strconv.Quote(raw))
		}
		return batch.NumberValue(f), nil
	case batch.Date:
		t, err := ParseDate(raw)
		if err != nil {
			return batch.Value{}, errors.New("not a date: " + strconv.Quote(raw))
		}
		return batch.DateValue(t), nil
	default:
		return batch.TextValue(raw), nil
	}
}

func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
