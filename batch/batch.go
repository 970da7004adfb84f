// Package batch enthält die tabellarische Austauschstruktur zwischen Extraktion,
// Transformation und Laden.
package batch

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Kind ist der Typ einer Spalte.
type Kind int

const (
	Text Kind = iota
	Number
	Date
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	case Date:
		return "date"
	default:
		return "unknown"
	}
}

// Column beschreibt eine typisierte Spalte.
type Column struct {
	Name string
	Kind Kind
}

// Value ist eine einzelne Zelle. Nur das Feld passend zu Kind ist belegt.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Date   time.Time
}

func TextValue(s string) Value { return Value{Kind: Text, Text: s} }
func NumberValue(f float64) Value { return Value{Kind: Number, Number: f} }
func DateValue(t time.Time) Value { return Value{Kind: Date, Date: t} }

func (v Value) key() string {
	switch v.Kind {
	case Text:
		return v.Text
	case Number:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	default:
		return v.Date.Format(time.RFC3339Nano)
	}
}

// Batch ist eine geordnete Tabelle mit typisierten Spalten.
type Batch struct {
	columns []Column
	index   map[string]int
	rows    [][]Value
}

// New erstellt einen leeren Batch mit den gegebenen Spalten.
func New(columns ...Column) *Batch {
	b := &Batch{
		columns: append([]Column(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		b.index[c.Name] = i
	}
	return b
}

// KindOf liefert den Typ einer Spalte.
func (b *Batch) KindOf(name string) (Kind, bool) {
	i, ok := b.index[name]
	if !ok {
		return 0, false
	}
	return b.columns[i].Kind, true
}

func (b *Batch) Len() int {
	return len(b.rows)
}

// Append hängt eine Zeile an. Anzahl und Typen müssen zu den Spalten passen.
func (b *Batch) Append(values ...Value) error {
	if len(values) != len(b.columns) {
		return eris.Errorf("row has %d values, batch has %d columns", len(values), len(b.columns))
	}
	for i, v := range values {
		if v.Kind != b.columns[i].Kind {
			return eris.Errorf("column %q expects %s, got %s", b.columns[i].Name, b.columns[i].Kind, v.Kind)
		}
	}
	b.rows = append(b.rows, append([]Value(nil), values...))
	return nil
}

// Value liefert die Zelle (i, name); für unbekannte Spalten die Nullzelle.
func (b *Batch) Value(i int, name string) Value {
	c, ok := b.index[name]
	if !ok {
		return Value{}
	}
	return b.rows[i][c]
}

func (b *Batch) String(i int, name string) string {
	return b.Value(i, name).Text
}

func (b *Batch) Number(i int, name string) float64 {
	return b.Value(i, name).Number
}

func (b *Batch) Date(i int, name string) time.Time {
	return b.Value(i, name).Date
}

// SetString überschreibt eine Textzelle.
func (b *Batch) SetString(i int, name, s string) {
	c, ok := b.index[name]
	if !ok || b.columns[c].Kind != Text {
		return
	}
	b.rows[i][c].Text = s
}

// Filter liefert einen neuen Batch mit allen Zeilen, für die keep true ist.
func (b *Batch) Filter(keep func(i int) bool) *Batch {
	out := New(b.columns...)
	for i, row := range b.rows {
		if keep(i) {
			out.rows = append(out.rows, append([]Value(nil), row...))
		}
	}
	return out
}

// Distinct liefert die unterschiedlichen Textwerte einer Spalte in Reihenfolge des ersten Auftretens.
func (b *Batch) Distinct(name string) []string {
	var out []string
	seen := map[string]bool{}
	for i := range b.rows {
		s := b.String(i, name)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Key bildet den Schlüssel einer noch nicht angehängten Zeile.
func Key(values []Value) string {
	parts := make([]string, len(values))
	for c, v := range values {
		parts[c] = v.key()
	}
	return strings.Join(parts, "\x1f")
}

// SortBy sortiert stabil nach den gegebenen Spalten (aufsteigend).
func (b *Batch) SortBy(names ...string) {
	cols := make([]int, 0, len(names))
	for _, n := range names {
		if c, ok := b.index[n]; ok {
			cols = append(cols, c)
		}
	}
	sort.SliceStable(b.rows, func(x, y int) bool {
		for _, c := range cols {
			if cmp := compare(b.rows[x][c], b.rows[y][c]); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
}

func compare(a, b Value) int {
	switch a.Kind {
	case Text:
		return strings.Compare(a.Text, b.Text)
	case Number:
		switch {
		case a.Number < b.Number:
			return -1
		case a.Number > b.Number:
			return 1
		}
		return 0
	default:
		return a.Date.Compare(b.Date)
	}
}
