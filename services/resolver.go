package services

import (
	"epi-etl/batch"
	"epi-etl/extractors"
)

// CountryColumns benennt die Spalten, aus denen Länder abgeleitet werden.
// GeoCode und Region sind optional; jede Quelle liefert nur eines von beiden.
type CountryColumns struct {
	Source  string
	Name    string
	GeoCode string
	Region  string
}

// CountryCandidate ist der Beitrag einer Quelle zu einem Land.
// nil bedeutet: diese Quelle kennt das Attribut nicht.
type CountryCandidate struct {
	Name    string
	GeoCode *string
	Region  *string
}

// ResolveCountries liefert einen Kandidaten pro Ländername, in Reihenfolge des ersten Auftretens.
// Pro Attribut gewinnt der erste nicht-leere Wert im Batch.
func ResolveCountries(b *batch.Batch, cols CountryColumns) ([]CountryCandidate, error) {
	if err := requireText(b, cols.Source, cols.Name); err != nil {
		return nil, err
	}
	for _, col := range []string{cols.GeoCode, cols.Region} {
		if col == "" {
			continue
		}
		if err := requireText(b, cols.Source, col); err != nil {
			return nil, err
		}
	}

	names := b.Distinct(cols.Name)
	byName := make(map[string]*CountryCandidate, len(names))
	for _, name := range names {
		if name != "" {
			byName[name] = &CountryCandidate{Name: name}
		}
	}
	for i := 0; i < b.Len(); i++ {
		c, ok := byName[b.String(i, cols.Name)]
		if !ok {
			continue
		}
		if cols.GeoCode != "" && c.GeoCode == nil {
			c.GeoCode = optional(b.String(i, cols.GeoCode))
		}
		if cols.Region != "" && c.Region == nil {
			c.Region = optional(b.String(i, cols.Region))
		}
	}

	out := make([]CountryCandidate, 0, len(byName))
	for _, name := range names {
		if c, ok := byName[name]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

// MergeCandidates führt Kandidaten mehrerer Quellen über den Namen zusammen.
// Das Ergebnis hängt nicht davon ab, welche Quelle ein Attribut zuerst liefert,
// solange sich die Quellen nicht widersprechen.
func MergeCandidates(lists ...[]CountryCandidate) []CountryCandidate {
	byName := map[string]*CountryCandidate{}
	var order []string
	for _, list := range lists {
		for _, c := range list {
			merged, ok := byName[c.Name]
			if !ok {
				cp := CountryCandidate{Name: c.Name}
				merged = &cp
				byName[c.Name] = merged
				order = append(order, c.Name)
			}
			if merged.GeoCode == nil && present(c.GeoCode) {
				merged.GeoCode = c.GeoCode
			}
			if merged.Region == nil && present(c.Region) {
				merged.Region = c.Region
			}
		}
	}

	out := make([]CountryCandidate, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

func requireText(b *batch.Batch, source, col string) error {
	if kind, ok := b.KindOf(col); !ok || kind != batch.Text {
		return &extractors.SchemaError{Source: source, Column: col, Reason: "missing country column"}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func present(p *string) bool {
	return p != nil && *p != ""
}
