package services

import (
	"math"
	"sort"
	"time"

	"epi-etl/batch"
)

// rollingWindow ist die Fensterbreite der gleitenden Mittelwerte in Tagen.
const rollingWindow = 7

// StatColumns ordnet Batch-Spalten den Kennzahlen zu. Leere Einträge werden
// entweder abgeleitet (neue Fälle, gleitende Mittel) oder als 0 gespeichert.
type StatColumns struct {
	Country string
	Date    string

	TotalCases     string
	TotalDeaths    string
	NewCases       string
	NewDeaths      string
	ActiveCases    string
	RecoveredCases string

	CasesPerMillion  string
	DeathsPerMillion string
	RollingAvgCases  string
	RollingAvgDeaths string
}

// BuildObservations gruppiert einen bereinigten Batch nach Land. Jede Gruppe ist nach Datum sortiert.
func BuildObservations(b *batch.Batch, cols StatColumns) map[string][]Observation {
	byCountry := map[string][]int{}
	for i := 0; i < b.Len(); i++ {
		country := b.String(i, cols.Country)
		byCountry[country] = append(byCountry[country], i)
	}

	out := make(map[string][]Observation, len(byCountry))
	for country, rows := range byCountry {
		group := make([]Observation, 0, len(rows))
		for _, i := range rows {
			group = append(group, Observation{
				Date:             b.Date(i, cols.Date),
				TotalCases:       count(b, i, cols.TotalCases),
				TotalDeaths:      count(b, i, cols.TotalDeaths),
				NewCases:         count(b, i, cols.NewCases),
				NewDeaths:        count(b, i, cols.NewDeaths),
				ActiveCases:      count(b, i, cols.ActiveCases),
				RecoveredCases:   count(b, i, cols.RecoveredCases),
				CasesPerMillion:  number(b, i, cols.CasesPerMillion),
				DeathsPerMillion: number(b, i, cols.DeathsPerMillion),
				RollingAvgCases:  number(b, i, cols.RollingAvgCases),
				RollingAvgDeaths: number(b, i, cols.RollingAvgDeaths),
			})
		}
		sortByDate(group)

		if cols.NewCases == "" {
			deriveDaily(group, func(o *Observation) int64 { return o.TotalCases }, func(o *Observation, v int64) { o.NewCases = v })
		}
		if cols.NewDeaths == "" {
			deriveDaily(group, func(o *Observation) int64 { return o.TotalDeaths }, func(o *Observation, v int64) { o.NewDeaths = v })
		}
		if cols.RollingAvgCases == "" {
			rollingMean(group, func(o *Observation) int64 { return o.NewCases }, func(o *Observation, v float64) { o.RollingAvgCases = v })
		}
		if cols.RollingAvgDeaths == "" {
			rollingMean(group, func(o *Observation) int64 { return o.NewDeaths }, func(o *Observation, v float64) { o.RollingAvgDeaths = v })
		}
		out[country] = group
	}
	return out
}

// FirstDate liefert das früheste Datum einer nach Datum sortierten Gruppe.
func FirstDate(group []Observation) time.Time {
	if len(group) == 0 {
		return time.Time{}
	}
	return group[0].Date
}

// deriveDaily bildet Tageswerte aus einer kumulativen Reihe. Rückgänge zählen als 0.
func deriveDaily(group []Observation, cumulative func(*Observation) int64, set func(*Observation, int64)) {
	var prev int64
	for i := range group {
		cur := cumulative(&group[i])
		diff := cur
		if i > 0 {
			diff = cur - prev
		}
		if diff < 0 {
			diff = 0
		}
		set(&group[i], diff)
		prev = cur
	}
}

// rollingMean ist der Mittelwert der letzten sieben Tage (bzw. der bisher vorhandenen).
func rollingMean(group []Observation, value func(*Observation) int64, set func(*Observation, float64)) {
	var sum int64
	for i := range group {
		sum += value(&group[i])
		if i >= rollingWindow {
			sum -= value(&group[i-rollingWindow])
		}
		n := i + 1
		if n > rollingWindow {
			n = rollingWindow
		}
		set(&group[i], float64(sum)/float64(n))
	}
}

func sortByDate(group []Observation) {
	sort.SliceStable(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })
}

func count(b *batch.Batch, i int, col string) int64 {
	v := math.Round(number(b, i, col))
	if v < 0 {
		return 0
	}
	return int64(v)
}

func number(b *batch.Batch, i int, col string) float64 {
	if col == "" {
		return 0
	}
	return b.Number(i, col)
}
