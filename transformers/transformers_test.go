package transformers

import (
	"errors"
	"testing"
	"time"

	"epi-etl/batch"
	"epi-etl/extractors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

var cfg = ColumnConfig{
	Source:             "covid",
	CountryColumn:      "country",
	DateColumn:         "date",
	RegionColumn:       "region",
	NumericColumns:     []string{"cases"},
	AggregateByCountry: true,
}

func input(t *testing.T, rows ...[]batch.Value) *batch.Batch {
	t.Helper()
	b := batch.New(
		batch.Column{Name: "country", Kind: batch.Text},
		batch.Column{Name: "date", Kind: batch.Date},
		batch.Column{Name: "region", Kind: batch.Text},
		batch.Column{Name: "cases", Kind: batch.Number},
	)
	for _, r := range rows {
		require.NoError(t, b.Append(r...))
	}
	return b
}

func row(country string, d int, region string, cases float64) []batch.Value {
	return []batch.Value{batch.TextValue(country), batch.DateValue(day(d)), batch.TextValue(region), batch.NumberValue(cases)}
}

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "US", want: "United States"},
		{input: "USA", want: "United States"},
		{input: " UK ", want: "United Kingdom"},
		{input: "Cote  d'Ivoire", want: "Cote d'Ivoire"},
		{input: "Re\u0301union", want: "R\u00e9union"},
		{input: "Germany", want: "Germany"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCountry(tt.input))
		})
	}
}

func TestCleaner(t *testing.T) {
	in := input(t,
		row("US", 1, " Americas ", 1),
		row("X", 1, "Europe", -3),
		row("  ", 1, "Europe", 2),
	)

	out, err := NewCleaner(zap.NewNop()).Transform(in, cfg)
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "United States", out.String(0, "country"))
	assert.Equal(t, "Americas", out.String(0, "region"))
	assert.Equal(t, "US", in.String(0, "country"), "input batch is not modified")
}

func TestCleanerMissingColumn(t *testing.T) {
	bad := cfg
	bad.GeoCodeColumn = "iso_code"

	_, err := NewCleaner(zap.NewNop()).Transform(input(t), bad)
	var schemaErr *extractors.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "iso_code", schemaErr.Column)
}

func TestAggregatorSumsPerCountryAndDay(t *testing.T) {
	in := input(t,
		row("X", 2, "", 5),
		row("X", 1, "Europe", 1),
		row("X", 1, "Other", 2),
		row("A", 1, "", 4),
	)

	out, err := NewAggregator(zap.NewNop()).Transform(in, cfg)
	require.NoError(t, err)

	require.Equal(t, 3, out.Len())
	assert.Equal(t, "A", out.String(0, "country"))
	assert.Equal(t, "", out.String(0, "region"))

	assert.Equal(t, "X", out.String(1, "country"))
	assert.Equal(t, day(1), out.Date(1, "date"))
	assert.Equal(t, float64(3), out.Number(1, "cases"))
	assert.Equal(t, "Europe", out.String(1, "region"))

	assert.Equal(t, day(2), out.Date(2, "date"))
	assert.Equal(t, "Europe", out.String(2, "region"), "first non-empty region is carried to every row")
}

func TestAggregatorPassThrough(t *testing.T) {
	in := input(t, row("X", 1, "Europe", 1))
	plain := cfg
	plain.AggregateByCountry = false

	out, err := NewAggregator(zap.NewNop()).Transform(in, plain)
	require.NoError(t, err)
	assert.Same(t, in, out)
}
