package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

func sample(t *testing.T) *Batch {
	t.Helper()
	b := New(
		Column{Name: "country", Kind: Text},
		Column{Name: "date", Kind: Date},
		Column{Name: "cases", Kind: Number},
	)
	require.NoError(t, b.Append(TextValue("B"), DateValue(day(2)), NumberValue(3)))
	require.NoError(t, b.Append(TextValue("A"), DateValue(day(2)), NumberValue(2)))
	require.NoError(t, b.Append(TextValue("A"), DateValue(day(1)), NumberValue(1)))
	return b
}

func TestAppendChecksShape(t *testing.T) {
	b := New(Column{Name: "country", Kind: Text}, Column{Name: "cases", Kind: Number})

	assert.Error(t, b.Append(TextValue("A")))
	assert.Error(t, b.Append(TextValue("A"), TextValue("1")))
	assert.NoError(t, b.Append(TextValue("A"), NumberValue(1)))
	assert.Equal(t, 1, b.Len())
}

func TestAccessors(t *testing.T) {
	b := sample(t)

	assert.Equal(t, "B", b.String(0, "country"))
	assert.Equal(t, float64(3), b.Number(0, "cases"))
	assert.Equal(t, day(2), b.Date(0, "date"))
	assert.Equal(t, float64(0), b.Number(0, "deaths"))

	kind, ok := b.KindOf("date")
	assert.True(t, ok)
	assert.Equal(t, Date, kind)
	_, ok = b.KindOf("deaths")
	assert.False(t, ok)
}

func TestDistinctKeepsFirstSeenOrder(t *testing.T) {
	assert.Equal(t, []string{"B", "A"}, sample(t).Distinct("country"))
}

func TestSortBy(t *testing.T) {
	b := sample(t)
	b.SortBy("country", "date")

	assert.Equal(t, "A", b.String(0, "country"))
	assert.Equal(t, day(1), b.Date(0, "date"))
	assert.Equal(t, day(2), b.Date(1, "date"))
	assert.Equal(t, "B", b.String(2, "country"))
}

func TestFilterCopiesRows(t *testing.T) {
	b := sample(t)
	only := b.Filter(func(i int) bool { return b.String(i, "country") == "A" })

	assert.Equal(t, 2, only.Len())
	assert.Equal(t, 3, b.Len())

	only.SetString(0, "country", "Z")
	assert.Equal(t, "A", b.String(1, "country"), "filtered batch does not share rows")
}

func TestKeyDistinguishesRows(t *testing.T) {
	a := []Value{TextValue("A"), NumberValue(1)}
	assert.Equal(t, Key(a), Key([]Value{TextValue("A"), NumberValue(1)}))
	assert.NotEqual(t, Key(a), Key([]Value{TextValue("A"), NumberValue(2)}))
	assert.NotEqual(t, Key(a), Key([]Value{TextValue("A")}))
}

func TestSetString(t *testing.T) {
	b := sample(t)
	b.SetString(0, "country", "C")
	b.SetString(0, "cases", "ignored")

	assert.Equal(t, "C", b.String(0, "country"))
	assert.Equal(t, float64(3), b.Number(0, "cases"))
}
