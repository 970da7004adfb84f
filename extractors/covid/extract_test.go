package covid

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"epi-etl/extractors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stringOpener map[string]string

func (o stringOpener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	data, ok := o[location]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

const header = "Date,Country/Region,Confirmed,Deaths,Recovered,Active,New cases,New deaths,New recovered,WHO Region\n"

func TestExtract(t *testing.T) {
	opener := stringOpener{"covid.csv": header +
		"2020-01-22,Afghanistan,0,0,0,0,0,0,0,Eastern Mediterranean\n" +
		"2020-01-23,Afghanistan,1,0,0,1,1,0,0,Eastern Mediterranean\n"}

	e := NewExtractor("covid.csv", opener, zaptest.NewLogger(t))
	assert.Equal(t, "covid", e.Name())

	b, err := e.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, "Eastern Mediterranean", b.String(1, ColWHORegion))
	assert.Equal(t, float64(1), b.Number(1, ColConfirmed))
}

func TestExtractMissingColumn(t *testing.T) {
	opener := stringOpener{"covid.csv": "Date,Country/Region,Confirmed\n2020-01-22,Afghanistan,0\n"}

	_, err := NewExtractor("covid.csv", opener, zaptest.NewLogger(t)).Extract(context.Background())
	var schemaErr *extractors.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, ColDeaths, schemaErr.Column)
}

func TestExtractOpenError(t *testing.T) {
	_, err := NewExtractor("missing.csv", stringOpener{}, zaptest.NewLogger(t)).Extract(context.Background())
	assert.Error(t, err)
}
