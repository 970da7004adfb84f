package extractors

import (
	"context"
	"fmt"
	"io"

	"epi-etl/batch"
)

// Extractor ist das Interface, das jede Quelle (z.B. COVID, MPOX) implementieren muss.
type Extractor interface {
	// Extract liest die Quelle und liefert einen validierten Batch ohne Duplikate und Leerzeilen.
	Extract(ctx context.Context) (*batch.Batch, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "covid").
	Name() string
}

// SchemaError meldet einen Verstoß gegen den Spaltenvertrag einer Quelle.
type SchemaError struct {
	Source string
	Column string
	Row    int // 1-basiert inkl. Kopfzeile, 0 wenn der Kopf betroffen ist
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("schema mismatch in %s, column %q, row %d: %s", e.Source, e.Column, e.Row, e.Reason)
	}
	return fmt.Sprintf("schema mismatch in %s, column %q: %s", e.Source, e.Column, e.Reason)
}

// Opener öffnet eine Quelle anhand ihres Ortes (siehe storage.Opener).
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}
