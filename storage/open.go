package storage

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// CustomTransport fügt jeder Anfrage einen User-Agent-Header hinzu.
type CustomTransport struct {
	Transport http.RoundTripper
}

func (t *CustomTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "epi-etl/1.0")
	return t.Transport.RoundTrip(req)
}

var httpClient = &http.Client{
	Timeout: 120 * time.Second,
	Transport: &CustomTransport{
		Transport: http.DefaultTransport,
	},
}

// Opener öffnet Quelldateien: lokaler Pfad, s3://bucket/key oder http(s)-URL.
// Dateien mit Endung .gz werden transparent entpackt.
type Opener struct {
	S3   ObjectAPI // nil, wenn kein S3 konfiguriert ist
	HTTP *http.Client
}

// NewOpener erstellt einen Opener; s3 darf nil sein.
func NewOpener(s3 ObjectAPI) *Opener {
	return &Opener{S3: s3, HTTP: httpClient}
}

// Open liefert den (ggf. entpackten) Inhalt der Quelle.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	rc, err := o.openRaw(ctx, location)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(location), ".gz") {
		return rc, nil
	}
	gz, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return &gzipReadCloser{Reader: gz, raw: rc}, nil
}

// ReadAll liest die Quelle ungepackt, so wie sie abgelegt ist.
func (o *Opener) ReadAll(ctx context.Context, location string) ([]byte, error) {
	rc, err := o.openRaw(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (o *Opener) openRaw(ctx context.Context, location string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(location, "s3://"):
		if o.S3 == nil {
			return nil, eris.Errorf("s3 source %q but no S3 client configured", location)
		}
		return getObject(ctx, o.S3, location)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}
		resp, err := o.HTTP.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, eris.Errorf("fetch %s: bad status %s", location, resp.Status)
		}
		return resp.Body, nil
	default:
		return os.Open(location)
	}
}

type gzipReadCloser struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.Reader.Close()
	if err := g.raw.Close(); err != nil {
		return err
	}
	return gzErr
}
