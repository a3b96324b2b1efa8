package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"
)

// ErrHTTPDisabled is returned for URL sources when the loader has no HTTP
// client.
var ErrHTTPDisabled = errors.New("openapi loader: http support disabled")

// maxDocumentSize caps remote document bodies.
const maxDocumentSize = 16 << 20

// Loader reads raw OpenAPI documents from files, an fs.FS or HTTP. HTTP is
// off unless a client or the fallback is configured.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem resolves SourceKindFS locations in files.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(l *Loader) { l.fs = files }
}

// WithHTTPClient enables URL sources through client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		if client != nil {
			clone := *client
			l.http = &clone
		}
	}
}

// WithHTTPFallback enables URL sources through a default client capped at
// timeout. A zero timeout means no cap.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = timeout
		if l.http == nil {
			l.http = &http.Client{}
		}
	}
}

// NewLoader constructs a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.http != nil && l.timeout > 0 && l.http.Timeout == 0 {
		l.http.Timeout = l.timeout
	}
	return l
}

// Load returns the raw document at src.
func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		data []byte
		err  error
	)
	switch src.Kind {
	case SourceKindFile:
		data, err = os.ReadFile(src.Location)
	case SourceKindFS:
		if l.fs == nil {
			return nil, errors.New("openapi loader: filesystem is not configured")
		}
		data, err = fs.ReadFile(l.fs, src.Location)
	case SourceKindURL:
		data, err = l.fetch(ctx, src.Location)
	default:
		return nil, fmt.Errorf("openapi loader: unsupported source kind %q", src.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("openapi loader: %s: %w", src, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("openapi loader: %s: empty document", src)
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	if l.http == nil {
		return nil, ErrHTTPDisabled
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}
