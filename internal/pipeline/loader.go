package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// StdinSource names standard input as a ballot source
const StdinSource = "-"

// Loader reads raw ballot files from a path, stdin or an http(s) URL
type Loader struct {
	fetcher  *Fetcher
	stdin    io.Reader
	maxBytes int64
}

// NewLoader creates a loader. URLs are fetched with fetcher.
func NewLoader(fetcher *Fetcher, stdin io.Reader, maxBytes int64) *Loader {
	return &Loader{
		fetcher:  fetcher,
		stdin:    stdin,
		maxBytes: maxBytes,
	}
}

// IsURL reports whether source is fetched over the network
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Load returns the contents of source
func (l *Loader) Load(ctx context.Context, source string) ([]byte, error) {
	switch {
	case source == StdinSource:
		return l.readLimited(l.stdin, "stdin")
	case IsURL(source):
		result, err := l.fetcher.FetchWithRetry(ctx, source)
		if err != nil {
			return nil, err
		}
		return result.Body, nil
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return l.readLimited(f, source)
	}
}

func (l *Loader) readLimited(r io.Reader, name string) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%s is not available", name)
	}
	if l.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", name, l.maxBytes)
	}
	return data, nil
}
