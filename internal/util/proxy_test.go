package util

import (
	"net/http"
	"net/url"
	"testing"
)

func proxyFor(t *testing.T, fn func(*http.Request) (*url.URL, error), rawURL string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	u, err := fn(req)
	if err != nil {
		t.Fatalf("proxy func: %v", err)
	}
	if u == nil {
		return ""
	}
	return u.String()
}

func TestNewProxyFunc(t *testing.T) {
	t.Setenv("NO_PROXY", "")
	t.Setenv("no_proxy", "")

	tests := []struct {
		name       string
		httpProxy  string
		httpsProxy string
		noProxy    string
		url        string
		want       string
	}{
		{"http uses http proxy", "http://proxy:8080", "", "", "http://ballots.example.org/a.csv", "http://proxy:8080"},
		{"https falls back to http proxy", "http://proxy:8080", "", "", "https://ballots.example.org/a.csv", "http://proxy:8080"},
		{"https proxy preferred", "http://proxy:8080", "http://secure:8443", "", "https://ballots.example.org/a.csv", "http://secure:8443"},
		{"no_proxy excludes host", "http://proxy:8080", "", "example.org", "https://ballots.example.org/a.csv", ""},
		{"no_proxy other host", "http://proxy:8080", "", "example.com", "https://ballots.example.org/a.csv", "http://proxy:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := NewProxyFunc(tt.httpProxy, tt.httpsProxy, tt.noProxy)
			if got := proxyFor(t, fn, tt.url); got != tt.want {
				t.Errorf("Expected proxy %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewProxyFunc_NoProxyFromEnvironment(t *testing.T) {
	t.Setenv("NO_PROXY", "internal.example.org")

	fn := NewProxyFunc("http://proxy:8080", "", "")
	if got := proxyFor(t, fn, "http://internal.example.org/votes.csv"); got != "" {
		t.Errorf("Expected no proxy for NO_PROXY host, got %q", got)
	}
}
