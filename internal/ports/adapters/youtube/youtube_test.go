package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/topicut/internal/types"
)

func TestParseVideoID(t *testing.T) {
	t.Parallel()

	ok := map[string]types.VideoID{
		"https://www.youtube.com/watch?v=jNQXAC9IVRw":             "jNQXAC9IVRw",
		"https://youtube.com/watch?feature=share&v=dQw4w9WgXcQ":   "dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=jNQXAC9IVRw&t=3s":          "jNQXAC9IVRw",
		"https://youtu.be/jNQXAC9IVRw?si=abc":                     "jNQXAC9IVRw",
		"youtu.be/jNQXAC9IVRw":                                    "jNQXAC9IVRw",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ":              "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ?autoplay=1":    "dQw4w9WgXcQ",
		"https://www.youtube-nocookie.com/embed/jNQXAC9IVRw":      "jNQXAC9IVRw",
		"  jNQXAC9IVRw ":                                          "jNQXAC9IVRw",
	}
	for in, want := range ok {
		got, err := ParseVideoID(in)
		if err != nil {
			t.Fatalf("ParseVideoID(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseVideoID(%q) = %q, want %q", in, got, want)
		}
	}

	bad := []string{
		"",
		"https://vimeo.com/123456",
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/channel/UC123",
		"https://youtu.be/",
	}
	for _, in := range bad {
		if _, err := ParseVideoID(in); !errors.Is(err, types.ErrInvalidInput) {
			t.Fatalf("ParseVideoID(%q): expected invalid input, got %v", in, err)
		}
	}
}

func TestParseISODuration(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Duration{
		"PT19S":     19 * time.Second,
		"PT4M13S":   4*time.Minute + 13*time.Second,
		"PT1H":      time.Hour,
		"P1DT2H":    26 * time.Hour,
		"PT0.5S":    500 * time.Millisecond,
		"P0D":       0,
	}
	for in, want := range cases {
		got, err := ParseISODuration(in)
		if err != nil || got != want {
			t.Fatalf("ParseISODuration(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "P", "PT", "19S", "PT1X"} {
		if _, err := ParseISODuration(in); err == nil {
			t.Fatalf("ParseISODuration(%q): expected error", in)
		}
	}
}

func TestResolve_SimulatedWithoutKey(t *testing.T) {
	t.Parallel()

	r, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	info, err := r.Resolve(context.Background(), "https://www.youtube.com/watch?v=jNQXAC9IVRw")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Title != "Me at the zoo" || info.Source != SourceSimulated || info.ID != "jNQXAC9IVRw" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if r.Configured() {
		t.Fatalf("resolver without key must not report configured")
	}
}

func newAPIResolver(t *testing.T, h http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewTLSServer(h)
	t.Cleanup(srv.Close)

	r, err := New(Config{APIKey: "secret-key", BaseURL: srv.URL + "/youtube/v3", AllowedHosts: []string{"127.0.0.1"}}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return r.WithHTTPClient(srv.Client())
}

func TestResolve_API(t *testing.T) {
	t.Parallel()

	r := newAPIResolver(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/youtube/v3/videos" || req.URL.Query().Get("id") != "jNQXAC9IVRw" || req.URL.Query().Get("key") != "secret-key" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"jNQXAC9IVRw","snippet":{"title":"Me at the zoo","channelTitle":"jawed"},"contentDetails":{"duration":"PT19S"},"statistics":{"viewCount":"300000000"}}]}`))
	})

	info, err := r.Resolve(context.Background(), "https://youtu.be/jNQXAC9IVRw")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Source != SourceAPI || info.Channel != "jawed" || info.DurationSeconds != 19 || info.ViewCount != 300000000 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()

	r := newAPIResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	if _, err := r.Resolve(context.Background(), "jNQXAC9IVRw"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolve_APIErrorFallsBackAndRedacts(t *testing.T) {
	t.Parallel()

	r := newAPIResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"quota exceeded for key secret-key"}`, http.StatusForbidden)
	})
	if _, err := r.fetch(context.Background(), "dQw4w9WgXcQ"); err == nil || strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("expected redacted error, got %v", err)
	}

	info, err := r.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Source != SourceSimulated || info.Title != "Rick Astley - Never Gonna Give You Up" {
		t.Fatalf("expected simulated fallback, got %+v", info)
	}
}

func TestNew_RejectsUntrustedBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{APIKey: "k", BaseURL: "https://evil.example/v3"}, nil); err == nil {
		t.Fatalf("expected base url error")
	}
}
