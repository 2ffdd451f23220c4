package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"toonreel/internal/characters"
	"toonreel/internal/proxy"
)

const fallbackURL = "https://example.com/fallback.png"

func fakeDuckDuckGo(t *testing.T, results string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			if r.URL.Query().Get("iax") != "images" {
				t.Errorf("token request missing iax=images: %s", r.URL.RawQuery)
			}
			fmt.Fprint(w, `<html><script>vqd="4-123456789"</script></html>`)
		case "/i.js":
			if got := r.URL.Query().Get("vqd"); got != "4-123456789" {
				t.Errorf("vqd = %q, want 4-123456789", got)
			}
			if r.URL.Query().Get("o") != "json" {
				t.Errorf("results request missing o=json")
			}
			fmt.Fprint(w, results)
		default:
			http.NotFound(w, r)
		}
	}
}

func TestSearchReturnsFirstResult(t *testing.T) {
	server := httptest.NewServer(fakeDuckDuckGo(t, `{"results":[{"image":"https://img/pika.png"},{"image":"https://img/2.png"}]}`))
	defer server.Close()

	svc := NewService(fallbackURL, NewDuckDuckGo(server.URL, nil))
	res := svc.Search(context.Background(), "Pikachu")

	if res.URL != "https://img/pika.png" {
		t.Errorf("URL = %q, want first result", res.URL)
	}
	if res.Character != "Pikachu" || res.Provider != "duckduckgo" {
		t.Errorf("result = %+v", res)
	}
}

func TestSearchFallsBackForEveryCharacter(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"empty results", fakeDuckDuckGo(t, `{"results":[]}`)},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"no token", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "<html></html>") }},
		{"bad json", fakeDuckDuckGo(t, `{"results":`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			svc := NewService(fallbackURL, NewDuckDuckGo(server.URL, nil))
			for _, name := range characters.Default {
				res := svc.Search(context.Background(), name)
				if res.URL != fallbackURL || res.Provider != FallbackProvider {
					t.Errorf("Search(%q) = %+v, want fallback", name, res)
				}
				if res.Character != name {
					t.Errorf("Character = %q, want %q", res.Character, name)
				}
			}
		})
	}
}

func TestSearchWithoutProviders(t *testing.T) {
	res := NewService(fallbackURL).Search(context.Background(), "Oggy")
	if res.URL != fallbackURL {
		t.Errorf("URL = %q, want fallback", res.URL)
	}
}

func TestSearchCancelledContextStillFallsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewService(fallbackURL).Search(ctx, "Oggy")
	if res.URL != fallbackURL || res.Provider != FallbackProvider {
		t.Errorf("result = %+v, want fallback", res)
	}
}

func TestDuckDuckGoRotatesProxyWhenRateLimited(t *testing.T) {
	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer limited.Close()
	healthy := httptest.NewServer(fakeDuckDuckGo(t, `{"results":[{"image":"https://img/via-proxy.png"}]}`))
	defer healthy.Close()

	pm, err := proxy.NewManager([]string{limited.URL, healthy.URL})
	if err != nil {
		t.Fatalf("proxy.NewManager: %v", err)
	}

	got, err := NewDuckDuckGo("http://duckduckgo.test", pm).FirstImage(context.Background(), "Pikachu")
	if err != nil {
		t.Fatalf("FirstImage: %v", err)
	}
	if got != "https://img/via-proxy.png" {
		t.Errorf("FirstImage = %q", got)
	}
}

func TestDuckDuckGoNoResults(t *testing.T) {
	server := httptest.NewServer(fakeDuckDuckGo(t, `{"results":[{"image":""}]}`))
	defer server.Close()

	_, err := NewDuckDuckGo(server.URL, nil).FirstImage(context.Background(), "Oggy")
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("error = %v, want ErrNoResults", err)
	}
}
