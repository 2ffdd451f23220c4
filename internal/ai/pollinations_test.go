package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRequestURLAlwaysCarriesDimensions(t *testing.T) {
	s := NewPollinationsService("https://image.example/")
	prompts := []string{
		"Pikachu cartoon character",
		"",
		"a/b?c=d&e#f %20 100% \"quoted\" ünïcödé 🎨",
	}
	for _, p := range prompts {
		raw := s.RequestURL(p, 42)
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("RequestURL(%q) = %q is not a valid URL: %v", p, raw, err)
		}
		q := u.Query()
		if q.Get("width") != "720" || q.Get("height") != "1280" {
			t.Errorf("RequestURL(%q) query = %s, want width=720&height=1280", p, u.RawQuery)
		}
		if q.Get("seed") != "42" {
			t.Errorf("seed = %q, want 42", q.Get("seed"))
		}
		if !strings.HasPrefix(u.Path, "/prompt/") {
			t.Errorf("path = %q, want /prompt/ prefix", u.Path)
		}
		if strings.Count(u.EscapedPath(), "/") != 2 {
			t.Errorf("prompt not fully escaped: %q", u.EscapedPath())
		}
		if want := StylePrompt(p); strings.TrimPrefix(u.Path, "/prompt/") != want {
			t.Errorf("decoded prompt = %q, want %q", strings.TrimPrefix(u.Path, "/prompt/"), want)
		}
	}
}

func TestStylePrompt(t *testing.T) {
	if got := StylePrompt("  "); got != ImageStyleSuffix {
		t.Errorf("StylePrompt(blank) = %q", got)
	}
	if got := StylePrompt("Oggy"); got != "Oggy, "+ImageStyleSuffix {
		t.Errorf("StylePrompt(Oggy) = %q", got)
	}
}

func TestGenerateSavesImage(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte("png bytes"))
	}))
	defer server.Close()

	s := NewPollinationsService(server.URL)
	s.seed = func() int { return 7 }
	dest := filepath.Join(t.TempDir(), "gen_image_9x16.jpg")

	path, err := s.Generate(context.Background(), "Pikachu cartoon character", dest)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if path != dest {
		t.Errorf("path = %q, want %q", path, dest)
	}
	if !strings.Contains(gotPath, "Pikachu cartoon character") {
		t.Errorf("request path %q does not contain the prompt", gotPath)
	}
	if !strings.Contains(gotQuery, "width=720") || !strings.Contains(gotQuery, "height=1280") || !strings.Contains(gotQuery, "seed=7") {
		t.Errorf("query = %q", gotQuery)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "png bytes" {
		t.Errorf("saved %q", data)
	}
}

func TestGenerateFailsOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out.jpg")
	_, err := NewPollinationsService(server.URL).Generate(context.Background(), "Oggy", dest)
	if err == nil {
		t.Fatal("Generate on HTTP 500 returned nil error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q does not mention the status", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("image file written despite failure")
	}
}

func TestSeedRange(t *testing.T) {
	s := NewPollinationsService("http://x")
	for i := 0; i < 1000; i++ {
		if n := s.seed(); n < 1 || n > maxSeed {
			t.Fatalf("seed %d outside [1, %d]", n, maxSeed)
		}
	}
}
