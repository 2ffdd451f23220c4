package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFetchWritesBody(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("jpeg bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "input.jpg")
	path, err := New(0).Fetch(context.Background(), server.URL+"/pika.jpg", dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != dest {
		t.Errorf("path = %q, want %q", path, dest)
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "jpeg bytes" {
		t.Errorf("file content = %q", data)
	}
	if gotUA != UserAgent {
		t.Errorf("User-Agent = %q, want browser UA", gotUA)
	}
}

func TestFetchNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "input.jpg")
	if _, err := New(0).Fetch(context.Background(), server.URL, dest); err == nil {
		t.Fatal("Fetch on 404 returned nil error")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("dest exists after failed fetch: %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "input.jpg")
	if _, err := New(20*time.Millisecond).Fetch(context.Background(), server.URL, dest); err == nil {
		t.Fatal("Fetch returned nil error after timeout")
	}
}
