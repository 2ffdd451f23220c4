// Package gradiotest provides a fake Gradio app for tests.
package gradiotest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const OutputPath = "/tmp/gradio/abc/output.mp4"

// Server answers /upload, /call/<API> and /file= like a hosted Gradio app.
// Set the exported fields before the first request.
type Server struct {
	*httptest.Server

	API string
	// Video is served for OutputPath.
	Video []byte
	// Files are served in addition to OutputPath, keyed by server-side path.
	Files map[string][]byte
	// CallStatus, when non-zero, is returned for every POST /call request.
	CallStatus int
	// ErrorEvent makes the event stream end with an error event.
	ErrorEvent bool
	// Result overrides the "complete" payload; root is the server URL.
	Result func(root string) string

	mu      sync.Mutex
	uploads []string
	calls   []json.RawMessage
	auth    []string
}

func NewServer(api string, video []byte) *Server {
	s := &Server{API: api, Video: video}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// DefaultResult is a Video component output: {video, subtitles} followed by a seed.
func DefaultResult(root string) string {
	return fmt.Sprintf(`[{"video":{"path":%q,"url":%q,"orig_name":"output.mp4"},"subtitles":null},12345]`,
		OutputPath, root+"/file="+OutputPath)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	s.mu.Unlock()

	callPrefix := "/call/" + s.API
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		file, header, err := r.FormFile("files")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		s.mu.Lock()
		s.uploads = append(s.uploads, string(data))
		s.mu.Unlock()
		json.NewEncoder(w).Encode([]string{"/tmp/gradio/upload/" + header.Filename})

	case r.Method == http.MethodPost && r.URL.Path == callPrefix:
		var body struct {
			Data json.RawMessage `json:"data"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.calls = append(s.calls, body.Data)
		s.mu.Unlock()
		if s.CallStatus != 0 {
			http.Error(w, "space is sleeping", s.CallStatus)
			return
		}
		fmt.Fprint(w, `{"event_id":"evt-1"}`)

	case r.Method == http.MethodGet && r.URL.Path == callPrefix+"/evt-1":
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: heartbeat\ndata: null\n\n")
		fmt.Fprint(w, "event: generating\ndata: null\n\n")
		if s.ErrorEvent {
			fmt.Fprint(w, "event: error\ndata: \"CUDA out of memory\"\n\n")
			return
		}
		result := DefaultResult
		if s.Result != nil {
			result = s.Result
		}
		fmt.Fprintf(w, "event: complete\ndata: %s\n\n", result("http://"+r.Host))

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/file="):
		path := strings.TrimPrefix(r.URL.Path, "/file=")
		if data, ok := s.Files[path]; ok {
			w.Write(data)
			return
		}
		if path != OutputPath {
			http.NotFound(w, r)
			return
		}
		w.Write(s.Video)

	default:
		http.NotFound(w, r)
	}
}

// Uploads returns the contents of every uploaded file.
func (s *Server) Uploads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}

// Calls returns the raw "data" array of every queued call.
func (s *Server) Calls() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.calls...)
}

// AuthHeaders returns the Authorization header of every request.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.auth...)
}
