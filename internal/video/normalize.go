package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"toonreel/internal/gradio"
)

var errNoArtifact = errors.New("no video artifact in result")

var videoExts = map[string]bool{".mp4": true, ".webm": true, ".mov": true, ".mkv": true, ".gif": true}

// Normalize reduces a provider's outputs to one file reference. Accepted
// shapes for the first output: a path string, a file object, a {"video": ...}
// object, or a tuple whose first element is any of these.
func Normalize(outputs []json.RawMessage) (gradio.FileData, error) {
	if len(outputs) == 0 {
		return gradio.FileData{}, errNoArtifact
	}
	return resolve(outputs[0], 0)
}

func resolve(raw json.RawMessage, depth int) (gradio.FileData, error) {
	if depth > 4 {
		return gradio.FileData{}, errNoArtifact
	}

	var path string
	if err := json.Unmarshal(raw, &path); err == nil {
		if path == "" {
			return gradio.FileData{}, errNoArtifact
		}
		return gradio.FileData{Path: path}, nil
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err == nil {
		if len(tuple) == 0 {
			return gradio.FileData{}, errNoArtifact
		}
		return resolve(tuple[0], depth+1)
	}

	var obj struct {
		Video json.RawMessage `json:"video"`
		Path  string          `json:"path"`
		Name  string          `json:"name"`
		URL   string          `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return gradio.FileData{}, fmt.Errorf("%w: %s", errNoArtifact, truncate(string(raw), 80))
	}
	switch {
	case len(obj.Video) > 0 && string(obj.Video) != "null":
		return resolve(obj.Video, depth+1)
	case obj.Path != "" || obj.URL != "":
		return gradio.FileData{Path: obj.Path, URL: obj.URL}, nil
	case obj.Name != "":
		return gradio.FileData{Path: obj.Name}, nil
	}
	return gradio.FileData{}, fmt.Errorf("%w: %s", errNoArtifact, truncate(string(raw), 80))
}

type downloader interface {
	Download(ctx context.Context, ref gradio.FileData, dest string) error
}

// localCopy returns a local path for ref inside dir. Paths reported by a
// remote app name files on that app's machine, so they are always downloaded.
// Only an app running on this machine (local) may hand back a path to use
// directly.
func localCopy(ctx context.Context, d downloader, ref gradio.FileData, dir string, local bool) (string, error) {
	if local && ref.Path != "" && ref.URL == "" {
		if _, err := os.Stat(ref.Path); err == nil {
			return ref.Path, nil
		}
	}

	ext := filepath.Ext(ref.Path)
	if ext == "" {
		ext = ".mp4"
	}
	tmp, err := os.CreateTemp(dir, "video-*"+ext)
	if err != nil {
		return "", err
	}
	tmp.Close()

	if err := d.Download(ctx, ref, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("video download failed: %w", err)
	}
	return tmp.Name(), nil
}

// Place moves src to dst, replacing whatever is at dst. A directory src is
// resolved to the video file inside it.
func Place(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("video output missing: %w", err)
	}
	if info.IsDir() {
		if src, err = findVideo(src); err != nil {
			return err
		}
	}

	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not remove old %s: %w", dst, err)
	}

	err = os.Rename(src, dst)
	if errors.Is(err, syscall.EXDEV) {
		err = moveAcrossDevices(src, dst)
	}
	if err != nil {
		return fmt.Errorf("could not move video into place: %w", err)
	}
	return nil
}

func findVideo(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var firstFile string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if videoExts[strings.ToLower(filepath.Ext(e.Name()))] {
			return filepath.Join(dir, e.Name()), nil
		}
		if firstFile == "" {
			firstFile = filepath.Join(dir, e.Name())
		}
	}
	if firstFile == "" {
		return "", fmt.Errorf("%w: directory %s is empty", errNoArtifact, dir)
	}
	return firstFile, nil
}

func moveAcrossDevices(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
