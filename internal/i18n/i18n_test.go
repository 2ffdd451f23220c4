package i18n

import (
	"strings"
	"testing"
)

func TestTextEnglish(t *testing.T) {
	l := NewLocalizer("en")
	if got := Text(l, "chat_apology", nil); !strings.HasPrefix(got, "Sorry, the AI server is busy") {
		t.Errorf("chat_apology = %q", got)
	}
	got := Text(l, "pipeline_failed", map[string]string{"RunID": "abc", "Error": "boom"})
	if !strings.Contains(got, "abc") || !strings.Contains(got, "boom") {
		t.Errorf("pipeline_failed = %q", got)
	}
}

func TestTextHindi(t *testing.T) {
	l := NewLocalizer("hi")
	if got := Text(l, "chat_apology", nil); got != "Sorry, AI server busy hai. Thodi der baad try karein." {
		t.Errorf("chat_apology = %q", got)
	}
}

func TestTextUnknownLanguageFallsBackToEnglish(t *testing.T) {
	l := NewLocalizer("fr")
	if got := Text(l, "video_caption", map[string]string{"Character": "Oggy"}); got != "Oggy 🎬" {
		t.Errorf("video_caption = %q", got)
	}
}

func TestTextMissingMessage(t *testing.T) {
	if got := Text(NewLocalizer("en"), "no_such_message", nil); got != "no_such_message" {
		t.Errorf("Text = %q, want the message id", got)
	}
}
