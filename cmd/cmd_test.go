package cmd

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"toonreel/internal/config"
	"toonreel/internal/delivery"
	"toonreel/internal/models"
	"toonreel/internal/storage"
)

func TestBuildStagesOptionalParts(t *testing.T) {
	cfg := config.FromEnv()
	cfg.DatabasePath = ""
	cfg.GeminiAPIKeys = nil
	cfg.TelegramBotToken = ""
	cfg.WebhookURL = ""

	stages, cleanup, err := buildStages(cfg)
	if err != nil {
		t.Fatalf("buildStages() error = %v", err)
	}
	defer cleanup()

	if stages.Journal != nil {
		t.Error("journal configured with an empty DATABASE_PATH")
	}
	if stages.Notifier != nil {
		t.Error("notifier configured without Telegram")
	}
	for name, stage := range map[string]any{
		"characters": stages.Characters, "search": stages.Search, "fetcher": stages.Fetcher,
		"prompts": stages.Prompts, "images": stages.Images, "videos": stages.Videos, "delivery": stages.Delivery,
	} {
		if stage == nil {
			t.Errorf("%s stage is nil", name)
		}
	}
}

func TestBuildStagesGatesEachChannel(t *testing.T) {
	tests := []struct {
		name         string
		token, chat  string
		webhook      string
		want         []string
		wantNotifier bool
	}{
		{"webhook only", "", "42", "http://hooks.example/video", []string{"webhook"}, false},
		{"telegram only", "TOKEN", "42", "", []string{"telegram"}, true},
		{"token without chat", "TOKEN", "", "http://hooks.example/video", []string{"webhook"}, false},
		{"both", "TOKEN", "@toons", "http://hooks.example/video", []string{"telegram", "webhook"}, true},
		{"none", "", "", "", []string{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.FromEnv()
			cfg.DatabasePath = ""
			cfg.TelegramBotToken = tt.token
			cfg.TelegramChatID = tt.chat
			cfg.WebhookURL = tt.webhook

			stages, cleanup, err := buildStages(cfg)
			if err != nil {
				t.Fatalf("buildStages() error = %v", err)
			}
			defer cleanup()

			dispatcher, ok := stages.Delivery.(*delivery.Dispatcher)
			if !ok {
				t.Fatalf("Delivery is %T, want *delivery.Dispatcher", stages.Delivery)
			}
			if got := dispatcher.Channels(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Channels() = %v, want %v", got, tt.want)
			}
			if (stages.Notifier != nil) != tt.wantNotifier {
				t.Errorf("Notifier = %v, want set=%v", stages.Notifier, tt.wantNotifier)
			}
		})
	}
}

func TestBuildStagesRejectsBadChatID(t *testing.T) {
	cfg := config.FromEnv()
	cfg.DatabasePath = ""
	cfg.TelegramBotToken = "TOKEN"
	cfg.TelegramChatID = "not a chat"

	if _, _, err := buildStages(cfg); err == nil {
		t.Fatal("buildStages() accepted an invalid TELEGRAM_CHAT_ID")
	}
}

func TestHistoryPrintsRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	t.Setenv("DATABASE_PATH", dbPath)

	db, err := storage.New(dbPath)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	run := models.NewRun("run-7")
	run.Character = "Oggy"
	if err := db.StartRun(run); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	db.Close()

	var out bytes.Buffer
	historyCmd.SetOut(&out)
	defer historyCmd.SetOut(nil)
	if err := historyCommand(historyCmd, nil); err != nil {
		t.Fatalf("historyCommand() error = %v", err)
	}
	if !strings.Contains(out.String(), "run-7") || !strings.Contains(out.String(), "Oggy") {
		t.Errorf("history output = %q, want run-7 for Oggy", out.String())
	}
}

func TestHistoryRequiresJournal(t *testing.T) {
	t.Setenv("DATABASE_PATH", "")
	if err := historyCommand(historyCmd, nil); err == nil {
		t.Fatal("historyCommand() error = nil with the journal disabled")
	}
}
