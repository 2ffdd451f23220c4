package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultSearchEndpoint   = "https://duckduckgo.com"
	DefaultSearchFallback   = "https://upload.wikimedia.org/wikipedia/en/a/a6/Pok%C3%A9mon_Pikachu_art.png"
	DefaultImageEndpoint    = "https://image.pollinations.ai"
	DefaultVideoPrimaryURL  = "https://multimodalart-stable-video-diffusion.hf.space"
	DefaultVideoPrimaryAPI  = "video"
	DefaultVideoFallbackURL = "https://xinyu1205-stable-video-diffusion-img2vid.hf.space"
	DefaultVideoFallbackAPI = "generate_video"
	DefaultChatBaseURL      = "https://router.huggingface.co/v1"
	DefaultChatModel        = "Qwen/Qwen2.5-72B-Instruct"
	DefaultChatSystemPrompt = "You are a helpful AI assistant in Hindi and English."
	DefaultChatMaxTokens    = 800
	DefaultChatWorkers      = 1
	DefaultChatRatePerMin   = 30
)

type Config struct {
	TelegramBotToken    string
	TelegramChatID      string
	TelegramAPIEndpoint string
	HFToken             string
	GeminiAPIKeys       []string
	GeminiModel         string
	WebhookURL          string

	SearchEndpoint    string
	SearchFallbackURL string
	SearchProxies     []string
	ImageEndpoint     string

	VideoPrimaryURL  string
	VideoPrimaryAPI  string
	VideoFallbackURL string
	VideoFallbackAPI string

	ChatBaseURL      string
	ChatModel        string
	ChatSystemPrompt string
	ChatMaxTokens    int
	ChatWorkers      int
	ChatRatePerMin   int

	DefaultLang  string
	DatabasePath string
	WorkDir      string
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
// No variable is required here; a missing credential fails where it is used.
func FromEnv() *Config {
	geminiKeys := getEnv("GEMINI_API_KEYS", "")
	if geminiKeys == "" {
		geminiKeys = getEnv("GEMINI_API_KEY", "")
	}

	return &Config{
		TelegramBotToken:    firstEnv("TG_TOKEN", "TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"),
		TelegramChatID:      getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramAPIEndpoint: getEnv("TELEGRAM_API_ENDPOINT", ""),
		HFToken:             getEnv("HF_TOKEN", ""),
		GeminiAPIKeys:       splitList(geminiKeys),
		GeminiModel:         getEnv("GEMINI_MODEL", DefaultGeminiModel),
		WebhookURL:          getEnv("WEBHOOK_URL", ""),

		SearchEndpoint:    getEnv("SEARCH_ENDPOINT", DefaultSearchEndpoint),
		SearchFallbackURL: getEnv("SEARCH_FALLBACK_URL", DefaultSearchFallback),
		SearchProxies:     splitList(getEnv("SEARCH_PROXIES", "")),
		ImageEndpoint:     getEnv("IMAGE_ENDPOINT", DefaultImageEndpoint),

		VideoPrimaryURL:  getEnv("VIDEO_PRIMARY_URL", DefaultVideoPrimaryURL),
		VideoPrimaryAPI:  getEnv("VIDEO_PRIMARY_API", DefaultVideoPrimaryAPI),
		VideoFallbackURL: getEnv("VIDEO_FALLBACK_URL", DefaultVideoFallbackURL),
		VideoFallbackAPI: getEnv("VIDEO_FALLBACK_API", DefaultVideoFallbackAPI),

		ChatBaseURL:      getEnv("CHAT_BASE_URL", DefaultChatBaseURL),
		ChatModel:        getEnv("CHAT_MODEL", DefaultChatModel),
		ChatSystemPrompt: getEnv("CHAT_SYSTEM_PROMPT", DefaultChatSystemPrompt),
		ChatMaxTokens:    getEnvInt("CHAT_MAX_TOKENS", DefaultChatMaxTokens),
		ChatWorkers:      getEnvInt("CHAT_WORKERS", DefaultChatWorkers),
		ChatRatePerMin:   getEnvInt("CHAT_RATE_PER_MIN", DefaultChatRatePerMin),

		DefaultLang:  getEnv("DEFAULT_LANG", "en"),
		DatabasePath: getEnv("DATABASE_PATH", "./toonreel.db"),
		WorkDir:      getEnv("WORK_DIR", "./runs"),
	}
}

// TelegramEnabled reports whether video delivery and error notices can reach Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return strings.TrimSpace(value)
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := getEnv(key, ""); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
