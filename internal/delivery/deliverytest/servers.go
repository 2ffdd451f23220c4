// Package deliverytest provides fake Telegram Bot API and webhook servers.
package deliverytest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

type Upload struct {
	ChatID   string
	Caption  string
	Filename string
	Data     string
}

// Telegram fakes the Bot API methods the project calls.
type Telegram struct {
	*httptest.Server
	// Fail makes every method answer with ok=false.
	Fail bool

	mu       sync.Mutex
	requests int
	videos   []Upload
	messages []Upload
}

func NewTelegram() *Telegram {
	tg := &Telegram{}
	tg.Server = httptest.NewServer(http.HandlerFunc(tg.handle))
	return tg
}

// Endpoint is the value for tgbotapi's API endpoint format.
func (tg *Telegram) Endpoint() string {
	return tg.URL + "/bot%s/%s"
}

func (tg *Telegram) handle(w http.ResponseWriter, r *http.Request) {
	tg.mu.Lock()
	tg.requests++
	tg.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if tg.Fail {
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
		return
	}

	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	switch method {
	case "sendVideo":
		file, header, err := r.FormFile("video")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		tg.mu.Lock()
		tg.videos = append(tg.videos, Upload{
			ChatID:   r.FormValue("chat_id"),
			Caption:  r.FormValue("caption"),
			Filename: header.Filename,
			Data:     string(data),
		})
		tg.mu.Unlock()
	case "sendMessage":
		tg.mu.Lock()
		tg.messages = append(tg.messages, Upload{ChatID: r.FormValue("chat_id"), Data: r.FormValue("text")})
		tg.mu.Unlock()
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"toonreel","username":"toonreel_bot"}}`)
		return
	default:
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
}

// Requests counts every Bot API call, whatever the method.
func (tg *Telegram) Requests() int {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.requests
}

func (tg *Telegram) Videos() []Upload {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return append([]Upload(nil), tg.videos...)
}

func (tg *Telegram) Messages() []Upload {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return append([]Upload(nil), tg.messages...)
}

// Webhook records multipart posts to any path.
type Webhook struct {
	*httptest.Server
	Status int

	mu    sync.Mutex
	posts []Upload
}

func NewWebhook() *Webhook {
	wh := &Webhook{Status: http.StatusOK}
	wh.Server = httptest.NewServer(http.HandlerFunc(wh.handle))
	return wh
}

func (wh *Webhook) handle(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, _ := io.ReadAll(file)
	wh.mu.Lock()
	wh.posts = append(wh.posts, Upload{Caption: r.FormValue("caption"), Filename: header.Filename, Data: string(data)})
	wh.mu.Unlock()
	w.WriteHeader(wh.Status)
}

func (wh *Webhook) Posts() []Upload {
	wh.mu.Lock()
	defer wh.mu.Unlock()
	return append([]Upload(nil), wh.posts...)
}
