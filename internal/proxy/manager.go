package proxy

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

var ErrNoProxiesAvailable = errors.New("no proxy URLs available")
var ErrAllProxiesExhausted = errors.New("all available proxies have been exhausted")

// Manager rotates outbound HTTP proxies for providers that rate-limit by IP.
type Manager struct {
	proxies      []*url.URL
	currentIndex int
	mutex        sync.Mutex
}

func NewManager(proxyStrings []string) (*Manager, error) {
	var proxies []*url.URL
	for _, p := range proxyStrings {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		proxyURL, err := url.Parse(p)
		if err != nil || proxyURL.Host == "" {
			log.Printf("Warning: could not parse proxy URL '%s', skipping. Error: %v", p, err)
			continue
		}
		proxies = append(proxies, proxyURL)
	}

	if len(proxies) == 0 {
		return nil, ErrNoProxiesAvailable
	}

	return &Manager{proxies: proxies}, nil
}

func (pm *Manager) Current() *url.URL {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	return pm.proxies[pm.currentIndex]
}

// ProxyFunc plugs the manager into an http.Transport so every request uses
// whichever proxy is current at dial time.
func (pm *Manager) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		return pm.Current(), nil
	}
}

func (pm *Manager) Rotate() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	log.Printf("Proxy %s failed or is exhausted. Rotating to the next proxy.", pm.proxies[pm.currentIndex].Redacted())
	pm.currentIndex++

	if pm.currentIndex >= len(pm.proxies) {
		log.Println("Warning: all proxies have been tried. Resetting to the first proxy.")
		pm.currentIndex = 0
		return ErrAllProxiesExhausted
	}

	log.Printf("Switched to proxy %s.", pm.proxies[pm.currentIndex].Redacted())
	return nil
}

func (pm *Manager) Len() int {
	return len(pm.proxies)
}
