package apikeys

import (
	"errors"
	"log"
	"strings"
	"sync"
)

var ErrNoKeysAvailable = errors.New("no API keys available")
var ErrAllKeysExhausted = errors.New("all available API keys have been exhausted")

// KeyManager hands out API keys and rotates to the next one when a provider
// reports quota or auth trouble.
type KeyManager struct {
	name         string
	keys         []string
	currentIndex int
	mutex        sync.Mutex
}

// NewManager creates a KeyManager for the named provider. Blank keys are dropped.
func NewManager(name string, keys []string) (*KeyManager, error) {
	var usable []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			usable = append(usable, k)
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoKeysAvailable
	}
	return &KeyManager{name: name, keys: usable}, nil
}

// Current returns the active key.
func (km *KeyManager) Current() string {
	km.mutex.Lock()
	defer km.mutex.Unlock()
	return km.keys[km.currentIndex]
}

// Rotate moves to the next key. It returns ErrAllKeysExhausted after wrapping
// past the last key; the manager then starts over from the first key.
func (km *KeyManager) Rotate() error {
	km.mutex.Lock()
	defer km.mutex.Unlock()

	log.Printf("%s key %d has failed or is exhausted. Rotating to the next key.", km.name, km.currentIndex+1)
	km.currentIndex++

	if km.currentIndex >= len(km.keys) {
		log.Printf("Warning: all %s keys have been tried and failed.", km.name)
		km.currentIndex = 0
		return ErrAllKeysExhausted
	}

	log.Printf("Switched to %s key %d.", km.name, km.currentIndex+1)
	return nil
}

// Len is the number of usable keys, i.e. the attempt budget for one call.
func (km *KeyManager) Len() int {
	return len(km.keys)
}
