package state

import (
	"log"
	"sync"
	"toonreel/internal/models"
)

// Manager tracks the reply state of every chat the bot has seen.
type Manager struct {
	chatStates map[int64]models.ChatState
	mu         sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		chatStates: make(map[int64]models.ChatState),
	}
}

func (m *Manager) Get(chatID int64) models.ChatState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.chatStates[chatID]
	if !ok {
		return models.ChatIdle
	}
	return state
}

// Begin moves a chat from idle to responding. It returns false when a reply
// for the chat is already in flight.
func (m *Manager) Begin(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.chatStates[chatID] == models.ChatResponding {
		return false
	}
	m.chatStates[chatID] = models.ChatResponding
	log.Printf("State for chat %d set to %s", chatID, models.ChatResponding)
	return true
}

// Done returns a chat to idle.
func (m *Manager) Done(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chatStates, chatID)
	log.Printf("State for chat %d set to %s", chatID, models.ChatIdle)
}

// Responding counts chats with a reply in flight.
func (m *Manager) Responding() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chatStates)
}
