package notifications

import (
	"sync"
	"time"
)

// EventType represents the type of notification event
type EventType string

const (
	EventConnected       EventType = "connected"
	EventImportStarted   EventType = "import-started"
	EventImportProgress  EventType = "import-progress"
	EventImportCompleted EventType = "import-completed"
)

// Event represents a notification event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Service manages SSE subscriptions and event broadcasting
type Service struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	done        chan struct{}
}

var (
	instance *Service
	instOnce sync.Once
)

// GetService returns the singleton notification service
func GetService() *Service {
	instOnce.Do(func() {
		instance = NewService()
	})
	return instance
}

// NewService creates a new notification service
func NewService() *Service {
	return &Service{
		subscribers: make(map[chan Event]struct{}),
		done:        make(chan struct{}),
	}
}

// Subscribe creates a new subscription channel
// Returns the event channel and an unsubscribe function
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 10)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		// Only close if the channel is still in subscribers map
		if _, exists := s.subscribers[ch]; exists {
			delete(s.subscribers, ch)
			close(ch)
		}
	}

	return ch, unsubscribe
}

// Notify broadcasts an event to all subscribers
func (s *Service) Notify(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip this subscriber
		}
	}
}

// NotifyImportStarted announces a new import (single-shot or staged init)
func (s *Service) NotifyImportStarted(userID, importID string, total int) {
	s.Notify(Event{
		Type: EventImportStarted,
		Data: map[string]any{
			"userId":   userID,
			"importId": importID,
			"total":    total,
		},
	})
}

// NotifyImportProgress announces chunk completion for a staged import
func (s *Service) NotifyImportProgress(userID, importID, stage string, imported, skipped int) {
	s.Notify(Event{
		Type: EventImportProgress,
		Data: map[string]any{
			"userId":   userID,
			"importId": importID,
			"stage":    stage,
			"imported": imported,
			"skipped":  skipped,
		},
	})
}

// NotifyImportCompleted announces a finished single-shot import
func (s *Service) NotifyImportCompleted(userID string, imported, skipped, total int) {
	s.Notify(Event{
		Type: EventImportCompleted,
		Data: map[string]any{
			"userId":   userID,
			"imported": imported,
			"skipped":  skipped,
			"total":    total,
		},
	})
}

// Shutdown closes the notification service
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	close(s.done)

	// Close all subscriber channels
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan Event]struct{})
}

// SubscriberCount returns the number of active subscribers
func (s *Service) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
