// Package notifier broadcasts user-facing success and error notifications.
package notifier

import "sync"

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a single toast.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier fans notifications out to all subscribed listeners.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Notification]struct{}
	buffer    int
}

// New creates a Notifier whose listener channels hold up to buffer
// undelivered notifications. A buffer below 1 is raised to 1.
func New(buffer int) *Notifier {
	if buffer < 1 {
		buffer = 1
	}
	return &Notifier{
		listeners: make(map[chan Notification]struct{}),
		buffer:    buffer,
	}
}

// Subscribe returns a channel that receives notifications.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe() chan Notification {
	ch := make(chan Notification, n.buffer)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Notification) {
	n.mu.Lock()
	if _, ok := n.listeners[ch]; ok {
		delete(n.listeners, ch)
		close(ch)
	}
	n.mu.Unlock()
}

// Success publishes a success notification.
func (n *Notifier) Success(msg string) {
	n.Publish(Notification{Level: LevelSuccess, Message: msg})
}

// Error publishes an error notification.
func (n *Notifier) Error(msg string) {
	n.Publish(Notification{Level: LevelError, Message: msg})
}

// Publish sends a notification to all listeners.
// Non-blocking: if a listener's channel is full, the notification is dropped for it.
func (n *Notifier) Publish(note Notification) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- note:
		default:
		}
	}
}
