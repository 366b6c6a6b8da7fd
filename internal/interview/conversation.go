package interview

import (
	"sync"

	"github.com/intervuhq/intervu/internal/models"
)

// Conversation is the append-only interview transcript. Observers are
// notified synchronously, in append order, outside the lock.
type Conversation struct {
	mu        sync.Mutex
	messages  []models.Message
	observers []func(models.Message)
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message and notifies observers.
func (c *Conversation) Append(msg models.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	observers := c.observers
	c.mu.Unlock()

	for _, fn := range observers {
		fn(msg)
	}
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Observe registers fn to receive every subsequently appended message.
func (c *Conversation) Observe(fn func(models.Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}
