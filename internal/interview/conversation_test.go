package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/intervuhq/intervu/internal/models"
)

func TestConversationAppendAndMessages(t *testing.T) {
	c := NewConversation()
	assert.Equal(t, 0, c.Len())

	c.Append(models.NewMessage(models.RoleInterviewer, "Hello"))
	c.Append(models.NewMessage(models.RoleCandidate, "Hi"))

	msgs := c.Messages()
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "Hello", msgs[0].Content)
	assert.Equal(t, models.RoleCandidate, msgs[1].Role)
}

func TestConversationMessagesReturnsCopy(t *testing.T) {
	c := NewConversation()
	c.Append(models.NewMessage(models.RoleInterviewer, "Hello"))

	msgs := c.Messages()
	msgs[0].Content = "tampered"

	assert.Equal(t, "Hello", c.Messages()[0].Content)
}

func TestConversationObserversSeeAppendsInOrder(t *testing.T) {
	c := NewConversation()

	var seen []string
	c.Observe(func(m models.Message) { seen = append(seen, m.Content) })

	c.Append(models.NewMessage(models.RoleInterviewer, "one"))
	c.Append(models.NewMessage(models.RoleCandidate, "two"))

	assert.Equal(t, []string{"one", "two"}, seen)
}
