package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// MockEventBus implements EventBus for testing
type MockEventBus struct {
	events []map[string]interface{}
}

func (m *MockEventBus) PublishRequest(requestID string, event map[string]interface{}) error {
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventBus) PublishTask(taskID string, event map[string]interface{}) error {
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventBus) PublishCustomer(userID string, event map[string]interface{}) error {
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventBus) PublishAdmin(event map[string]interface{}) error {
	m.events = append(m.events, event)
	return nil
}

func TestLineKey_Deterministic(t *testing.T) {
	key1 := lineKey("req-1", 0, "Replace screen")
	key2 := lineKey("req-1", 0, "Replace screen")
	assert.Equal(t, key1, key2)
	assert.Len(t, key1, 32)
}

func TestLineKey_WhitespaceInsensitive(t *testing.T) {
	assert.Equal(t,
		lineKey("req-1", 0, "Replace screen"),
		lineKey("req-1", 0, "  Replace screen  "))
}

func TestLineKey_DistinguishesPosition(t *testing.T) {
	// The same description at different positions is a different line:
	// notes can legitimately repeat a step.
	assert.NotEqual(t,
		lineKey("req-1", 0, "Replace screen"),
		lineKey("req-1", 1, "Replace screen"))
}

func TestLineKey_DistinguishesRequest(t *testing.T) {
	assert.NotEqual(t,
		lineKey("req-1", 0, "Replace screen"),
		lineKey("req-2", 0, "Replace screen"))
}

func TestLineKey_NoDelimiterCollision(t *testing.T) {
	// Fields are NUL-separated, so shifting characters between the index
	// and description cannot collide.
	assert.NotEqual(t,
		lineKey("req-1", 1, "2x battery"),
		lineKey("req-1", 12, "x battery"))
}
