package mocks

import "sync"

type PublishedMessage struct {
	Subject string
	Data    []byte
}

// MockMessageQueue records published messages for assertions.
type MockMessageQueue struct {
	mu        sync.Mutex
	Published []PublishedMessage

	PublishFunc   func(subject string, data []byte) error
	SubscribeFunc func(subject string, handler func(data []byte) error) error
}

func NewMockMessageQueue() *MockMessageQueue {
	return &MockMessageQueue{}
}

func (m *MockMessageQueue) Publish(subject string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(subject, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, PublishedMessage{Subject: subject, Data: data})
	return nil
}

func (m *MockMessageQueue) Subscribe(subject string, handler func(data []byte) error) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(subject, handler)
	}
	return nil
}

func (m *MockMessageQueue) Close() error { return nil }

// MessagesFor returns the published messages with the given subject.
func (m *MockMessageQueue) MessagesFor(subject string) []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PublishedMessage
	for _, msg := range m.Published {
		if msg.Subject == subject {
			out = append(out, msg)
		}
	}
	return out
}
