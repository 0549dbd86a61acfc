package queue

// MessageQueue is the broker contract used to publish detection events.
// Two implementations exist (NATS, RabbitMQ); config picks one at startup.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
