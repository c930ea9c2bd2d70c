package pubsub

// Publisher side of the broker.
type Publisher interface {
	Pub(topic string, data []byte) error
}

// Subscriber side of the broker.
type Subscriber interface {
	Sub(topic string, cb func(data []byte)) (unsub func() error, err error)
}

// PubSub broker. Delivery is at-least-once and unordered across topics.
type PubSub interface {
	Publisher
	Subscriber
}
