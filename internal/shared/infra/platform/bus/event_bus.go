package bus

import "context"

type Keyer interface {
	PartitionKey() string
}

// EventPublisher publica payloads ya serializados en un topic. El formato del
// payload lo deciden los adapters; el dispatcher del outbox lo trata como opaco.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// MessageHandler define la interfaz que debe cumplir cualquier consumidor de
// eventos (como el consumidor de embeddings).
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte) error
}
