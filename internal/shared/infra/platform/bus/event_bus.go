package bus

import "context"

// Keyer lo implementan los eventos con clave de partición.
type Keyer interface {
	PartitionKey() string
}

// EventBus publica eventos ya serializables; el topic lo fija el adapter.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}
