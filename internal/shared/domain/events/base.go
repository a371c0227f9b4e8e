package events

import (
	"encoding/json"
	"reflect"
	"time"
)

// Base de todos los eventos de integración
type IntegrationEvent struct {
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
}

// PartitionKey agrupa en la misma partición los eventos de un agregado.
func (e IntegrationEvent) PartitionKey() string {
	return e.AggregateID
}

// EventMetadata dice a qué tipo decodificar el payload y en qué topic publicarlo.
type EventMetadata struct {
	Type  reflect.Type
	Topic string
}
