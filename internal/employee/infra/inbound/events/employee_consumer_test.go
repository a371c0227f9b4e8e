package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	employeeDomain "github.com/davicafu/lazygrid/internal/employee/domain"
	sharedEvents "github.com/davicafu/lazygrid/internal/shared/domain/events"
	sharedInfraEvents "github.com/davicafu/lazygrid/internal/shared/infra/events"
)

type fakeInvalidator struct {
	ids chan []string
}

func (f *fakeInvalidator) InvalidateCache(ctx context.Context, ids []string) {
	f.ids <- ids
}

func integrationEvent(t *testing.T, eventType string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(sharedEvents.IntegrationEvent{Type: eventType, Data: raw, Timestamp: time.Now()})
	require.NoError(t, err)
	return payload
}

func TestEmployeeConsumer_HandleMessage(t *testing.T) {
	id := uuid.New()
	other := uuid.New().String()

	tests := []struct {
		name    string
		payload []byte
		want    []string
	}{
		{"created", integrationEvent(t, employeeDomain.EmployeeCreated, employeeDomain.Employee{ID: id}), []string{id.String()}},
		{"updated", integrationEvent(t, employeeDomain.EmployeeUpdated, employeeDomain.Employee{ID: id}), []string{id.String()}},
		{"deleted", integrationEvent(t, employeeDomain.EmployeeDeleted, employeeDomain.DeletedPayload{IDs: []string{id.String()}}), []string{id.String()}},
		{"batch", integrationEvent(t, employeeDomain.EmployeesDeleted, employeeDomain.DeletedPayload{IDs: []string{id.String(), other}}), []string{id.String(), other}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvalidator{ids: make(chan []string, 1)}
			NewEmployeeConsumer(inv, zap.NewNop()).HandleMessage(context.Background(), "", tt.payload)

			select {
			case got := <-inv.ids:
				assert.Equal(t, tt.want, got)
			default:
				t.Fatal("cache was not invalidated")
			}
		})
	}
}

func TestEmployeeConsumer_IgnoresGarbage(t *testing.T) {
	inv := &fakeInvalidator{ids: make(chan []string, 1)}
	consumer := NewEmployeeConsumer(inv, zap.NewNop())

	consumer.HandleMessage(context.Background(), "", []byte("not json"))
	consumer.HandleMessage(context.Background(), "", integrationEvent(t, "task.created", map[string]string{}))
	consumer.HandleMessage(context.Background(), "", []byte(`{"type":"employee.updated","data":"oops"}`))

	assert.Empty(t, inv.ids)
}

// Del bus en memoria al consumidor, como en despliegues sin Kafka.
func TestEmployeeConsumer_FromInMemoryBus(t *testing.T) {
	bus := sharedInfraEvents.NewInMemoryEventBus(employeeDomain.EmployeeTopic)
	inv := &fakeInvalidator{ids: make(chan []string, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sharedInfraEvents.ConsumeChannel(ctx, bus.Subscribe(4), NewEmployeeConsumer(inv, zap.NewNop()), zap.NewNop())

	id := uuid.New()
	raw, _ := json.Marshal(employeeDomain.DeletedPayload{IDs: []string{id.String()}})
	require.NoError(t, bus.Publish(ctx, sharedEvents.IntegrationEvent{Type: employeeDomain.EmployeeDeleted, AggregateID: id.String(), Data: raw}))

	select {
	case got := <-inv.ids:
		assert.Equal(t, []string{id.String()}, got)
	case <-time.After(time.Second):
		t.Fatal("event not consumed")
	}
}
