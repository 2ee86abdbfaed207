package realtime

import (
	"context"
	"errors"

	"energy-monitor/internal/eventing"
	"energy-monitor/internal/telemetry/application/events"
)

// SubscribeHub wires the hub to measurement events on the bus.
func SubscribeHub(bus eventing.EventBus, hub *Hub) error {
	if bus == nil || hub == nil {
		return errors.New("realtime: nil bus or hub")
	}
	bus.Subscribe(eventing.EventTypeOf[events.MeasurementReceived](), func(ctx context.Context, event any) error {
		received, ok := event.(events.MeasurementReceived)
		if !ok {
			return nil
		}
		hub.Broadcast(received.Measurement)
		return nil
	})
	return nil
}
