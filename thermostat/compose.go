package thermostat

import (
	"encoding/json"

	"github.com/edgelab/azureiot-pnp-thermostat/events"
)

// AckPayload builds the reported-property acknowledgment for an
// accepted targetTemperature write. The version is echoed unchanged,
// whether or not it is in order.
func AckPayload(value float64, version uint32) ([]byte, error) {
	return json.Marshal(map[string]events.PropertyAck{
		events.PropertyTargetTemperature: {
			Value:          events.Fixed2(value),
			AckCode:        StatusOK,
			AckVersion:     version,
			AckDescription: "success",
		},
	})
}

// MaxReportPayload builds the reported-property update carrying the
// running maximum.
func MaxReportPayload(maximum float64) ([]byte, error) {
	return json.Marshal(map[string]events.Fixed2{
		events.PropertyMaxTemperature: events.Fixed2(maximum),
	})
}

// TelemetryPayload builds the periodic telemetry message with the
// current temperature.
func TelemetryPayload(current float64) ([]byte, error) {
	return json.Marshal(events.Telemetry{Temperature: events.Fixed2(current)})
}
