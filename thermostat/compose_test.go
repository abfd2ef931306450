package thermostat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAckPayload(t *testing.T) {
	payload, err := AckPayload(25.0, 3)

	require.NoError(t, err)
	assert.JSONEq(t,
		`{"targetTemperature": {"value": 25.00, "ac": 200, "av": 3, "ad": "success"}}`,
		string(payload))
}

func TestMaxReportPayload(t *testing.T) {
	payload, err := MaxReportPayload(30.456)

	require.NoError(t, err)
	assert.Equal(t, `{"maxTempSinceLastReboot":30.46}`, string(payload))
}

func TestTelemetryPayload(t *testing.T) {
	payload, err := TelemetryPayload(22.0)

	require.NoError(t, err)
	assert.Equal(t, `{"temperature":22.00}`, string(payload))
}
