package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDesiredPatch(t *testing.T) {
	// arrange
	// https://learn.microsoft.com/azure/iot-hub/iot-hub-devguide-device-twins
	jsonData := `
	{
		"targetTemperature": 25.5,
		"$version": 4
	}`

	// act
	upd, err := ParseDesired([]byte(jsonData), KindDesiredPatch)

	// assert
	require.NoError(t, err)
	assert.Equal(t, KindDesiredPatch, upd.Kind)
	require.NotNil(t, upd.TargetTemperature)
	assert.Equal(t, 25.5, *upd.TargetTemperature)
	assert.Equal(t, uint32(4), upd.Version)
}

func TestParseDesiredFullDocument(t *testing.T) {
	// arrange
	jsonData := `
	{
		"desired": {
			"targetTemperature": 21.0,
			"$version": 2
		},
		"reported": {
			"maxTempSinceLastReboot": 22.0,
			"$version": 7
		}
	}`

	// act
	upd, err := ParseDesired([]byte(jsonData), KindFullDocument)

	// assert
	require.NoError(t, err)
	assert.Equal(t, KindFullDocument, upd.Kind)
	require.NotNil(t, upd.TargetTemperature)
	assert.Equal(t, 21.0, *upd.TargetTemperature)
	assert.Equal(t, uint32(2), upd.Version)
}

func TestParseDesiredSkipsUnknownProperties(t *testing.T) {
	jsonData := `
	{
		"fanSpeed": 3,
		"displayUnit": "celsius",
		"$version": 9
	}`

	upd, err := ParseDesired([]byte(jsonData), KindDesiredPatch)

	require.NoError(t, err)
	assert.Nil(t, upd.TargetTemperature, "patch without targetTemperature should yield no value")
	assert.Equal(t, uint32(9), upd.Version)
}

func TestParseDesiredEmptyDesiredSection(t *testing.T) {
	upd, err := ParseDesired([]byte(`{"desired": {}, "reported": {}}`), KindFullDocument)

	require.NoError(t, err)
	assert.Nil(t, upd.TargetTemperature)
	assert.Equal(t, uint32(0), upd.Version)
}

func TestParseDesiredMalformedPayload(t *testing.T) {
	_, err := ParseDesired([]byte(`{"targetTemperature": `), KindDesiredPatch)
	assert.Error(t, err)
}

func TestParseDesiredReportedResponseHasNoSection(t *testing.T) {
	_, err := ParseDesired([]byte(`{}`), KindReportedResponse)
	assert.Error(t, err)
}

func TestFixed2Marshal(t *testing.T) {
	payload, err := json.Marshal(Telemetry{Temperature: 23.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"temperature": 23.50}`, string(payload))
	assert.Equal(t, `{"temperature":23.50}`, string(payload))
}

func TestPropertyAckShape(t *testing.T) {
	ack := map[string]PropertyAck{
		PropertyTargetTemperature: {
			Value:          25,
			AckCode:        200,
			AckVersion:     3,
			AckDescription: "success",
		},
	}

	payload, err := json.Marshal(ack)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"targetTemperature": {"value": 25.00, "ac": 200, "av": 3, "ad": "success"}}`,
		string(payload))
}
