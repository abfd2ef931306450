package thermostat

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/edgelab/azureiot-pnp-thermostat/events"
)

// CommandMaxMinReport is the one command this device recognizes.
const CommandMaxMinReport = "getMaxMinReport"

// Command response status codes
const (
	StatusOK             = 200
	StatusNotFound       = 404
	StatusNotImplemented = 501
)

// endTimePlaceholder avoids a time-of-day dependency in the report.
const endTimePlaceholder = "2023-01-10T10:00:00Z"

var emptyPayload = []byte("{}")

// HandleCommand answers a direct-method invocation against the current
// state and returns the status code and response body to send back.
//
// Commands other than getMaxMinReport (case-sensitive) get a 404 with
// an empty object body; the payload is not inspected. A payload from
// which no "since" token can be read degrades to a 501, never an
// escalated failure.
func HandleCommand(state *State, name string, payload []byte) (int, []byte) {
	if name != CommandMaxMinReport {
		log.Info().Str("command", name).Msg("Received command is not for this device")
		return StatusNotFound, emptyPayload
	}

	since, err := readSince(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read since token from command payload")
		return StatusNotImplemented, emptyPayload
	}

	snap := state.Snapshot()
	body, err := json.Marshal(events.MaxMinReport{
		MaxTemp:   events.Fixed2(snap.Maximum),
		MinTemp:   events.Fixed2(snap.Minimum),
		AvgTemp:   events.Fixed2(snap.Average),
		StartTime: since,
		EndTime:   endTimePlaceholder,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to build max/min report")
		return StatusNotImplemented, emptyPayload
	}

	return StatusOK, body
}

// readSince pulls the "since" timestamp token from the command payload.
// The token is treated as opaque text and copied verbatim.
func readSince(payload []byte) (string, error) {
	var since string
	if err := json.Unmarshal(payload, &since); err != nil {
		return "", err
	}
	return since, nil
}
