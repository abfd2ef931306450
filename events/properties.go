package events

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Property names of the thermostat model
//
// see also
// - model: https://github.com/Azure/opendigitaltwins-dtdl/blob/master/DTDL/v2/samples/Thermostat.json
const (
	PropertyTargetTemperature = "targetTemperature"
	PropertyMaxTemperature    = "maxTempSinceLastReboot"
)

// TwinKind classifies an inbound twin message.
type TwinKind int

const (
	// Full twin document (response to a twin GET request).
	KindFullDocument TwinKind = iota
	// Desired-property delta pushed by the server.
	KindDesiredPatch
	// Acknowledgment of a reported-property update sent by the device.
	KindReportedResponse
)

func (k TwinKind) String() string {
	switch k {
	case KindFullDocument:
		return "full-document"
	case KindDesiredPatch:
		return "desired-patch"
	case KindReportedResponse:
		return "reported-response"
	}
	return fmt.Sprintf("twin-kind-%d", int(k))
}

// DesiredUpdate is one writable-property message from the server.
//
// TargetTemperature is nil when the desired section carries no
// targetTemperature member (e.g. a patch for properties this device
// does not model).
type DesiredUpdate struct {
	Kind              TwinKind
	TargetTemperature *float64
	// Server-assigned sequence number of the property write ($version),
	// echoed back in the acknowledgment.
	Version uint32
}

// TwinResponse acknowledges a twin request or reported-property update.
//
// Request id and status are extracted from the topic.
type TwinResponse struct {
	RequestID string
	Status    int
}

// desired is the writable-property section of the twin as far as this
// device models it. Unknown members are skipped over.
type desired struct {
	TargetTemperature *float64 `mapstructure:"targetTemperature"`
	Version           uint32   `mapstructure:"$version"`
}

// ParseDesired extracts the writable-property update from a twin payload.
//
// A full document wraps the desired section in {"desired": ..., "reported": ...};
// a desired patch is the section itself (including $version).
func ParseDesired(payload []byte, kind TwinKind) (*DesiredUpdate, error) {
	var section map[string]any

	switch kind {
	case KindFullDocument:
		var doc struct {
			Desired map[string]any `json:"desired"`
		}
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("parse twin document: %w", err)
		}
		section = doc.Desired
	case KindDesiredPatch:
		if err := json.Unmarshal(payload, &section); err != nil {
			return nil, fmt.Errorf("parse desired patch: %w", err)
		}
	default:
		return nil, fmt.Errorf("twin message kind %s carries no desired section", kind)
	}

	var d desired
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		// json numbers arrive as float64; $version needs the weak conversion
		WeaklyTypedInput: true,
		Result:           &d,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(section); err != nil {
		return nil, fmt.Errorf("decode desired section: %w", err)
	}

	return &DesiredUpdate{
		Kind:              kind,
		TargetTemperature: d.TargetTemperature,
		Version:           d.Version,
	}, nil
}

// PropertyAck is the writable-property acknowledgment value per the
// IoT Plug and Play convention.
//
// see also
// - https://learn.microsoft.com/azure/iot/concepts-convention#acknowledgment-responses
type PropertyAck struct {
	Value          Fixed2 `json:"value"`
	AckCode        int    `json:"ac"`
	AckVersion     uint32 `json:"av"`
	AckDescription string `json:"ad,omitempty"`
}

// MaxMinReport is the response body of the getMaxMinReport command.
type MaxMinReport struct {
	MaxTemp Fixed2 `json:"maxTemp"`
	MinTemp Fixed2 `json:"minTemp"`
	AvgTemp Fixed2 `json:"avgTemp"`
	// Copied verbatim from the command payload, not parsed.
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}
