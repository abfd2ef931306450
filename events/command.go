package events

// CommandRequest is a direct-method invocation received from the hub.
//
// see also
// - api: https://learn.microsoft.com/azure/iot/iot-mqtt-connect-to-iot-hub#respond-to-a-direct-method
type CommandRequest struct {
	// Unique ID of the request
	//
	// derived from the topic name; echoed on the response topic
	RequestID string

	// Command name, derived from the topic name
	Name string

	// rest is the raw payload (for getMaxMinReport: a JSON string
	// holding the "since" timestamp)
	Payload []byte
}
