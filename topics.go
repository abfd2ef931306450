package hub

import (
	"fmt"
	"strconv"
	"strings"
)

// MQTT topics of the IoT Hub device surface
//
// see also
// - api: https://learn.microsoft.com/azure/iot/iot-mqtt-connect-to-iot-hub
const (
	qos = byte(1) // qos to utilise when publishing

	telemetryTopicFmt = "devices/%s/messages/events/"

	methodRequestTopic     = "$iothub/methods/POST/"
	methodResponseTopicFmt = "$iothub/methods/res/%d/?$rid=%s"

	twinResponseTopic    = "$iothub/twin/res/"
	twinDesiredTopic     = "$iothub/twin/PATCH/properties/desired/"
	twinGetTopicFmt      = "$iothub/twin/GET/?$rid=%s"
	twinReportedTopicFmt = "$iothub/twin/PATCH/properties/reported/?$rid=%s"

	apiVersion = "2021-04-12"
)

// parseMethodTopic extracts the method name and request id from
// "$iothub/methods/POST/{name}/?$rid={rid}".
func parseMethodTopic(topic string) (name string, rid string, ok bool) {
	rest, found := strings.CutPrefix(topic, methodRequestTopic)
	if !found {
		return "", "", false
	}
	name, query, found := strings.Cut(rest, "/?")
	if !found || name == "" {
		return "", "", false
	}
	rid = queryParam(query, "$rid")
	return name, rid, rid != ""
}

// parseTwinResponseTopic extracts the status code and request id from
// "$iothub/twin/res/{status}/?$rid={rid}" (further parameters such as
// $version may follow).
func parseTwinResponseTopic(topic string) (status int, rid string, ok bool) {
	rest, found := strings.CutPrefix(topic, twinResponseTopic)
	if !found {
		return 0, "", false
	}
	statusText, query, found := strings.Cut(rest, "/?")
	if !found {
		return 0, "", false
	}
	status, err := strconv.Atoi(statusText)
	if err != nil {
		return 0, "", false
	}
	rid = queryParam(query, "$rid")
	return status, rid, rid != ""
}

// queryParam pulls one parameter out of a topic query segment. The
// keys contain '$', so this avoids url.ParseQuery escaping rules.
func queryParam(query, key string) string {
	for _, pair := range strings.Split(query, "&") {
		if value, found := strings.CutPrefix(pair, key+"="); found {
			return value
		}
	}
	return ""
}

// usernameFor builds the CONNECT username announcing the PnP model id.
func usernameFor(hostname, deviceID, modelID string) string {
	username := fmt.Sprintf("%s/%s/?api-version=%s", hostname, deviceID, apiVersion)
	if modelID != "" {
		username += "&model-id=" + modelID
	}
	return username
}
