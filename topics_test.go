package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMethodTopic(t *testing.T) {
	name, rid, ok := parseMethodTopic("$iothub/methods/POST/getMaxMinReport/?$rid=42")

	assert.True(t, ok)
	assert.Equal(t, "getMaxMinReport", name)
	assert.Equal(t, "42", rid)
}

func TestParseMethodTopicRejectsMalformed(t *testing.T) {
	for _, topic := range []string{
		"$iothub/methods/POST/",
		"$iothub/methods/POST/name",
		"$iothub/methods/POST//?$rid=1",
		"$iothub/methods/POST/name/?version=1",
		"$iothub/twin/res/200/?$rid=1",
	} {
		_, _, ok := parseMethodTopic(topic)
		assert.False(t, ok, "topic %q", topic)
	}
}

func TestParseTwinResponseTopic(t *testing.T) {
	status, rid, ok := parseTwinResponseTopic("$iothub/twin/res/204/?$rid=abc&$version=6")

	assert.True(t, ok)
	assert.Equal(t, 204, status)
	assert.Equal(t, "abc", rid)
}

func TestParseTwinResponseTopicRejectsMalformed(t *testing.T) {
	for _, topic := range []string{
		"$iothub/twin/res/",
		"$iothub/twin/res/abc/?$rid=1",
		"$iothub/twin/res/200/?$version=6",
		"$iothub/methods/POST/name/?$rid=1",
	} {
		_, _, ok := parseTwinResponseTopic(topic)
		assert.False(t, ok, "topic %q", topic)
	}
}

func TestUsernameFor(t *testing.T) {
	username := usernameFor("myhub.azure-devices.net", "thermostat-1", "dtmi:com:example:Thermostat;1")
	assert.Equal(t,
		"myhub.azure-devices.net/thermostat-1/?api-version=2021-04-12&model-id=dtmi:com:example:Thermostat;1",
		username)

	// model id is optional
	username = usernameFor("myhub.azure-devices.net", "thermostat-1", "")
	assert.Equal(t, "myhub.azure-devices.net/thermostat-1/?api-version=2021-04-12", username)
}
