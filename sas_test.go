package hub

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSASTokenShape(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("device key material"))
	expiry := time.Unix(1735689600, 0) // 2025-01-01T00:00:00Z

	token, err := GenerateSASToken("myhub.azure-devices.net/devices/thermostat-1", key, expiry)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "SharedAccessSignature sr="))
	assert.Contains(t, token, "sr=myhub.azure-devices.net%2Fdevices%2Fthermostat-1")
	assert.Contains(t, token, "&sig=")
	assert.True(t, strings.HasSuffix(token, fmt.Sprintf("&se=%d", expiry.Unix())))
}

func TestGenerateSASTokenIsDeterministic(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("device key material"))
	expiry := time.Unix(1735689600, 0)

	first, err := GenerateSASToken("myhub.azure-devices.net/devices/thermostat-1", key, expiry)
	require.NoError(t, err)
	second, err := GenerateSASToken("myhub.azure-devices.net/devices/thermostat-1", key, expiry)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateSASTokenDependsOnKeyAndExpiry(t *testing.T) {
	keyA := base64.StdEncoding.EncodeToString([]byte("key a"))
	keyB := base64.StdEncoding.EncodeToString([]byte("key b"))
	expiry := time.Unix(1735689600, 0)

	tokenA, err := GenerateSASToken("myhub.azure-devices.net/devices/d", keyA, expiry)
	require.NoError(t, err)
	tokenB, err := GenerateSASToken("myhub.azure-devices.net/devices/d", keyB, expiry)
	require.NoError(t, err)
	assert.NotEqual(t, tokenA, tokenB)

	tokenLater, err := GenerateSASToken("myhub.azure-devices.net/devices/d", keyA, expiry.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, tokenA, tokenLater)
}

func TestGenerateSASTokenRejectsInvalidKey(t *testing.T) {
	_, err := GenerateSASToken("myhub.azure-devices.net/devices/d", "not base64!!!", time.Now())
	assert.Error(t, err)
}
