package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thermostat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
hub:
  hostname: myhub.azure-devices.net
  device_id: thermostat-1
  symmetric_key: a2V5
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "myhub.azure-devices.net", cfg.Hub.Hostname)
	assert.Equal(t, "thermostat-1", cfg.Hub.DeviceID)
	assert.Equal(t, DefaultModelID, cfg.Hub.ModelID)
	assert.Equal(t, 22.0, cfg.Device.InitialTemperature)
	assert.Equal(t, 2*time.Second, cfg.Device.PublishInterval)
	assert.Equal(t, 5*time.Second, cfg.Device.CycleDelay)
	assert.Equal(t, uint64(5), cfg.Device.ConnectAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Device.ConnectBackoffMin)
	assert.Equal(t, 5*time.Second, cfg.Device.ConnectBackoffMax)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
hub:
  hostname: myhub.azure-devices.net
  device_id: thermostat-1
  model_id: "dtmi:com:example:Thermostat;2"
device:
  initial_temperature: 18.5
  publish_interval: 10s
  connect_attempts: 2
metrics:
  listen: ":9090"
log_level: debug
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "dtmi:com:example:Thermostat;2", cfg.Hub.ModelID)
	assert.Equal(t, 18.5, cfg.Device.InitialTemperature)
	assert.Equal(t, 10*time.Second, cfg.Device.PublishInterval)
	assert.Equal(t, uint64(2), cfg.Device.ConnectAttempts)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRequiresHostnameAndDeviceID(t *testing.T) {
	_, err := Load(writeConfig(t, `
hub:
  device_id: thermostat-1
`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `
hub:
  hostname: myhub.azure-devices.net
`))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "hub: ["))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/thermostat.yaml")
	assert.Error(t, err)
}

func TestFindConfigExplicit(t *testing.T) {
	path := writeConfig(t, "hub: {}\n")

	got, err := FindConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestFindConfigExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/thermostat.yaml")
	assert.Error(t, err)
}
