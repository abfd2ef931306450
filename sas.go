package hub

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"
)

// GenerateSASToken builds a shared access signature for the given
// resource URI (e.g. "myhub.azure-devices.net/devices/dev1"), signed
// with the base64-encoded device symmetric key and valid until expiry.
//
// The token is used as the MQTT CONNECT password.
//
// see also
// - https://learn.microsoft.com/azure/iot-hub/authenticate-authorize-sas
func GenerateSASToken(resourceURI, deviceKey string, expiry time.Time) (string, error) {
	key, err := base64.StdEncoding.DecodeString(deviceKey)
	if err != nil {
		return "", fmt.Errorf("decode device key: %w", err)
	}

	audience := url.QueryEscape(resourceURI)
	se := expiry.Unix()

	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s\n%d", audience, se)
	signature := url.QueryEscape(base64.StdEncoding.EncodeToString(mac.Sum(nil)))

	return fmt.Sprintf("SharedAccessSignature sr=%s&sig=%s&se=%d", audience, signature, se), nil
}
