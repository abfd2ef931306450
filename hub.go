// Package hub implements the device-side MQTT surface of Azure IoT
// Hub: telemetry, twin properties and direct methods.
package hub

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/edgelab/azureiot-pnp-thermostat/events"
)

// MQTT configuration for the IoT Hub connection
type Config struct {
	Hostname string `yaml:"hostname"`  // IoT Hub hostname, e.g. myhub.azure-devices.net
	DeviceID string `yaml:"device_id"` // also used as the MQTT client id
	ModelID  string `yaml:"model_id"`  // PnP model id announced in the username

	// Device symmetric key (base64) used to mint the SAS token that
	// serves as the MQTT password.
	SymmetricKey string        `yaml:"symmetric_key"`
	SASTokenTTL  time.Duration `yaml:"sas_token_ttl"` // default 1h

	// Optional broker URL override (default tls://{hostname}:8883).
	// Set together with Username/Password to talk to a plain broker.
	BrokerURL string `yaml:"broker_url"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`

	RootCAFile string `yaml:"root_ca_file"` // root CA for the TLS session, system pool if empty
	KeepAlive  uint16 `yaml:"keep_alive"`   // seconds between keepalive packets
}

type Hub struct {
	config      Config
	client      *autopaho.ConnectionManager
	isConnected bool

	// queues of received events from the hub
	Commands       chan *events.CommandRequest
	DesiredUpdates chan *events.DesiredUpdate
	TwinResponses  chan *events.TwinResponse
}

func NewClient(cfg Config) *Hub {
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 60
	}
	if cfg.SASTokenTTL == 0 {
		cfg.SASTokenTTL = time.Hour
	}
	return &Hub{
		config:         cfg,
		isConnected:    false,
		Commands:       make(chan *events.CommandRequest, 100),
		DesiredUpdates: make(chan *events.DesiredUpdate, 10),
		TwinResponses:  make(chan *events.TwinResponse, 10),
	}
}

// Connect establishes the MQTT session and subscribes to the command,
// twin response and desired-property topics. It blocks until the
// connection is up or ctx is done.
func (h *Hub) Connect(ctx context.Context) error {
	brokerURL := h.config.BrokerURL
	if brokerURL == "" {
		brokerURL = fmt.Sprintf("tls://%s:8883", h.config.Hostname)
	}
	parsedURL, err := url.Parse(brokerURL)
	if err != nil {
		return fmt.Errorf("parse broker URL (%s): %w", brokerURL, err)
	}

	username := h.config.Username
	password := h.config.Password
	if username == "" {
		username = usernameFor(h.config.Hostname, h.config.DeviceID, h.config.ModelID)
		password, err = GenerateSASToken(
			h.config.Hostname+"/devices/"+h.config.DeviceID,
			h.config.SymmetricKey,
			time.Now().Add(h.config.SASTokenTTL),
		)
		if err != nil {
			return fmt.Errorf("generate SAS token: %w", err)
		}
	}

	tlsCfg, err := h.tlsConfig(parsedURL)
	if err != nil {
		return err
	}

	var subscriptions = []paho.SubscribeOptions{
		// listen to direct-method invocations
		{
			Topic: methodRequestTopic + "#",
			QoS:   qos,
		},
		// listen to twin GET responses and reported-property acks
		{
			Topic: twinResponseTopic + "#",
			QoS:   qos,
		},
		// listen to desired-property patches
		{
			Topic: twinDesiredTopic + "#",
			QoS:   qos,
		},
	}

	cliCfg := autopaho.ClientConfig{
		BrokerUrls:                    []*url.URL{parsedURL},
		TlsCfg:                        tlsCfg,
		KeepAlive:                     h.config.KeepAlive,
		CleanStartOnInitialConnection: true,
		ConnectUsername:               username,
		ConnectPassword:               []byte(password),
		OnConnectionUp: func(cm *autopaho.ConnectionManager, connAck *paho.Connack) {
			log.Info().Msg("MQTT connection up")
			h.isConnected = true
			if _, err := cm.Subscribe(context.Background(), &paho.Subscribe{
				Subscriptions: subscriptions,
			}); err != nil {
				log.Error().Msgf("Failed to subscribe: %s", err)
				return
			}
			log.Info().Msg("MQTT subscriptions made")
		},

		OnConnectError: func(err error) {
			log.Error().Msgf("Error whilst attempting connection: %s", err)
		},

		ClientConfig: paho.ClientConfig{
			ClientID: h.config.DeviceID,
			Router:   paho.NewStandardRouterWithDefault(h.route),
			OnClientError: func(err error) {
				log.Error().Msgf("Client error: %s", err)
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				if d.Properties != nil {
					log.Error().Msgf("Server requested disconnect: %s", d.Properties.ReasonString)
				} else {
					log.Error().Msgf("Server requested disconnect with reason code: %d", d.ReasonCode)
				}
			},
		},
	}

	log.Info().Msgf("Connect to IoT Hub MQTT at %s...", brokerURL)
	h.client, err = autopaho.NewConnection(ctx, cliCfg)
	if err != nil {
		return fmt.Errorf("create MQTT connection: %w", err)
	}
	// Wait for the connection to come up
	if err = h.client.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("await MQTT connection: %w", err)
	}
	return nil
}

// tlsConfig builds the TLS session config for secure broker schemes.
func (h *Hub) tlsConfig(brokerURL *url.URL) (*tls.Config, error) {
	switch brokerURL.Scheme {
	case "tls", "ssl", "mqtts", "tcps":
	default:
		return nil, nil
	}

	cfg := &tls.Config{ServerName: brokerURL.Hostname()}
	if h.config.RootCAFile != "" {
		pem, err := os.ReadFile(h.config.RootCAFile)
		if err != nil {
			return nil, fmt.Errorf("read root CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", h.config.RootCAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// route dispatches one inbound publish to the matching queue.
func (h *Hub) route(msg *paho.Publish) {
	// direct-method invocations
	if strings.HasPrefix(msg.Topic, methodRequestTopic) {
		name, rid, ok := parseMethodTopic(msg.Topic)
		if !ok {
			log.Error().Msgf("Command request id could not be extracted from %s", msg.Topic)
			return
		}
		log.Info().Msgf("Received command %s with id #%s", name, rid)
		h.Commands <- &events.CommandRequest{RequestID: rid, Name: name, Payload: msg.Payload}
		return
	}

	// desired-property patches
	if strings.HasPrefix(msg.Topic, twinDesiredTopic) {
		upd, err := events.ParseDesired(msg.Payload, events.KindDesiredPatch)
		if err != nil {
			log.Error().Msgf("Failed to parse desired patch: %s. Payload: %s", err, msg.Payload)
			return
		}
		log.Info().Msgf("Received desired-property patch with version #%d", upd.Version)
		h.DesiredUpdates <- upd
		return
	}

	// twin responses: a GET answer carries the full document, a
	// reported-property ack has no body
	if strings.HasPrefix(msg.Topic, twinResponseTopic) {
		status, rid, ok := parseTwinResponseTopic(msg.Topic)
		if !ok {
			log.Error().Msgf("Twin response id could not be extracted from %s", msg.Topic)
			return
		}
		if status == 200 && len(msg.Payload) > 0 {
			upd, err := events.ParseDesired(msg.Payload, events.KindFullDocument)
			if err != nil {
				log.Error().Msgf("Failed to parse twin document: %s. Payload: %s", err, msg.Payload)
				return
			}
			log.Info().Msgf("Received twin document #%s with version #%d", rid, upd.Version)
			h.DesiredUpdates <- upd
			return
		}
		log.Debug().Msgf("Twin response #%s with status %d", rid, status)
		h.TwinResponses <- &events.TwinResponse{RequestID: rid, Status: status}
		return
	}

	log.Error().Msgf("Unhandled message on topic %s", msg.Topic)
}

// AwaitConnection blocks until the MQTT connection is up or ctx is done.
func (h *Hub) AwaitConnection(ctx context.Context) error {
	if h.client == nil {
		return fmt.Errorf("not connected: call Connect first")
	}
	return h.client.AwaitConnection(ctx)
}

func (h *Hub) Disconnect(ctx context.Context) {
	if h.client != nil {
		err := h.client.Disconnect(ctx)
		if err != nil {
			log.Error().Msgf("Failed to disconnect: %s", err)
		}
	}
	h.isConnected = false
	log.Info().Msg("Disconnected from IoT Hub")
}

// Publish a message to the hub
//
// blocks until the MQTT connection is established;
// internal function for error handling/logging
func (h *Hub) publish(ctx context.Context, topic string, payload []byte) error {
	if h.client == nil {
		return fmt.Errorf("not connected: call Connect first")
	}
	if err := h.client.AwaitConnection(ctx); err != nil {
		return err
	}

	_, err := h.client.Publish(ctx, &paho.Publish{
		QoS:     qos,
		Topic:   topic,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// SendTelemetry publishes one telemetry message.
func (h *Hub) SendTelemetry(ctx context.Context, payload []byte) error {
	log.Debug().Msgf("Publish telemetry: %s", payload)
	return h.publish(ctx, fmt.Sprintf(telemetryTopicFmt, h.config.DeviceID), payload)
}

// SendReportedProperties pushes a reported-property update. The hub
// acknowledges it on the twin response topic.
func (h *Hub) SendReportedProperties(ctx context.Context, payload []byte) error {
	rid := uuid.NewString()
	log.Debug().Msgf("Publish reported properties #%s: %s", rid, payload)
	return h.publish(ctx, fmt.Sprintf(twinReportedTopicFmt, rid), payload)
}

// SendCommandResponse answers a direct-method invocation. It must be
// called exactly once per received command.
func (h *Hub) SendCommandResponse(ctx context.Context, req *events.CommandRequest, status int, payload []byte) error {
	log.Debug().Msgf("Sending command response %d for #%s: %s", status, req.RequestID, payload)
	return h.publish(ctx, fmt.Sprintf(methodResponseTopicFmt, status, req.RequestID), payload)
}

// RequestTwin asks for the full twin document. The answer arrives on
// the DesiredUpdates queue as a full-document update.
func (h *Hub) RequestTwin(ctx context.Context) error {
	rid := uuid.NewString()
	log.Debug().Msgf("Requesting twin document #%s", rid)
	return h.publish(ctx, fmt.Sprintf(twinGetTopicFmt, rid), nil)
}
