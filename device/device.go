// Package device runs the thermostat worker loop: a single goroutine
// that consumes inbound hub events and publishes telemetry.
package device

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edgelab/azureiot-pnp-thermostat/events"
	"github.com/edgelab/azureiot-pnp-thermostat/metrics"
	"github.com/edgelab/azureiot-pnp-thermostat/thermostat"
)

// Client is the subset of the hub client the worker uses.
type Client interface {
	SendTelemetry(ctx context.Context, payload []byte) error
	SendReportedProperties(ctx context.Context, payload []byte) error
	SendCommandResponse(ctx context.Context, req *events.CommandRequest, status int, payload []byte) error
}

// Inbound bundles the hub queues the worker consumes.
type Inbound struct {
	Commands      <-chan *events.CommandRequest
	Desired       <-chan *events.DesiredUpdate
	TwinResponses <-chan *events.TwinResponse
}

// Device owns the telemetry state for the process lifetime and drives
// one connection cycle at a time.
type Device struct {
	client          Client
	state           *thermostat.State
	publishInterval time.Duration
}

// New wires the worker to a hub client. The state outlives connection
// cycles; pass the same instance to each Run call.
func New(client Client, state *thermostat.State, publishInterval time.Duration) *Device {
	return &Device{
		client:          client,
		state:           state,
		publishInterval: publishInterval,
	}
}

// Run processes inbound events and publishes telemetry until ctx is
// done or a periodic publish fails. A publish failure ends the current
// connection cycle; the caller reconnects and calls Run again.
//
// Run is the only goroutine touching the state, so command and
// property handling never race with each other or with the publish
// cycle.
func (d *Device) Run(ctx context.Context, in Inbound) error {
	ticker := time.NewTicker(d.publishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case req := <-in.Commands:
			d.handleCommand(ctx, req)

		case upd := <-in.Desired:
			d.handleDesired(ctx, upd)

		case resp := <-in.TwinResponses:
			// acknowledgment of our own reported properties, nothing to do
			log.Debug().Str("rid", resp.RequestID).Int("status", resp.Status).
				Msg("Reported properties acknowledged")

		case <-ticker.C:
			if err := d.publishCycle(ctx); err != nil {
				return err
			}
		}
	}
}

// handleCommand answers a direct-method invocation. The response is
// sent exactly once; a send failure is logged but does not end the
// cycle.
func (d *Device) handleCommand(ctx context.Context, req *events.CommandRequest) {
	status, body := thermostat.HandleCommand(d.state, req.Name, req.Payload)
	metrics.IncCommandResult(status)

	if err := d.client.SendCommandResponse(ctx, req, status, body); err != nil {
		log.Error().Err(err).Str("rid", req.RequestID).Int("status", status).
			Msg("Failed to send command response")
		return
	}
	log.Info().Str("rid", req.RequestID).Int("status", status).
		Msg("Sent command response")
}

// handleDesired reconciles one writable-property update, acknowledges
// it, and reports the new maximum when one was observed. Reported
// sends are fire-and-forget; failures are logged, not retried.
func (d *Device) handleDesired(ctx context.Context, upd *events.DesiredUpdate) {
	if upd.TargetTemperature == nil {
		log.Debug().Stringer("kind", upd.Kind).Uint32("version", upd.Version).
			Msg("Desired update without target temperature, skipping")
		return
	}

	value := *upd.TargetTemperature
	maxChanged := d.state.Reconcile(value)
	metrics.IncPropertyUpdate(maxChanged)

	ack, err := thermostat.AckPayload(value, upd.Version)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build property acknowledgment")
		return
	}
	if err := d.client.SendReportedProperties(ctx, ack); err != nil {
		log.Error().Err(err).Msg("Failed to send property acknowledgment")
	}

	if maxChanged {
		d.reportMaximum(ctx)
	}
}

// publishCycle sends the periodic telemetry message and re-reports the
// running maximum. Failures here indicate connection trouble and end
// the cycle.
func (d *Device) publishCycle(ctx context.Context) error {
	snap := d.state.Snapshot()

	payload, err := thermostat.TelemetryPayload(snap.Current)
	if err != nil {
		return fmt.Errorf("build telemetry payload: %w", err)
	}
	if err := d.client.SendTelemetry(ctx, payload); err != nil {
		metrics.IncTelemetry(metrics.ResultError)
		return fmt.Errorf("send telemetry: %w", err)
	}
	metrics.IncTelemetry(metrics.ResultSuccess)

	// report the running maximum every cycle, plus immediately on change
	report, err := thermostat.MaxReportPayload(snap.Maximum)
	if err != nil {
		return fmt.Errorf("build max report payload: %w", err)
	}
	if err := d.client.SendReportedProperties(ctx, report); err != nil {
		return fmt.Errorf("send max report: %w", err)
	}

	metrics.SetTemperatures(snap.Current, snap.Maximum)
	return nil
}

// reportMaximum pushes the running maximum right after it changed.
func (d *Device) reportMaximum(ctx context.Context) {
	snap := d.state.Snapshot()
	report, err := thermostat.MaxReportPayload(snap.Maximum)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build max report payload")
		return
	}
	if err := d.client.SendReportedProperties(ctx, report); err != nil {
		log.Error().Err(err).Msg("Failed to send max report")
		return
	}
	log.Info().Float64("maximum", snap.Maximum).Msg("Reported new maximum temperature")
}
