// Command thermostat runs an Azure IoT Plug and Play thermostat
// device: it connects to the hub, reconciles desired-temperature
// writes, answers getMaxMinReport invocations, and publishes the
// current temperature periodically.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	hub "github.com/edgelab/azureiot-pnp-thermostat"
	"github.com/edgelab/azureiot-pnp-thermostat/config"
	"github.com/edgelab/azureiot-pnp-thermostat/device"
	"github.com/edgelab/azureiot-pnp-thermostat/metrics"
	"github.com/edgelab/azureiot-pnp-thermostat/retry"
	"github.com/edgelab/azureiot-pnp-thermostat/thermostat"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	path, err := config.FindConfig(*configPath)
	if err != nil {
		log.Fatal().Msgf("Failed to locate config: %s", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Msgf("Failed to load config: %s", err)
	}
	config.SetupLogging(cfg.LogLevel)
	log.Info().Str("config", path).Str("device", cfg.Hub.DeviceID).Msg("Starting thermostat")

	metrics.Init()
	if cfg.Metrics.Listen != "" {
		go serveMetrics(cfg.Metrics.Listen)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the telemetry state lives for the process lifetime, across
	// connection cycles
	state := thermostat.NewState(cfg.Device.InitialTemperature)

	for {
		runCycle(ctx, cfg, state)
		metrics.IncReconnectCycle()

		if ctx.Err() != nil {
			log.Info().Msg("Shutting down")
			return
		}

		log.Info().Dur("delay", cfg.Device.CycleDelay).Msg("Short delay before starting the next cycle")
		select {
		case <-time.After(cfg.Device.CycleDelay):
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			return
		}
	}
}

// runCycle performs one connect → run → disconnect cycle. Transport
// failures end the cycle; only the caller decides when to stop.
func runCycle(ctx context.Context, cfg *config.Config, state *thermostat.State) {
	h := hub.NewClient(cfg.Hub)

	policy := retry.ExponentialBackoff{
		MaxAttempts: cfg.Device.ConnectAttempts,
		MinInterval: cfg.Device.ConnectBackoffMin,
		MaxInterval: cfg.Device.ConnectBackoffMax,
	}
	err := policy.Start(ctx, "connect", func(ctx context.Context) (bool, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Device.ConnectTimeout)
		defer cancel()
		return true, h.Connect(attemptCtx)
	})
	if err != nil {
		log.Error().Err(err).Msg("Connection to the IoT Hub failed, all attempts exhausted")
		return
	}

	// fetch the property document after the initial connection so a
	// desired temperature set while offline is reconciled
	if err := h.RequestTwin(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to request twin document")
	}

	dev := device.New(h, state, cfg.Device.PublishInterval)
	err = dev.Run(ctx, device.Inbound{
		Commands:      h.Commands,
		Desired:       h.DesiredUpdates,
		TwinResponses: h.TwinResponses,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("Connection cycle ended")
	}

	disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.Disconnect(disconnectCtx)
}

// serveMetrics exposes the Prometheus endpoint.
func serveMetrics(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Str("listen", listen).Msg("Serving metrics")
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Error().Err(err).Msg("Metrics listener failed")
	}
}
