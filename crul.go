package crul

import (
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"

	"github.com/hc1839/crul-sub003/config"
	"github.com/hc1839/crul-sub003/eventbus"
	"github.com/hc1839/crul-sub003/graph"
)

// Instance is a graph system built from a Config, together with the
// resources it owns.
type Instance struct {
	config *config.Config
	system *graph.System
	logger *slog.Logger
	bus    *eventbus.RedisBus
}

// New validates cfg and builds the logger, the ID generator, the optional
// Redis event journal and the graph system. A nil cfg uses defaults.
//
// opts are applied after the options derived from cfg, so they override it.
// Tracer and meter come from the global OpenTelemetry providers unless
// overridden.
func New(cfg *config.Config, opts ...graph.Option) (*Instance, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	scope := cfg.Telemetry.GetInstrumentation()

	inst := &Instance{config: cfg, logger: logger}

	graphOpts := []graph.Option{
		graph.WithSystemID(cfg.System.ID),
		graph.WithLogger(logger),
		graph.WithIDGenerator(cfg.System.Generator()),
		graph.WithTracer(otel.Tracer(scope)),
		graph.WithMeter(otel.Meter(scope)),
	}

	if events := cfg.Events; events != nil {
		bus, err := eventbus.New(eventbus.Options{
			URL:            events.URL,
			ConnectTimeout: events.GetConnectTimeout(),
			PublishTimeout: events.GetPublishTimeout(),
			Channel:        events.GetChannel(),
			JournalKey:     events.GetJournalKey(),
			JournalLimit:   events.GetJournalLimit(),
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to start event journal: %w", err)
		}
		inst.bus = bus
		graphOpts = append(graphOpts, graph.WithEventSink(bus))
	}

	system, err := graph.NewSystem(append(graphOpts, opts...)...)
	if err != nil {
		inst.Close()
		return nil, fmt.Errorf("failed to create graph system: %w", err)
	}
	inst.system = system

	logger.Info("crul instance started",
		"component", "crul",
		"system_id", system.ID(),
		"id_strategy", cfg.System.GetIDStrategy(),
		"events", inst.bus != nil,
	)
	return inst, nil
}

// System returns the graph system.
func (i *Instance) System() *graph.System { return i.system }

// Logger returns the logger built from the logging configuration.
func (i *Instance) Logger() *slog.Logger { return i.logger }

// Config returns the configuration the instance was built from.
func (i *Instance) Config() *config.Config { return i.config }

// Events returns the event journal, or nil if events are not configured.
func (i *Instance) Events() *eventbus.RedisBus { return i.bus }

// Close releases the event journal connection.
func (i *Instance) Close() error {
	if i.bus == nil {
		return nil
	}
	return i.bus.Close()
}

// CloseWithLog closes the instance and logs any error.
func (i *Instance) CloseWithLog() {
	CloseWithLog(i, i.logger, "crul instance")
}
