package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/showard/powerd/internal/announce"
	"github.com/showard/powerd/internal/config"
	"github.com/showard/powerd/internal/device/avr"
	"github.com/showard/powerd/internal/device/itach"
	"github.com/showard/powerd/internal/device/wol"
	"github.com/showard/powerd/internal/logger"
	"github.com/showard/powerd/internal/repository/journal"
	"github.com/showard/powerd/internal/repository/state"
	"github.com/showard/powerd/internal/signal"
)

// Options controls the powerd daemon behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// StateFile provides an optional state file override.
	StateFile string
	// PollInterval overrides the configured polling period when positive.
	PollInterval time.Duration
	// Receiver is an optional vendor receiver-control client used by the
	// cold-start branch. The stock binary wires none.
	Receiver avr.Controller
	// Debug observes and logs transitions without driving hardware.
	Debug bool
}

// Run assembles the engine from configuration and polls until the context
// is cancelled. Failure to create the state store is fatal; everything
// downstream of the loop entry is logged and survived.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "powerd")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	stateFile := cfg.StateFile
	if opts.StateFile != "" {
		stateFile = opts.StateFile
	}

	pollInterval := cfg.PollInterval
	if opts.PollInterval > 0 {
		pollInterval = opts.PollInterval
	}

	store, err := state.NewFileStore(stateFile)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}

	client := itach.NewClient(cfg.ItachAddress, cfg.Timeout)

	ir, err := itach.NewIREmitter(client, cfg.IRModule, cfg.IRCode)
	if err != nil {
		return fmt.Errorf("configure infrared emitter: %w", err)
	}

	sequencerConfig := SequencerConfig{
		Relay:       itach.NewRelay(client, cfg.RelayModule, cfg.RelayPort, cfg.RelayCloseDwell, cfg.RelayOpenSettle),
		IR:          ir,
		PortA:       cfg.IRPortA,
		PortB:       cfg.IRPortB,
		Receiver:    opts.Receiver,
		ColdStart:   NewColdStart(cfg.ColdStartMarkerFile),
		ChargeDelay: cfg.ChargeDelay,
		IRGap:       cfg.IRGap,
	}

	if cfg.WolMAC != "" {
		waker, wakerErr := wol.NewWaker(cfg.WolMAC, cfg.WolBroadcast)
		if wakerErr != nil {
			return fmt.Errorf("configure waker: %w", wakerErr)
		}

		sequencerConfig.Waker = waker
	}

	engineConfig := EngineConfig{
		Source:       buildSource(client, cfg),
		Store:        store,
		Sequencer:    NewSequencer(sequencerConfig),
		PollInterval: pollInterval,
		Debug:        opts.Debug,
	}

	if cfg.JournalFile != "" {
		transitions, journalErr := journal.Open(cfg.JournalFile)
		if journalErr != nil {
			return fmt.Errorf("open transition journal: %w", journalErr)
		}

		defer func() {
			_ = transitions.Close()
		}()

		engineConfig.Journal = transitions
	}

	if cfg.MQTT.Broker != "" {
		announcer, announceErr := announce.Connect(cfg.MQTT)
		if announceErr != nil {
			// The bus is an observer, not a dependency; run without it.
			logger.WarnKV(ctx, "State announcer unavailable", "error", announceErr)
		} else {
			defer announcer.Close()

			engineConfig.Announcer = announcer
		}
	}

	logger.InfoKV(ctx, "Starting orchestration engine",
		"itach_addr", cfg.ItachAddress,
		"source", string(cfg.Source),
		"state_file", stateFile)

	return NewEngine(engineConfig).Run(ctx)
}

// buildSource picks the signal source strategy from configuration.
//
//nolint:ireturn // Returning the Source interface is the point.
func buildSource(client *itach.Client, cfg *config.Config) signal.Source {
	switch cfg.Source {
	case config.SourcePath:
		return signal.NewPresenceSource(cfg.WatchPath)
	case config.SourceProcess:
		return signal.NewProcessSource(cfg.WatchProcess)
	case config.SourceSensor:
		fallthrough
	default:
		return signal.NewSensorSource(client, cfg.SensorModule, cfg.SensorPort)
	}
}
