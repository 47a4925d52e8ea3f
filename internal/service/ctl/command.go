package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/showard/powerd/internal/config"
	"github.com/showard/powerd/internal/device/itach"
	"github.com/showard/powerd/internal/device/wol"
	"github.com/showard/powerd/internal/logger"
	"github.com/showard/powerd/internal/repository/journal"
	"github.com/showard/powerd/internal/repository/state"
)

// Options configures the powerctl one-shot operations.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// Out receives query output, os.Stdout in the binary.
	Out io.Writer
}

var (
	// errNoWolConfigured is returned by Wake when the settings carry no MAC.
	errNoWolConfigured = errors.New("no wol mac configured")
	// errNoJournalConfigured is returned by History without a journal file.
	errNoJournalConfigured = errors.New("no journal file configured")
)

// RunPulse drives one manual relay pulse with the configured timings.
func RunPulse(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "powerctl")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	client := itach.NewClient(cfg.ItachAddress, cfg.Timeout)
	relay := itach.NewRelay(client, cfg.RelayModule, cfg.RelayPort, cfg.RelayCloseDwell, cfg.RelayOpenSettle)

	logger.InfoKV(ctx, "Pulsing relay",
		"address", cfg.ItachAddress,
		"module", cfg.RelayModule,
		"port", cfg.RelayPort)

	return relay.Pulse(ctx)
}

// RunIR emits the configured power-toggle code. A zero port targets both
// configured ports with the configured gap in between, matching the
// daemon's scripts.
func RunIR(ctx context.Context, opts *Options, port int) error {
	ctx = logger.WithName(ctx, "powerctl")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	client := itach.NewClient(cfg.ItachAddress, cfg.Timeout)

	emitter, err := itach.NewIREmitter(client, cfg.IRModule, cfg.IRCode)
	if err != nil {
		return err
	}

	if port > 0 {
		logger.InfoKV(ctx, "Emitting infrared code", "port", port)

		return emitter.Emit(ctx, port)
	}

	logger.InfoKV(ctx, "Emitting infrared code to both ports",
		"port_a", cfg.IRPortA,
		"port_b", cfg.IRPortB)

	if err = emitter.Emit(ctx, cfg.IRPortA); err != nil {
		return err
	}

	time.Sleep(cfg.IRGap)

	return emitter.Emit(ctx, cfg.IRPortB)
}

// RunWake sends one wake-on-LAN magic packet to the configured machine.
func RunWake(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "powerctl")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if cfg.WolMAC == "" {
		return errNoWolConfigured
	}

	waker, err := wol.NewWaker(cfg.WolMAC, cfg.WolBroadcast)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Sending wake-on-LAN",
		"mac", cfg.WolMAC,
		"broadcast", cfg.WolBroadcast)

	return waker.Wake(ctx)
}

// RunState prints the live sensor reading next to the persisted state so
// an operator can see whether the daemon has caught up.
func RunState(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "powerctl")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	store, err := state.NewFileStore(cfg.StateFile)
	if err != nil {
		return err
	}

	persisted, err := store.Load(ctx)
	if err != nil {
		return err
	}

	client := itach.NewClient(cfg.ItachAddress, cfg.Timeout)

	sensed, err := client.GetState(ctx, cfg.SensorModule, cfg.SensorPort)
	if err != nil {
		// The persisted half is still worth printing with a dead sensor.
		fmt.Fprintf(opts.Out, "sensor:    unavailable (%v)\n", err)
	} else {
		fmt.Fprintf(opts.Out, "sensor:    %s\n", sensed)
	}

	fmt.Fprintf(opts.Out, "persisted: %s\n", persisted)

	return nil
}

// RunHistory prints the most recent journal entries, newest first.
func RunHistory(ctx context.Context, opts *Options, limit int) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if cfg.JournalFile == "" {
		return errNoJournalConfigured
	}

	transitions, err := journal.Open(cfg.JournalFile)
	if err != nil {
		return err
	}

	defer func() {
		_ = transitions.Close()
	}()

	entries, err := transitions.Recent(ctx, limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(opts.Out, "no transitions recorded")

		return nil
	}

	for _, entry := range entries {
		coldStart := ""
		if entry.ColdStart {
			coldStart = " cold-start"
		}

		fmt.Fprintf(opts.Out, "%s  %s -> %s  %s%s\n",
			entry.CreatedAt.Format(time.RFC3339),
			entry.From, entry.To,
			entry.Outcome, coldStart)
	}

	return nil
}
