package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/showard/powerd/internal/config"
	"github.com/showard/powerd/internal/service/daemon"
	"github.com/showard/powerd/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile path where the last handled power state is persisted.
	stateFile string
	// pollInterval overrides the configured polling period when set.
	pollInterval time.Duration
	// debug observes and logs transitions without driving hardware.
	debug bool

	// rootCmd represents the base command for running the daemon.
	rootCmd = &cobra.Command{
		Use:   "powerd",
		Short: "Watch the power signal and drive the audio chain.",
		Long: `Background daemon that polls a binary power signal and runs the device
sequences that bring the audio chain up or down on each transition.

The signal source, the iTach unit address and all sequence timings come from
the configuration file. On power-on the daemon pulses the amplifier relay,
waits out the charge delay, runs the one-time cold-start branch and sends the
infrared power toggle to both receivers. On power-off the infrared goes out
first and the relay pulse follows. The last handled state is persisted so a
restart does not replay a sequence.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return daemon.Run(ctx, &daemon.Options{
				ConfigPath:   configPath,
				StateFile:    stateFile,
				PollInterval: pollInterval,
				Debug:        debug,
			})
		},
	}
)

// Execute runs the powerd CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&stateFile, "state-file", "s", "", "path to persist the last handled state (overrides config)")
	rootCmd.Flags().
		DurationVarP(&pollInterval, "poll-interval", "p", 0, "polling period (overrides config)")

	// Hidden debug flag to watch transitions without touching hardware.
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "log transitions without driving devices")

	err := rootCmd.Flags().MarkHidden("debug")
	if err != nil {
		panic(err)
	}
}
