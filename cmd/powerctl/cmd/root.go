package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/showard/powerd/internal/config"
	"github.com/showard/powerd/internal/service/ctl"
	"github.com/showard/powerd/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// irPort targets a single infrared port; zero targets both.
	irPort int
	// historyLimit caps the number of printed journal entries.
	historyLimit int

	// rootCmd represents the base command grouping the manual operations.
	rootCmd = &cobra.Command{
		Use:   "powerctl",
		Short: "Drive the audio chain devices by hand.",
		Long: `Manual counterpart to powerd: run single device actions and read-only
queries against the same configuration the daemon uses.

Useful for commissioning a new installation and for poking at the hardware
while the daemon is stopped.`,
	}

	pulseCmd = &cobra.Command{
		Use:   "pulse",
		Short: "Pulse the amplifier relay once.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctl.RunPulse(commandContext(cmd), options())
		},
	}

	irCmd = &cobra.Command{
		Use:   "ir",
		Short: "Send the power-toggle infrared code.",
		Long: `Sends the configured power-toggle code. By default both configured
ports receive the code with the configured gap in between; --port targets one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctl.RunIR(commandContext(cmd), options(), irPort)
		},
	}

	wakeCmd = &cobra.Command{
		Use:   "wake",
		Short: "Send the wake-on-LAN magic packet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctl.RunWake(commandContext(cmd), options())
		},
	}

	stateCmd = &cobra.Command{
		Use:   "state",
		Short: "Print the live sensor reading and the persisted state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctl.RunState(commandContext(cmd), options())
		},
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Print recent transitions from the journal, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctl.RunHistory(commandContext(cmd), options(), historyLimit)
		},
	}
)

// options builds the shared service options from the persistent flags.
func options() *ctl.Options {
	return &ctl.Options{
		ConfigPath: configPath,
		Out:        os.Stdout,
	}
}

// commandContext wraps the command context with signal handling so a
// stuck device call can be interrupted.
func commandContext(cmd *cobra.Command) context.Context {
	ctx, _ := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)

	return ctx
}

// Execute runs the powerctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")

	irCmd.Flags().IntVarP(&irPort, "port", "p", 0, "target a single connector port")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum entries to print")

	rootCmd.AddCommand(pulseCmd, irCmd, wakeCmd, stateCmd, historyCmd)
}
