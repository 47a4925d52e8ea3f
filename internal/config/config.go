package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceKind selects the signal source strategy.
type SourceKind string

const (
	// SourceSensor polls the contact-closure sensor on the iTach itself.
	SourceSensor SourceKind = "sensor"
	// SourcePath treats the existence of a filesystem path as the ON proxy.
	SourcePath SourceKind = "path"
	// SourceProcess treats a running executable as the ON proxy.
	SourceProcess SourceKind = "process"
)

// MQTT holds the optional state announcer settings.
// A zero Broker disables the announcer entirely.
type MQTT struct {
	// Broker is the broker URL, e.g. "tcp://127.0.0.1:1883".
	Broker string `yaml:"broker"`
	// ClientID identifies this daemon on the broker.
	ClientID string `yaml:"client_id"`
	// TopicPrefix is prepended to the published state topic.
	TopicPrefix string `yaml:"topic_prefix"`
	// Username and Password are optional broker credentials.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config holds all settings shared by the powerd binaries.
type Config struct {
	// ItachAddress is the TCP command endpoint of the iTach unit (host:port).
	ItachAddress string `yaml:"itach_addr"`
	// Timeout bounds connect and read on every device command.
	Timeout time.Duration `yaml:"timeout"`

	// Source picks the signal source strategy.
	Source SourceKind `yaml:"source"`
	// SensorModule and SensorPort address the contact sensor for getstate polls.
	SensorModule int `yaml:"sensor_module"`
	SensorPort   int `yaml:"sensor_port"`
	// WatchPath is the path whose existence means ON (source: path).
	WatchPath string `yaml:"watch_path"`
	// WatchProcess is the executable name whose presence means ON (source: process).
	WatchProcess string `yaml:"watch_process"`

	// RelayModule and RelayPort address the pulsed power relay.
	RelayModule int `yaml:"relay_module"`
	RelayPort   int `yaml:"relay_port"`

	// IRModule addresses the emitter bank; IRCode is the pre-encoded payload
	// without the "sendir,<module>:<port>," prefix.
	IRModule int    `yaml:"ir_module"`
	IRCode   string `yaml:"ir_code"`
	// IRPortA and IRPortB are the two connector ports receiving the code.
	IRPortA int `yaml:"ir_port_a"`
	IRPortB int `yaml:"ir_port_b"`

	// WolMAC is the hardware address of the machine woken on the first
	// power-on. Empty disables wake-on-LAN.
	WolMAC string `yaml:"wol_mac"`
	// WolBroadcast is the broadcast address the magic packet is sent to.
	WolBroadcast string `yaml:"wol_broadcast"`

	// StateFile persists the last handled signal mark ("0"/"1").
	StateFile string `yaml:"state_file"`
	// ColdStartMarkerFile, when set, persists the cold-start marker across
	// restarts. Empty keeps the marker in memory, re-arming it per process.
	ColdStartMarkerFile string `yaml:"cold_start_marker_file"`

	// PollInterval is the signal polling period.
	PollInterval time.Duration `yaml:"poll_interval"`
	// RelayCloseDwell is how long the relay stays closed during a pulse.
	RelayCloseDwell time.Duration `yaml:"relay_close_dwell"`
	// RelayOpenSettle is the pause after the relay reopens.
	RelayOpenSettle time.Duration `yaml:"relay_open_settle"`
	// ChargeDelay is the wait between the first relay pulse and the rest of
	// the power-on sequence. It is the only cancellation point.
	ChargeDelay time.Duration `yaml:"charge_delay"`
	// IRGap is the pause between the two infrared emissions.
	IRGap time.Duration `yaml:"ir_gap"`

	// JournalFile, when set, enables the SQLite transition journal.
	JournalFile string `yaml:"journal_file"`

	// MQTT configures the optional retained state announcer.
	MQTT MQTT `yaml:"mqtt"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "powerd-settings.yaml"

	// DefaultStateFilename is the default filename for the persisted signal mark.
	DefaultStateFilename = "power_sensor_state.txt"

	// DefaultTimeout is the default duration for device connect/read operations.
	DefaultTimeout = 5 * time.Second

	// DefaultPollInterval is the default signal polling period.
	DefaultPollInterval = 15 * time.Second

	// DefaultRelayCloseDwell keeps the relay closed long enough for the
	// amplifier trigger input to register the pulse.
	DefaultRelayCloseDwell = 350 * time.Millisecond

	// DefaultRelayOpenSettle lets the supply rails settle after the pulse.
	DefaultRelayOpenSettle = 2250 * time.Millisecond

	// DefaultChargeDelay covers the amplifier capacitor bank charge time.
	DefaultChargeDelay = 12 * time.Second

	// DefaultIRGap spaces the two infrared emissions for receiver reliability.
	DefaultIRGap = time.Second

	// DefaultFilePermissions is the file permission for settings and state files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errItachAddressRequired is returned when the device endpoint is missing.
	errItachAddressRequired = errors.New("itach address must be provided")
	// errWatchPathRequired is returned for the path source without a path.
	errWatchPathRequired = errors.New("watch path must be provided for the path source")
	// errWatchProcessRequired is returned for the process source without a name.
	errWatchProcessRequired = errors.New("watch process must be provided for the process source")
	// errBroadcastRequired is returned when a MAC is set without a broadcast address.
	errBroadcastRequired = errors.New("wol broadcast address must be provided together with wol mac")
	// errIRCodeRequired is returned when the power-toggle infrared code is missing.
	errIRCodeRequired = errors.New("ir code must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
//
//nolint:cyclop // Field-by-field defaulting reads better flat.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ItachAddress == "" {
		return errItachAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ItachAddress); err != nil {
		return fmt.Errorf("invalid itach address: %w", err)
	}

	if cfg.IRCode == "" {
		return errIRCodeRequired
	}

	switch cfg.Source {
	case SourceSensor:
	case SourcePath:
		if cfg.WatchPath == "" {
			return errWatchPathRequired
		}
	case SourceProcess:
		if cfg.WatchProcess == "" {
			return errWatchProcessRequired
		}
	case "":
		cfg.Source = SourceSensor
	default:
		return fmt.Errorf("unknown signal source %q", cfg.Source)
	}

	if cfg.WolMAC != "" {
		if _, err := net.ParseMAC(cfg.WolMAC); err != nil {
			return fmt.Errorf("invalid wol mac: %w", err)
		}

		if cfg.WolBroadcast == "" {
			return errBroadcastRequired
		}
	}

	applyDefaults(cfg)

	return nil
}

// applyDefaults fills zero values with the observed deployment defaults.
func applyDefaults(cfg *Config) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	if cfg.RelayCloseDwell <= 0 {
		cfg.RelayCloseDwell = DefaultRelayCloseDwell
	}

	if cfg.RelayOpenSettle <= 0 {
		cfg.RelayOpenSettle = DefaultRelayOpenSettle
	}

	if cfg.ChargeDelay <= 0 {
		cfg.ChargeDelay = DefaultChargeDelay
	}

	if cfg.IRGap <= 0 {
		cfg.IRGap = DefaultIRGap
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if cfg.SensorModule <= 0 {
		cfg.SensorModule = 1
	}

	if cfg.SensorPort <= 0 {
		cfg.SensorPort = 2
	}

	if cfg.RelayModule <= 0 {
		cfg.RelayModule = 1
	}

	if cfg.RelayPort <= 0 {
		cfg.RelayPort = 1
	}

	if cfg.IRModule <= 0 {
		cfg.IRModule = 1
	}

	if cfg.IRPortA <= 0 {
		cfg.IRPortA = 1
	}

	if cfg.IRPortB <= 0 {
		cfg.IRPortB = 3
	}

	if cfg.MQTT.Broker != "" && cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "powerd"
	}

	if cfg.MQTT.Broker != "" && cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "powerd"
	}
}
