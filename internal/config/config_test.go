package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for settings.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing iTach endpoint.
	cfg := new(Config)

	err := Validate(cfg)
	require.ErrorIs(t, err, errItachAddressRequired)

	// Bad endpoint.
	cfg = &Config{ItachAddress: "bad:address"}

	err = Validate(cfg)
	require.Error(t, err)

	// No infrared code.
	cfg = &Config{ItachAddress: "127.0.0.1:4998"}

	err = Validate(cfg)
	require.ErrorIs(t, err, errIRCodeRequired)

	// Path source without a path.
	cfg = &Config{
		ItachAddress: "127.0.0.1:4998",
		IRCode:       "sendir-code",
		Source:       SourcePath,
	}

	err = Validate(cfg)
	require.ErrorIs(t, err, errWatchPathRequired)

	// MAC without broadcast.
	cfg = &Config{
		ItachAddress: "127.0.0.1:4998",
		IRCode:       "sendir-code",
		WolMAC:       "aa:bb:cc:dd:ee:ff",
	}

	err = Validate(cfg)
	require.ErrorIs(t, err, errBroadcastRequired)

	// Malformed MAC.
	cfg = &Config{
		ItachAddress: "127.0.0.1:4998",
		IRCode:       "sendir-code",
		WolMAC:       "not-a-mac",
		WolBroadcast: "192.168.1.255",
	}

	err = Validate(cfg)
	require.Error(t, err)
}

// TestValidateDefaults ensures zero values are filled with deployment defaults.
func TestValidateDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		ItachAddress: "127.0.0.1:4998",
		IRCode:       "sendir-code",
	}
	require.NoError(t, Validate(cfg))

	require.Equal(t, SourceSensor, cfg.Source)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultPollInterval, cfg.PollInterval)
	require.Equal(t, DefaultRelayCloseDwell, cfg.RelayCloseDwell)
	require.Equal(t, DefaultRelayOpenSettle, cfg.RelayOpenSettle)
	require.Equal(t, 12*time.Second, cfg.ChargeDelay)
	require.Equal(t, time.Second, cfg.IRGap)
	require.Equal(t, DefaultStateFilename, cfg.StateFile)
	require.Equal(t, 1, cfg.SensorModule)
	require.Equal(t, 2, cfg.SensorPort)
	require.Equal(t, 1, cfg.RelayPort)
	require.Equal(t, 1, cfg.IRPortA)
	require.Equal(t, 3, cfg.IRPortB)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		ItachAddress: "127.0.0.1:4998",
		IRCode:       "sendir-code",
		Source:       SourcePath,
		WatchPath:    "/mnt/f",
		WolMAC:       "aa:bb:cc:dd:ee:ff",
		WolBroadcast: "192.168.1.255",
		JournalFile:  "journal.db",
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ItachAddress, loaded.ItachAddress)
	require.Equal(t, SourcePath, loaded.Source)
	require.Equal(t, cfg.WatchPath, loaded.WatchPath)
	require.Equal(t, cfg.WolMAC, loaded.WolMAC)
	require.Equal(t, cfg.JournalFile, loaded.JournalFile)
}

// TestLoadMissingFile verifies a clear error for an absent settings file.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
