package broker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default network and filesystem locations, matching the client's
// compile-time constants (see transport.DefaultHost/DefaultPort) and the
// original launcher's defaults.
const (
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 32000
	DefaultStaticDir = "./www"
)

// Config holds everything needed to stand up a Broker. It is populated from
// flags and environment variables prefixed SIMPI_, via Viper --
// generalizing the single `-http` flag the teacher's periph-web accepted.
// No config file is read.
type Config struct {
	Host      string
	Port      int
	StaticDir string
	PrefsPath string
	Verbose   bool
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig builds a Config from Viper, which the caller (cmd/simpi-broker)
// is expected to have already bound to its cobra flags.
func LoadConfig(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix("SIMPI")
	v.AutomaticEnv()
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("static_dir", DefaultStaticDir)
	v.SetDefault("verbose", false)

	prefs := v.GetString("prefs_path")
	if prefs == "" {
		p, err := DefaultPrefsPath()
		if err != nil {
			return Config{}, err
		}
		prefs = p
	}

	return Config{
		Host:      v.GetString("host"),
		Port:      v.GetInt("port"),
		StaticDir: v.GetString("static_dir"),
		PrefsPath: prefs,
		Verbose:   v.GetBool("verbose"),
	}, nil
}

// DefaultPrefsPath returns $APPDATA/simpi/preferences.json when APPDATA is
// set (as on Windows) or $HOME/.simpi/preferences.json otherwise. The file's contents are opaque to
// the broker; it only ever reads and writes the raw bytes.
func DefaultPrefsPath() (string, error) {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "simpi", "preferences.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("simpi: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".simpi", "preferences.json"), nil
}
