// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	AppName       = "audioengine"
	ConfigType    = "yaml"
	DefaultConfig = `# Audio engine configuration

# Capture device settings
device_index: -1          # Not read by any command; the default devices are always used
sample_rate: 48000         # Capture sample rate in Hz
channels: 1                # Number of capture channels (1=mono, 2=stereo)
format: "signed16"         # One of: float32, signed16, signed24, signed32, unsigned8

# Recording pipeline
sound_threshold_pct: 0     # Silence gate threshold, percent of full scale (0-100)
sound_gain_pct: 100        # Capture gain, percent of unity (0 or more, no upper bound)

# Playback
volume_pct: 100            # Master playback volume, percent of unity (0 or more, no upper bound)

debug: false               # Not read by any command
`
)

// Settings holds all application configuration.
type Settings struct {
	DeviceIndex int    `mapstructure:"device_index"`
	SampleRate  int    `mapstructure:"sample_rate"`
	Channels    int    `mapstructure:"channels"`
	Format      string `mapstructure:"format"`

	SoundThresholdPct float64 `mapstructure:"sound_threshold_pct"`
	SoundGainPct      float64 `mapstructure:"sound_gain_pct"`

	VolumePct float64 `mapstructure:"volume_pct"`

	Debug bool `mapstructure:"debug"`
}

// ValidFormats enumerates the format strings accepted in the config
// file; each maps to one of the five pcm.Format kernels.
var ValidFormats = map[string]bool{
	"float32":   true,
	"signed16":  true,
	"signed24":  true,
	"signed32":  true,
	"unsigned8": true,
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/audioengine/
func Init() error {
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 48000)
	viper.SetDefault("channels", 1)
	viper.SetDefault("format", "signed16")
	viper.SetDefault("sound_threshold_pct", 0)
	viper.SetDefault("sound_gain_pct", 100)
	viper.SetDefault("volume_pct", 100)
	viper.SetDefault("debug", false)

	// Support both config.yaml and .config.yaml
	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		// Try config.yaml as fallback
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	// Read config file - if not found, create default in XDG config dir
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			xdgConfigPath := filepath.Join(configDir, AppName)
			if err = ensureConfigExists(xdgConfigPath); err != nil {
				return err
			}
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings.
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges.
func (s *Settings) Validate() error {
	var errs []error

	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %v", s.SampleRate))
	}
	if s.Channels < 1 || s.Channels > 2 {
		errs = append(errs, fmt.Errorf("channels must be 1 or 2, got %d", s.Channels))
	}
	if !ValidFormats[s.Format] {
		errs = append(errs, fmt.Errorf("format must be one of float32, signed16, signed24, signed32, unsigned8, got %q", s.Format))
	}
	if s.SoundThresholdPct < 0 || s.SoundThresholdPct > 100 {
		errs = append(errs, fmt.Errorf("sound_threshold_pct must be between 0 and 100, got %v", s.SoundThresholdPct))
	}
	if s.SoundGainPct < 0 {
		errs = append(errs, fmt.Errorf("sound_gain_pct must be 0 or greater, got %v", s.SoundGainPct))
	}
	if s.VolumePct < 0 {
		errs = append(errs, fmt.Errorf("volume_pct must be 0 or greater, got %v", s.VolumePct))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
