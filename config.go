package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"i4.energy/across/atprobe/modem"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the modem's serial port (e.g. "/dev/cu.usbmodem123").
	// Empty means the port is detected automatically.
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// APN, when set, is configured and activated after the probe
	APN string `yaml:"apn"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// Verbose enables tracing of raw modem I/O
	Verbose bool `yaml:"verbose"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BaudRate = modem.DefaultBaudRate
		c.LogLevel = "info"
		return nil
	}
}

// WithFile loads configuration from a YAML file. Keys missing from the file
// leave the current values untouched. An empty path is ignored.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			b, err := strconv.Atoi(baud)
			if err != nil {
				return fmt.Errorf("invalid BAUD_RATE %q: %w", baud, err)
			}
			c.BaudRate = b
		}

		if apn := os.Getenv("APN"); apn != "" {
			c.APN = apn
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags. Only flags set on
// the command line override earlier values.
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "port":
				c.SerialPort = f.Value.String()
			case "baud":
				b, convErr := strconv.Atoi(f.Value.String())
				if convErr != nil {
					err = fmt.Errorf("invalid baud rate %q: %w", f.Value.String(), convErr)
					return
				}
				c.BaudRate = b
			case "apn":
				c.APN = f.Value.String()
			case "log-level":
				c.LogLevel = f.Value.String()
			case "verbose":
				c.Verbose = f.Value.String() == "true"
			}
		})
		return err
	}
}
