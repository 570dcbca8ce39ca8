package src

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type MuxerConfig struct {
	Width  uint `yaml:"width"`
	Height uint `yaml:"height"`
}

type BrokerConfig struct {
	ConnStr   string `yaml:"conn_str"`
	QueueSize int    `yaml:"queue_size"`
}

type EventConfig struct {
	// bytes all live event buffers may use, 0 is unlimited
	BudgetBytes int64 `yaml:"budget_bytes"`
}

type Config struct {
	SensorID   string `yaml:"sensor_id"`
	SocketPath string `yaml:"socket_path"`

	InferConfigFile     string `yaml:"pgie_config_file"`
	TrackerConfigFile   string `yaml:"tracker_config_file"`
	AnalyticsConfigFile string `yaml:"analytics_config_file"`

	Muxer  MuxerConfig  `yaml:"muxer"`
	Broker BrokerConfig `yaml:"broker"`
	Event  EventConfig  `yaml:"event"`
}

func DefaultConfig() Config {
	return Config{
		SensorID:   "device_test",
		SocketPath: "/var/run/nvds_analytics.sock",

		InferConfigFile:     "dstest4_pgie_config.txt",
		TrackerConfigFile:   "dsnvanalytics_tracker_config.txt",
		AnalyticsConfigFile: "config_nvdsanalytics.txt",

		Muxer: MuxerConfig{
			Width:  1920,
			Height: 1080,
		},
		Broker: BrokerConfig{
			ConnStr:   "localhost;1883",
			QueueSize: 64,
		},
		Event: EventConfig{
			BudgetBytes: 1 << 20,
		},
	}
}

// LoadConfig reads path over the defaults, an empty path gives the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config read %s: %w", path, err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.SensorID == "" {
		return fmt.Errorf("config sensor_id is empty")
	} else if c.SocketPath == "" {
		return fmt.Errorf("config socket_path is empty")
	} else if c.Muxer.Width == 0 || c.Muxer.Height == 0 {
		return fmt.Errorf("config muxer size %dx%d", c.Muxer.Width, c.Muxer.Height)
	} else if c.Broker.QueueSize <= 0 {
		return fmt.Errorf("config broker queue_size %d", c.Broker.QueueSize)
	} else if c.Event.BudgetBytes < 0 {
		return fmt.Errorf("config event budget_bytes %d", c.Event.BudgetBytes)
	}
	return nil
}

// Apply copies the values given on the command line over the config
func (c *Config) Apply(args Args) {
	if args.SensorID != "" {
		c.SensorID = args.SensorID
	}
	if args.SocketPath != "" {
		c.SocketPath = args.SocketPath
	}
	if args.ConnStr != "" {
		c.Broker.ConnStr = args.ConnStr
	}
}
