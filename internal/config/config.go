// Package config handles configuration for the scenebridge tools.
package config

// Config holds all sceneinfo settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// OutputConfig holds table and listing settings.
type OutputConfig struct {
	// MaxRows caps per-entity listings; 0 means unlimited.
	MaxRows int `yaml:"max_rows"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Output: OutputConfig{
			MaxRows: 0,
		},
	}
}
