package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Options configure the server process. They are read from TINYMIST_*
// environment variables and may be overridden on the command line.
type Options struct {
	LogLevel    int    `envconfig:"LOG_LEVEL" default:"1"`
	LogFile     string `envconfig:"LOG_FILE"`
	MaxProcs    int    `envconfig:"MAX_PROCS" default:"4"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// LoadOptions reads Options from the environment.
func LoadOptions() (Options, error) {
	var o Options
	if err := envconfig.Process("tinymist", &o); err != nil {
		return Options{}, fmt.Errorf("load environment: %w", err)
	}
	if o.MaxProcs < 1 {
		return Options{}, fmt.Errorf("TINYMIST_MAX_PROCS must be at least 1, got %d", o.MaxProcs)
	}
	return o, nil
}
