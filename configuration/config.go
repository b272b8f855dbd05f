// Package configuration loads the runtime option set from JSON or YAML
// documents. Environment-variable mapping is the host application's
// concern; this package only turns a parsed document into options.
package configuration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	logrich "github.com/bitranox/lib-log-rich"
	"github.com/bitranox/lib-log-rich/core"
	"github.com/bitranox/lib-log-rich/sinks"
)

// FileConfig mirrors the configuration surface recognized by Init.
// Durations are given in seconds.
type FileConfig struct {
	Service     string `json:"service" yaml:"service"`
	Environment string `json:"environment" yaml:"environment"`

	ConsoleEnabled *bool             `json:"enable_console" yaml:"enable_console"`
	ConsoleLevel   string            `json:"console_level" yaml:"console_level"`
	ConsoleTheme   string            `json:"console_theme" yaml:"console_theme"`
	ConsoleStyles  map[string]string `json:"console_styles" yaml:"console_styles"`
	ForceColor     bool              `json:"force_color" yaml:"force_color"`
	NoColor        bool              `json:"no_color" yaml:"no_color"`

	BackendLevel   string `json:"backend_level" yaml:"backend_level"`
	EnableJournald bool   `json:"enable_journald" yaml:"enable_journald"`
	EnableEventlog bool   `json:"enable_eventlog" yaml:"enable_eventlog"`

	EnableGraylog   bool   `json:"enable_graylog" yaml:"enable_graylog"`
	GraylogLevel    string `json:"graylog_level" yaml:"graylog_level"`
	GraylogHost     string `json:"graylog_host" yaml:"graylog_host"`
	GraylogPort     int    `json:"graylog_port" yaml:"graylog_port"`
	GraylogProtocol string `json:"graylog_protocol" yaml:"graylog_protocol"`
	GraylogTLS      bool   `json:"graylog_tls" yaml:"graylog_tls"`

	EnableRingBuffer *bool `json:"enable_ring_buffer" yaml:"enable_ring_buffer"`
	RingBufferSize   int   `json:"ring_buffer_size" yaml:"ring_buffer_size"`

	QueueEnabled            bool    `json:"queue_enabled" yaml:"queue_enabled"`
	QueueMaxSize            int     `json:"queue_maxsize" yaml:"queue_maxsize"`
	QueuePutTimeoutSeconds  float64 `json:"queue_put_timeout" yaml:"queue_put_timeout"`
	QueueStopTimeoutSeconds float64 `json:"queue_stop_timeout" yaml:"queue_stop_timeout"`

	TextFormat         string `json:"text_format" yaml:"text_format"`
	DumpFormatPreset   string `json:"dump_format_preset" yaml:"dump_format_preset"`
	DumpFormatTemplate string `json:"dump_format_template" yaml:"dump_format_template"`

	ScrubPatterns map[string]string `json:"scrub_patterns" yaml:"scrub_patterns"`

	RateLimitMax           int     `json:"rate_limit_max" yaml:"rate_limit_max"`
	RateLimitWindowSeconds float64 `json:"rate_limit_window" yaml:"rate_limit_window"`

	MaxMessageBytes int `json:"max_message_bytes" yaml:"max_message_bytes"`
	MaxExtraBytes   int `json:"max_extra_bytes" yaml:"max_extra_bytes"`
}

// LoadFromJSON parses a JSON configuration document.
func LoadFromJSON(data []byte) (*FileConfig, error) {
	var config FileConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse JSON configuration: %w", err)
	}
	return &config, nil
}

// LoadFromYAML parses a YAML configuration document.
func LoadFromYAML(data []byte) (*FileConfig, error) {
	var config FileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse YAML configuration: %w", err)
	}
	return &config, nil
}

// LoadFromFile reads a configuration file, choosing the parser by
// extension (.json, .yaml, .yml).
func LoadFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadFromJSON(data)
	case ".yaml", ".yml":
		return LoadFromYAML(data)
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", path)
	}
}

// Options converts the parsed document into runtime options. Unset
// fields keep the runtime defaults.
func (c *FileConfig) Options() ([]logrich.Option, error) {
	var opts []logrich.Option

	if c.Service != "" {
		opts = append(opts, logrich.WithService(c.Service))
	}
	if c.Environment != "" {
		opts = append(opts, logrich.WithEnvironment(c.Environment))
	}

	if c.ConsoleEnabled != nil {
		opts = append(opts, logrich.WithConsole(*c.ConsoleEnabled))
	}
	if c.ConsoleLevel != "" {
		level, err := core.ParseLevel(c.ConsoleLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, logrich.WithConsoleLevel(level))
	}
	if c.ConsoleTheme != "" {
		opts = append(opts, logrich.WithConsoleTheme(c.ConsoleTheme))
	}
	if len(c.ConsoleStyles) > 0 {
		styles := make(map[core.Level]sinks.Color, len(c.ConsoleStyles))
		for levelName, colorName := range c.ConsoleStyles {
			level, err := core.ParseLevel(levelName)
			if err != nil {
				return nil, err
			}
			color, ok := sinks.ColorByName(colorName)
			if !ok {
				return nil, fmt.Errorf("unknown console color %q for level %q", colorName, levelName)
			}
			styles[level] = color
		}
		opts = append(opts, logrich.WithConsoleStyles(styles))
	}
	if c.ForceColor {
		opts = append(opts, logrich.WithForceColor())
	}
	if c.NoColor {
		opts = append(opts, logrich.WithNoColor())
	}

	if c.BackendLevel != "" {
		level, err := core.ParseLevel(c.BackendLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, logrich.WithBackendLevel(level))
	}
	if c.EnableJournald {
		opts = append(opts, logrich.WithJournald(true))
	}
	if c.EnableEventlog {
		opts = append(opts, logrich.WithEventLog(true))
	}

	if c.EnableGraylog {
		opts = append(opts, logrich.WithGraylog(c.GraylogHost, c.GraylogPort))
		if c.GraylogLevel != "" {
			level, err := core.ParseLevel(c.GraylogLevel)
			if err != nil {
				return nil, err
			}
			opts = append(opts, logrich.WithGraylogLevel(level))
		}
		if c.GraylogProtocol != "" {
			opts = append(opts, logrich.WithGraylogProtocol(c.GraylogProtocol))
		}
		if c.GraylogTLS {
			opts = append(opts, logrich.WithGraylogTLS(true))
		}
	}

	if c.EnableRingBuffer != nil {
		opts = append(opts, logrich.WithRingBuffer(*c.EnableRingBuffer, c.RingBufferSize))
	} else if c.RingBufferSize > 0 {
		opts = append(opts, logrich.WithRingBuffer(true, c.RingBufferSize))
	}

	if c.QueueEnabled {
		opts = append(opts, logrich.WithQueue(true))
	}
	if c.QueueMaxSize > 0 {
		opts = append(opts, logrich.WithQueueMaxSize(c.QueueMaxSize))
	}
	if c.QueuePutTimeoutSeconds > 0 {
		opts = append(opts, logrich.WithQueuePutTimeout(seconds(c.QueuePutTimeoutSeconds)))
	}
	if c.QueueStopTimeoutSeconds > 0 {
		opts = append(opts, logrich.WithQueueStopTimeout(seconds(c.QueueStopTimeoutSeconds)))
	}

	if c.TextFormat != "" {
		opts = append(opts, logrich.WithDumpTemplate(c.TextFormat))
	}
	if c.DumpFormatTemplate != "" {
		opts = append(opts, logrich.WithDumpTemplate(c.DumpFormatTemplate))
	}
	if c.DumpFormatPreset != "" {
		opts = append(opts, logrich.WithDumpPreset(c.DumpFormatPreset))
	}
	if len(c.ScrubPatterns) > 0 {
		opts = append(opts, logrich.WithScrubPatterns(c.ScrubPatterns))
	}
	if c.RateLimitMax > 0 {
		opts = append(opts, logrich.WithRateLimit(c.RateLimitMax, seconds(c.RateLimitWindowSeconds)))
	}
	if c.MaxMessageBytes > 0 {
		maxMessage := c.MaxMessageBytes
		opts = append(opts, func(o *logrich.Options) { o.MaxMessageBytes = maxMessage })
	}
	if c.MaxExtraBytes > 0 {
		maxExtra := c.MaxExtraBytes
		opts = append(opts, func(o *logrich.Options) { o.MaxExtraBytes = maxExtra })
	}

	return opts, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
