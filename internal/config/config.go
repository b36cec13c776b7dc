package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"freshservice-items-exporter/internal/freshservice"
)

const DefaultPath = "config/exporter.yaml"

var ErrMissingSetting = errors.New("missing required setting")

type Config struct {
	Freshservice struct {
		TicketsURL  string `yaml:"tickets_url"`
		Token       string `yaml:"token"`
		ViewID      string `yaml:"view_id"`
		Timeout     string `yaml:"timeout"`
		Concurrency int    `yaml:"concurrency"`
		MaxPages    int    `yaml:"max_pages"`
	} `yaml:"freshservice"`
	Export struct {
		Output     string `yaml:"output"`
		EmptyItems string `yaml:"empty_items"`
	} `yaml:"export"`
	Schedule struct {
		Interval string `yaml:"interval"`
	} `yaml:"schedule"`
	Metrics struct {
		Listen   string `yaml:"listen"`
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the settings used for anything the file and environment
// leave unset.
func Default() Config {
	var c Config
	c.Freshservice.Timeout = "30s"
	c.Freshservice.Concurrency = freshservice.DefaultConcurrency
	c.Freshservice.MaxPages = 1
	c.Export.Output = "example.csv"
	c.Export.EmptyItems = string(freshservice.EmptyBlank)
	c.Metrics.Listen = ":9100"
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// Load decodes the YAML file at path over the defaults. A missing file is not
// an error unless required is set.
func Load(path string, required bool) (Config, error) {
	c := Default()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return c, nil
		}
		return c, err
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&c); err != nil {
		return c, fmt.Errorf("decode %s: %w", path, err)
	}
	return c, nil
}

func (c Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Freshservice.Timeout)
	if err != nil {
		return 0, fmt.Errorf("freshservice.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("freshservice.timeout: negative duration %q", c.Freshservice.Timeout)
	}
	return d, nil
}

// Interval is zero when the exporter runs once.
func (c Config) Interval() (time.Duration, error) {
	if c.Schedule.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Schedule.Interval)
	if err != nil {
		return 0, fmt.Errorf("schedule.interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("schedule.interval: must be positive, got %q", c.Schedule.Interval)
	}
	return d, nil
}

func (c Config) EmptyPolicy() freshservice.EmptyPolicy {
	p, err := freshservice.ParseEmptyPolicy(c.Export.EmptyItems)
	if err != nil {
		return freshservice.EmptyBlank
	}
	return p
}

// Validate checks everything a run needs before any request is made.
func (c Config) Validate() error {
	var errs []error
	if c.Freshservice.TicketsURL == "" {
		errs = append(errs, fmt.Errorf("%w: freshservice.tickets_url (%s)", ErrMissingSetting, EnvTicketsURL))
	}
	if c.Freshservice.Token == "" {
		errs = append(errs, fmt.Errorf("%w: freshservice.token (%s)", ErrMissingSetting, EnvToken))
	}
	if c.Freshservice.ViewID == "" {
		errs = append(errs, fmt.Errorf("%w: freshservice.view_id (%s)", ErrMissingSetting, EnvViewID))
	}
	if _, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Freshservice.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("freshservice.concurrency must be at least 1, got %d", c.Freshservice.Concurrency))
	}
	if c.Freshservice.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("freshservice.max_pages must be at least 1, got %d", c.Freshservice.MaxPages))
	}
	if c.Export.Output == "" {
		errs = append(errs, fmt.Errorf("%w: export.output", ErrMissingSetting))
	}
	if _, err := freshservice.ParseEmptyPolicy(c.Export.EmptyItems); err != nil {
		errs = append(errs, fmt.Errorf("export.empty_items: %w", err))
	}
	if _, err := c.Interval(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
