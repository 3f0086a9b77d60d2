package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/engine"
)

// LoadEngineOptions reads engine options from a YAML file. An empty path
// yields the defaults. Unknown keys are rejected so that typos in tuning
// files do not pass silently.
func LoadEngineOptions(path string) (engine.Options, error) {
	if path == "" {
		return engine.DefaultOptions(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return engine.Options{}, fmt.Errorf("read engine config: %w", err)
	}
	return ParseEngineOptions(raw)
}

// ParseEngineOptions decodes YAML over the defaults: keys absent from the
// document keep their default values. A configured authorityTable replaces
// the default table instead of merging into it, so `authorityTable: {}`
// leaves every group without an authoritative source.
func ParseEngineOptions(raw []byte) (engine.Options, error) {
	opts := engine.DefaultOptions()
	defaultAuthority := opts.AuthorityTable
	opts.AuthorityTable = nil

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return engine.Options{}, domain.WrapError(domain.ErrInvalidInput, "parse engine config", err)
	}
	if opts.AuthorityTable == nil {
		opts.AuthorityTable = defaultAuthority
	}
	return opts, nil
}

// EngineOptions loads the file named by EngineConfigPath and applies the
// environment overrides.
func (c Config) EngineOptions() (engine.Options, error) {
	opts, err := LoadEngineOptions(c.EngineConfigPath)
	if err != nil {
		return engine.Options{}, err
	}
	if c.EngineRegion != "" {
		opts.Region = c.EngineRegion
	}
	if c.EngineWorkers > 0 {
		opts.Workers = c.EngineWorkers
	}
	return opts, nil
}
