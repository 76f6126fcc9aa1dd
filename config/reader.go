package config

import (
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Read reads a config from the given file. Environment variables in the file are substituted
// before parsing.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	cfg, err := FromBytes(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", filePath)
	}
	return cfg, nil
}

// FromReader reads a config from r.
func FromReader(r io.Reader) (*Config, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return FromBytes(buf)
}

// FromBytes parses a JSON5 document over the defaults and validates the result. Sections missing
// from the document keep their default values. Tasks, and offset tables per primitive, replace the
// default entry of the same name.
func FromBytes(buf []byte) (*Config, error) {
	cfg := Default()
	if err := json5.Unmarshal(buf, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
