// Package config loads assembler settings from a JSON file.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/emitter"
)

const DefaultPath = "assemblerConfig.json"

// Address is a 32-bit address that unmarshals from a JSON number or from a
// string such as "0x80100".
type Address struct {
	Value uint32
	Set   bool
}

func (a *Address) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid address %s", string(b))
	}
	a.Value = uint32(v)
	a.Set = true
	return nil
}

type Config struct {
	TextBase      Address `json:"textBase"`
	DataBase      Address `json:"dataBase"`
	MaxMacroDepth int     `json:"maxMacroDepth"`
	Endianness    string  `json:"endianness"` // "little" or "big"
	OutputMode    string  `json:"outputMode"` // hex, bin, text, nib or list
}

// Load reads the file at path. A missing file is not an error when path is
// the default, so the CLI runs without any configuration.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return &Config{}, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	conf := new(Config)
	if err := json.Unmarshal(b, conf); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return conf, nil
}

func (c *Config) Validate() error {
	if c.MaxMacroDepth < 0 {
		return errors.Errorf("maxMacroDepth must not be negative, got %d", c.MaxMacroDepth)
	}
	if c.TextBase.Value%4 != 0 {
		return errors.Errorf("textBase 0x%x is not word aligned", c.TextBase.Value)
	}
	if _, err := emitter.ParseByteOrder(c.Endianness); err != nil {
		return err
	}
	if c.OutputMode != "" {
		if _, err := emitter.ParseMode(c.OutputMode); err != nil {
			return err
		}
	}
	return nil
}

// Assembler converts the file settings into an assembler configuration.
func (c *Config) Assembler() assembler.Config {
	cfg := assembler.DefaultConfig()
	cfg.TextBase = c.TextBase.Value
	if c.DataBase.Set {
		cfg.DataBase = c.DataBase.Value
		cfg.HasDataBase = true
	}
	if c.MaxMacroDepth > 0 {
		cfg.MaxMacroDepth = c.MaxMacroDepth
	}
	return cfg
}

// Emitter converts the file settings into emitter options. An empty output
// mode means hex.
func (c *Config) Emitter() emitter.Options {
	opts := emitter.Options{Mode: emitter.ModeHex}
	if c.OutputMode != "" {
		opts.Mode, _ = emitter.ParseMode(c.OutputMode)
	}
	opts.ByteOrder, _ = emitter.ParseByteOrder(c.Endianness)
	return opts
}
