// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package config loads calibration job configurations. Defaults come from a
// struct and are overridden by a legacy macro config or a YAML file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/providers/structs"
)

const tag = "koanf"

// ParserFor picks the parser by file extension. Anything that is not YAML is
// read as a legacy macro config.
func ParserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yaml.Parser()
	}
	return LegacyParser()
}

// Load fills out with defaults overridden by the config file at path.
func Load(path string, defaults, out interface{}) error {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults, tag), nil); err != nil {
		return err
	}
	if err := k.Load(file.Provider(path), ParserFor(path)); err != nil {
		return fmt.Errorf("%v: %w", path, err)
	}
	return k.Unmarshal("", out)
}

// LoadBytes is Load for an in-memory config.
func LoadBytes(b []byte, parser koanf.Parser, defaults, out interface{}) error {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults, tag), nil); err != nil {
		return err
	}
	if err := k.Load(rawbytes.Provider(b), parser); err != nil {
		return err
	}
	return k.Unmarshal("", out)
}
