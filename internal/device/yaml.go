package device

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a single profile from a YAML file.
//
// Format:
//
//	name: jetson-nano
//	limits:
//	  max_shared_memory_per_block: 49152
//	  max_thread_per_block: 1024
//
// A "base" key may name a built-in profile whose limits the file overrides:
//
//	base: cuda
//	name: jetson-nano
//	limits:
//	  max_thread_per_block: 256
func LoadFile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return parseProfile(data, path)
}

type profileFile struct {
	Base   string           `yaml:"base,omitempty"`
	Name   string           `yaml:"name"`
	Limits map[string]int64 `yaml:"limits"`
}

func parseProfile(data []byte, path string) (Profile, error) {
	var pf profileFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}

	p := Profile{Name: pf.Name, Limits: pf.Limits}
	if pf.Base != "" {
		base, ok := Builtin(pf.Base)
		if !ok {
			return Profile{}, fmt.Errorf("profile %s: unknown base %q", path, pf.Base)
		}
		p = base.With(pf.Limits)
		if pf.Name != "" {
			p.Name = pf.Name
		}
	}

	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}
