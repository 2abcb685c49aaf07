// Package config loads the optional pyken.yaml project file.
//
// The file is checked twice: first against the embedded CUE schema, which
// catches wrong types and out-of-range values with a path to the offending
// key, then decoded with unknown fields rejected.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up in the input root.
const FileName = "pyken.yaml"

//go:embed schema.cue
var schemaCUE string

// Config is the decoded project file. Zero values mean "not set".
type Config struct {
	Out     string               `yaml:"out"`
	Strict  bool                 `yaml:"strict"`
	Jobs    int                  `yaml:"jobs"`
	Exclude []string             `yaml:"exclude"`
	Types   map[string]TypeEntry `yaml:"types"`

	// Path is the file the config came from; empty for defaults.
	Path string `yaml:"-"`
}

// TypeEntry maps a source annotation to a target type. Module names the
// target module to import; Option wraps the target in Option.
type TypeEntry struct {
	Name   string `yaml:"name"`
	Module string `yaml:"module"`
	Option bool   `yaml:"option"`
}

// NamedType is one TypeEntry with its source name.
type NamedType struct {
	Source string
	TypeEntry
}

// Error reports a config file that could not be read or is invalid.
type Error struct {
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "cannot read config", Err: err}
	}
	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Discover loads <root>/pyken.yaml when root is a directory holding one.
// It returns an empty config otherwise.
func Discover(root string) (*Config, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return &Config{}, nil
	}
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return Load(path)
}

// Parse validates and decodes config bytes. name labels errors.
func Parse(name string, data []byte) (*Config, error) {
	if err := validate(name, data); err != nil {
		return nil, err
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Path: name, Message: fmt.Sprintf("invalid YAML: %v", err), Err: err}
	}

	for _, pattern := range cfg.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, &Error{Path: name, Message: fmt.Sprintf("exclude: bad pattern %q", pattern), Err: err}
		}
	}
	return &cfg, nil
}

// validate unifies the YAML document with #Config.
func validate(name string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	file, err := cueyaml.Extract(name, data)
	if err != nil {
		return &Error{Path: name, Message: fmt.Sprintf("invalid YAML: %v", err), Err: err}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &Error{Path: name, Message: cueerrors.Details(err, nil), Err: err}
	}
	// An empty document extracts as null.
	if doc.Null() == nil {
		return nil
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &Error{Path: name, Message: cueerrors.Details(err, nil), Err: err}
	}
	return nil
}

// TypeList returns the type entries sorted by source name.
func (c *Config) TypeList() []NamedType {
	names := make([]string, 0, len(c.Types))
	for name := range c.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]NamedType, len(names))
	for i, name := range names {
		out[i] = NamedType{Source: name, TypeEntry: c.Types[name]}
	}
	return out
}

// Dir is the directory relative output paths resolve against: the config
// file's directory, or "." for defaults.
func (c *Config) Dir() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}
