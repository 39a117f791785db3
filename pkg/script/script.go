// Package script loads and runs operation scripts: a list of tree
// operations plus the expected shape of the tree once they are applied.
package script

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Operation names.
const (
	OpInsert = "insert"
	OpRemove = "remove"
	OpFind   = "find"
	OpVerify = "verify"
)

// Format is the encoding of a script document.
type Format int

// Supported formats.
const (
	FormatYAML Format = iota
	FormatJSON
)

// Sentinel errors.
var (
	ErrInvalidScript = errors.New("script does not match the schema")
	ErrUnknownFormat = errors.New("unknown script format")
)

//go:embed schema.json
var schemaJSON []byte

// Script is a named list of operations and optional expectations.
type Script struct {
	Expect *Expect `json:"expect,omitempty" yaml:"expect,omitempty"`
	Name   string  `json:"name,omitempty"   yaml:"name,omitempty"`
	Ops    []Op    `json:"ops"              yaml:"ops"`
}

// Op is one tree operation.
type Op struct {
	Op    string `json:"op"              yaml:"op"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Key   int    `json:"key"             yaml:"key"`
	// ExpectAbsent inverts the check of remove and find: the key must be missing.
	ExpectAbsent bool `json:"expect_absent,omitempty" yaml:"expect_absent,omitempty"`
}

// Expect describes the tree after all operations. Nil fields are not checked.
type Expect struct {
	Root       *int  `json:"root,omitempty"        yaml:"root,omitempty"`
	Height     *int  `json:"height,omitempty"      yaml:"height,omitempty"`
	Len        *int  `json:"len,omitempty"         yaml:"len,omitempty"`
	EqualPaths *bool `json:"equal_paths,omitempty" yaml:"equal_paths,omitempty"`
	InOrder    []int `json:"inorder,omitempty"     yaml:"inorder,omitempty"`
}

// FormatFromPath picks the format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Load reads, validates and decodes the script at path.
func Load(path string) (*Script, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return Parse(data, format)
}

// Parse validates data against the script schema and decodes it.
func Parse(data []byte, format Format) (*Script, error) {
	var (
		document any
		script   Script
	)

	switch format {
	case FormatYAML:
		err := yaml.Unmarshal(data, &document)
		if err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		err := dec.Decode(&document)
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}

	err := validate(document)
	if err != nil {
		return nil, err
	}

	if format == FormatJSON {
		err = json.Unmarshal(data, &script)
	} else {
		err = yaml.Unmarshal(data, &script)
	}

	if err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}

	return &script, nil
}

func validate(document any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		messages = append(messages, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidScript, strings.Join(messages, "; "))
}
