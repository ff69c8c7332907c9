package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type format struct {
	name      string
	marshal   func(v any) ([]byte, error)
	unmarshal func(data []byte, v any) error
}

var formats = map[string]format{
	".json": {
		name:      "JSON",
		marshal:   func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
		unmarshal: json.Unmarshal,
	},
	".yaml": {name: "YAML", marshal: yaml.Marshal, unmarshal: yaml.Unmarshal},
	".yml":  {name: "YAML", marshal: yaml.Marshal, unmarshal: yaml.Unmarshal},
	".toml": {
		name: "TOML",
		marshal: func(v any) ([]byte, error) {
			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		unmarshal: toml.Unmarshal,
	},
}

func formatFor(path string) (format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formats[ext]
	if !ok {
		return format{}, fmt.Errorf("unsupported config format %q (want .json, .yaml, .yml or .toml)", ext)
	}
	return f, nil
}
