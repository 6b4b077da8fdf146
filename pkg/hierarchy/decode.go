package hierarchy

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/orgchart/pkg/errors"
)

// Decode reads a JSON forest from r.
//
// Both a bare array of records and the backend envelope
// {"data": [...]} are accepted. A null or missing data field decodes to an
// empty forest.
func Decode(r io.Reader) (Forest, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy: %w", err)
	}
	return decodeJSON(raw)
}

func decodeJSON(raw []byte) (Forest, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		var env struct {
			Data Forest `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode hierarchy envelope")
		}
		return env.Data, nil
	}
	var f Forest
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode hierarchy")
	}
	return f, nil
}

// DecodeYAML reads a YAML forest from r. The document is either a sequence
// of records or a mapping with a "data" key.
func DecodeYAML(r io.Reader) (Forest, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return Forest{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml hierarchy")
	}

	var f Forest
	if len(doc.Content) > 0 && doc.Content[0].Kind == yaml.MappingNode {
		var env struct {
			Data Forest `yaml:"data"`
		}
		if err := doc.Decode(&env); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml hierarchy envelope")
		}
		return env.Data, nil
	}
	if err := doc.Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml hierarchy")
	}
	return f, nil
}

// ReadFile reads a forest from a .json, .yaml or .yml file.
func ReadFile(path string) (Forest, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "hierarchy file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(f)
	case ".json", "":
		return Decode(f)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported hierarchy file extension %q", filepath.Ext(path))
	}
}
