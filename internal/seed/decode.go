package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// filePattern matches seed file names; the first group is the seed key.
var filePattern = regexp.MustCompile(`^(.+` + Suffix + `)\.(json|ya?ml|toml)$`)

// tomlRecordsKey holds the array of tables a TOML seed uses for a sequence,
// since a TOML document cannot be an array at the top level.
const tomlRecordsKey = "records"

// seedKey returns the seed key for a file name and whether it is a seed file.
func seedKey(name string) (string, bool) {
	m := filePattern.FindStringSubmatch(path.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// decode parses seed file content chosen by the file extension.
func decode(name string, data []byte) (Payload, error) {
	var v interface{}
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&v); err != nil {
			return Payload{}, fmt.Errorf("decode json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &v); err != nil {
			return Payload{}, fmt.Errorf("decode yaml: %w", err)
		}
	case ".toml":
		doc := map[string]interface{}{}
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return Payload{}, fmt.Errorf("decode toml: %w", err)
		}
		if records, ok := doc[tomlRecordsKey]; ok && len(doc) == 1 {
			v = records
		} else {
			v = doc
		}
	default:
		return Payload{}, fmt.Errorf("unsupported seed file %s", name)
	}
	return FromValue(v)
}
