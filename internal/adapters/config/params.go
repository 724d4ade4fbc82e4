package config

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// LoadParameters reads a parameter file. The format follows the extension:
// .json, .yaml/.yml and .toml; anything else is read as "name = value" lines.
func (l *Loader) LoadParameters(path string) (*domain.ParameterSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var set *domain.ParameterSet
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		set = domain.NewParameterSet()
		err = json.Unmarshal(data, set)
	case ".yaml", ".yml":
		set, err = parseYAMLParameters(data)
	case ".toml":
		set, err = parseTOMLParameters(data)
	default:
		set, err = parseSimpleParameters(data)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrParameterParse, err.Error()), "path", path)
	}
	return set, nil
}

func parseYAMLParameters(data []byte) (*domain.ParameterSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return domain.NewParameterSet(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, zerr.New("parameter file must contain a mapping")
	}
	v, err := yamlValue(root)
	if err != nil {
		return nil, err
	}
	return v.(*domain.ParameterSet), nil //nolint:forcetypeassert // mapping nodes yield sets
}

func yamlValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.MappingNode:
		set := domain.NewParameterSet()
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := yamlValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			set.Set(node.Content[i].Value, v)
		}
		return set, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.AliasNode:
		return yamlValue(node.Alias)
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return normalizeScalar(v), nil
	}
}

func parseTOMLParameters(data []byte) (*domain.ParameterSet, error) {
	var raw map[string]any
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	if err != nil {
		return nil, err
	}

	set := domain.NewParameterSet()
	var arrays []string
	for _, key := range md.Keys() {
		path := strings.Join(key, ".")
		if underArray(path, arrays) {
			continue
		}
		switch md.Type(key...) {
		case "Hash":
			if !hasPath(set, key) {
				set.SetPath(path, domain.NewParameterSet())
			}
			continue
		case "ArrayHash":
			arrays = append(arrays, path)
		}
		set.SetPath(path, tomlValue(lookup(raw, key)))
	}
	return set, nil
}

func hasPath(set *domain.ParameterSet, key toml.Key) bool {
	cur := set
	for i, part := range key {
		v, ok := cur.Get(part)
		if !ok {
			return false
		}
		if i == len(key)-1 {
			return true
		}
		if cur, ok = v.(*domain.ParameterSet); !ok {
			return false
		}
	}
	return false
}

func underArray(path string, arrays []string) bool {
	for _, a := range arrays {
		if strings.HasPrefix(path, a+".") {
			return true
		}
	}
	return false
}

func lookup(raw map[string]any, key toml.Key) any {
	var cur any = raw
	for _, part := range key {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// tomlValue converts decoded TOML values. Tables inside arrays have no
// recorded order, so their keys are sorted.
func tomlValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		set := domain.NewParameterSet()
		for _, k := range keys {
			set.Set(k, tomlValue(t[k]))
		}
		return set
	case []map[string]any:
		list := make([]any, len(t))
		for i, m := range t {
			list[i] = tomlValue(m)
		}
		return list
	case []any:
		list := make([]any, len(t))
		for i, item := range t {
			list[i] = tomlValue(item)
		}
		return list
	default:
		return normalizeScalar(v)
	}
}

func normalizeScalar(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case uint64:
		return float64(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}

// parseSimpleParameters reads "name = value" lines. Blank lines and lines
// starting with # are skipped.
func parseSimpleParameters(data []byte) (*domain.ParameterSet, error) {
	set := domain.NewParameterSet()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := domain.ParseAssignment(set, text); err != nil {
			return nil, zerr.With(err, "line", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}
