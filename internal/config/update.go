package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// KnownKeys returns every dotted config key, sorted.
func KnownKeys() []string {
	v := viper.New()
	setDefaults(v)
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys
}

// WriteDefault writes the default configuration as YAML to path.
// An existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	path = ExpandTilde(path)
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrConfig,
			"Config file already exists: "+path,
			"Use --force to overwrite it")
	}

	root, err := defaultDocument()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate config",
			"This shouldn't happen - please report this bug")
	}

	header := "# sysinsight configuration\n" +
		"# Every key can also be set as SYSINSIGHT_<SECTION>_<KEY> in the environment.\n\n"

	return writeDocument(path, header, root)
}

// SetValue updates a single dotted key (e.g. "thresholds.cpu_percent") in the
// YAML file at path, preserving the rest of the file and its comments. The
// file is created from defaults if it doesn't exist yet.
func SetValue(path, key, value string) error {
	path = ExpandTilde(path)

	if !isKnownKey(key) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown config key '%s'", key),
			"Run 'sysinsight config keys' to list valid keys")
	}

	var root *yaml.Node
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		root, err = defaultDocument()
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, "Failed to generate config", "")
		}
	case err != nil:
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file "+path,
			"Check file permissions")
	default:
		root = &yaml.Node{}
		if err := yaml.Unmarshal(data, root); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to parse config file "+path,
				"Check the YAML syntax")
		}
	}

	if root.Kind == 0 {
		root = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return errors.New(errors.ErrConfig,
			"Expected a mapping at the top of "+path,
			"The config file should be a YAML mapping of sections")
	}

	node := root.Content[0]
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		child := findMapValue(node, part)
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalarNode(part), child)
		}
		node = child
	}

	leaf := parts[len(parts)-1]
	newValue := scalarNode(value)
	newValue.Tag = ""
	if existing := findMapValue(node, leaf); existing != nil {
		*existing = *newValue
	} else {
		node.Content = append(node.Content, scalarNode(leaf), newValue)
	}

	return writeDocument(path, "", root)
}

// defaultDocument encodes DefaultConfig as a YAML node tree. yaml.v3 writes
// time.Duration fields in their String form ("500ms").
func defaultDocument() (*yaml.Node, error) {
	var doc yaml.Node
	if err := doc.Encode(DefaultConfig()); err != nil {
		return nil, err
	}

	if assistant := findMapValue(&doc, "assistant"); assistant != nil {
		for i := 0; i < len(assistant.Content)-1; i += 2 {
			if assistant.Content[i].Value == "api_key" {
				assistant.Content[i].HeadComment = "Prefer OPENAI_API_KEY in the environment or a .env file."
			}
		}
	}

	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{&doc}}, nil
}

func writeDocument(path, header string, root *yaml.Node) error {
	var buf strings.Builder
	buf.WriteString(header)
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	encoder.Close()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to create config directory "+dir,
				"Check directory permissions")
		}
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write config file: "+path,
			"Check directory permissions")
	}
	return nil
}

func isKnownKey(key string) bool {
	for _, k := range KnownKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: value,
	}
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
