package deps

import (
	"bytes"
	"regexp"

	"gopkg.in/yaml.v3"
)

var yamlKeyLine = regexp.MustCompile(`(?m)^[ \t]*["']?[\w.@/-]+["']?[ \t]*:([ \t]|$)`)

// looksYAML reports whether text starts with a document marker or has at
// least one "key:" line.
func looksYAML(text []byte) bool {
	trimmed := bytes.TrimLeft(text, "\ufeff \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("---")) || yamlKeyLine.Match(text)
}

// extractYAML reads the top-level "dependencies" mapping of a YAML document.
func extractYAML(text []byte) []Dependency {
	if !looksYAML(text) {
		return nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil
	}
	root := resolveNode(&doc)
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = resolveNode(root.Content[0])
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}

	var out []Dependency
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "dependencies" {
			continue
		}
		deps := resolveNode(root.Content[i+1])
		if deps.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(deps.Content); j += 2 {
			if version, ok := yamlVersion(resolveNode(deps.Content[j+1])); ok {
				out = append(out, Dependency{Name: deps.Content[j].Value, Version: version})
			}
		}
	}
	return out
}

func yamlVersion(n *yaml.Node) (string, bool) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "", false
		}
		return n.Value, true
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == "version" && n.Content[i+1].Kind == yaml.ScalarNode {
				return n.Content[i+1].Value, true
			}
		}
	}
	return "", false
}

func resolveNode(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
