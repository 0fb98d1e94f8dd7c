// Package frontmatter reads and writes YAML frontmatter on article documents
// and computes their content fingerprint.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Keys excluded from the fingerprint; they change without the content changing.
var volatileKeys = map[string]struct{}{
	mdfp.FingerprintField: {},
	"lastmod":             {},
	"uid":                 {},
	"date":                {},
}

// Split separates `---` delimited YAML frontmatter from the Markdown body.
// Documents without frontmatter return empty fields and the full input.
// CRLF line endings are normalized to LF.
func Split(content string) (map[string]any, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		return map[string]any{}, content, nil
	}

	rest := content[len("---\n"):]
	var raw, body string
	if strings.HasPrefix(rest, "---\n") {
		body = rest[len("---\n"):]
	} else {
		idx := strings.Index(rest, "\n---\n")
		if idx < 0 {
			return nil, "", ErrMissingClosingDelimiter
		}
		raw = rest[:idx+1]
		body = rest[idx+len("\n---\n"):]
	}

	fields := map[string]any{}
	if raw != "" {
		if err := yaml.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, "", fmt.Errorf("parse frontmatter: %w", err)
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}
	return fields, body, nil
}

// String returns fields[key] when it is a non-empty string.
func String(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}

// Render joins fields and body into a document. Keys are emitted sorted so
// the output is stable.
func Render(fields map[string]any, body string) (string, error) {
	if len(fields) == 0 {
		return body, nil
	}
	fm, err := serialize(fields)
	if err != nil {
		return "", err
	}
	return "---\n" + fm + "---\n" + body, nil
}

// Fingerprint hashes the non-volatile fields and the body with mdfp.
func Fingerprint(fields map[string]any, body string) (string, error) {
	stable := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, skip := volatileKeys[k]; !skip {
			stable[k] = v
		}
	}
	fm := ""
	if len(stable) > 0 {
		s, err := serialize(stable)
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(s, "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, body), nil
}

func serialize(fields map[string]any) (string, error) {
	node, err := mappingNode(fields)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mappingNode(m map[string]any) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		val, err := valueNode(m[k])
		if err != nil {
			return nil, fmt.Errorf("frontmatter key %q: %w", k, err)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, val)
	}
	return n, nil
}

func valueNode(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case map[string]any:
		return mappingNode(vv)
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			node, err := valueNode(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, node)
		}
		return seq, nil
	default:
		var n yaml.Node
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return &n, nil
	}
}
