package forms

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a parsed config.yml. Apply edits scalars in place so comments
// and key order survive a round trip.
type Document struct {
	root *yaml.Node
}

// Parse reads content into a Document. Empty content yields an empty mapping.
func Parse(content string) (*Document, error) {
	var root yaml.Node
	if strings.TrimSpace(content) != "" {
		if err := yaml.Unmarshal([]byte(content), &root); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse config: top level must be a mapping")
	}
	return &Document{root: &root}, nil
}

func (d *Document) top() *yaml.Node {
	return d.root.Content[0]
}

// Read returns the section's values as a clean State. Keys absent from the
// document are left unset so defaults apply.
func (d *Document) Read(sec Section) State {
	values := map[string]string{}
	node := lookup(d.top(), sec.Path)
	if node == nil || node.Kind != yaml.MappingNode {
		return NewState(values)
	}
	for _, f := range sec.Fields {
		v := mappingValue(node, f.Key)
		if v == nil || v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
			continue
		}
		values[f.Key] = v.Value
	}
	return NewState(values)
}

// Apply writes st into the document. Unset keys that are not already present
// are not added. A cleared key that exists becomes null.
func (d *Document) Apply(sec Section, st State) error {
	node, err := ensureMapping(d.top(), sec.Path)
	if err != nil {
		return err
	}
	for _, f := range sec.Fields {
		v, set := st.values[f.Key]
		existing := mappingValue(node, f.Key)
		if existing == nil && (!set || v == "") {
			continue
		}
		scalar := scalarFor(f, v)
		if existing == nil {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
				scalar)
			continue
		}
		if existing.Kind != yaml.ScalarNode {
			return fmt.Errorf("%s.%s: cannot overwrite a %s", strings.Join(sec.Path, "."), f.Key, kindName(existing.Kind))
		}
		existing.Tag = scalar.Tag
		existing.Value = scalar.Value
		if scalar.Tag == "!!null" {
			existing.Style = 0
		}
	}
	return nil
}

// Bytes encodes the document with two-space indentation.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Library summarizes a libraries: entry.
type Library struct {
	Name            string
	CollectionFiles []string
	OverlayFiles    []string
	Operations      bool
}

// Libraries lists the libraries block in document order.
func (d *Document) Libraries() []Library {
	libs := lookup(d.top(), []string{"libraries"})
	if libs == nil || libs.Kind != yaml.MappingNode {
		return nil
	}
	var out []Library
	for i := 0; i+1 < len(libs.Content); i += 2 {
		lib := Library{Name: libs.Content[i].Value}
		body := libs.Content[i+1]
		if body.Kind == yaml.MappingNode {
			lib.CollectionFiles = fileRefs(mappingValue(body, "collection_files"))
			lib.OverlayFiles = fileRefs(mappingValue(body, "overlay_files"))
			lib.Operations = mappingValue(body, "operations") != nil
		}
		out = append(out, lib)
	}
	return out
}

// fileRefs renders entries such as "- file: config/Movies.yml" or
// "- default: imdb" as "file: config/Movies.yml".
func fileRefs(seq *yaml.Node) []string {
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil
	}
	var refs []string
	for _, item := range seq.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			refs = append(refs, item.Value)
		case yaml.MappingNode:
			if len(item.Content) >= 2 {
				refs = append(refs, item.Content[0].Value+": "+item.Content[1].Value)
			}
		}
	}
	return refs
}

// TopLevelKeys returns the document's top-level keys sorted.
func (d *Document) TopLevelKeys() []string {
	top := d.top()
	keys := make([]string, 0, len(top.Content)/2)
	for i := 0; i+1 < len(top.Content); i += 2 {
		keys = append(keys, top.Content[i].Value)
	}
	sort.Strings(keys)
	return keys
}

func lookup(node *yaml.Node, path []string) *yaml.Node {
	for _, key := range path {
		if node == nil || node.Kind != yaml.MappingNode {
			return nil
		}
		node = mappingValue(node, key)
	}
	return node
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func ensureMapping(node *yaml.Node, path []string) (*yaml.Node, error) {
	for depth, key := range path {
		next := mappingValue(node, key)
		switch {
		case next == nil:
			next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, next)
		case next.Kind == yaml.ScalarNode && (next.Tag == "!!null" || next.Value == ""):
			// "plex:" with no body parses as null.
			next.Kind = yaml.MappingNode
			next.Tag = "!!map"
			next.Value = ""
		case next.Kind != yaml.MappingNode:
			return nil, fmt.Errorf("%s: expected a mapping, found a %s",
				strings.Join(path[:depth+1], "."), kindName(next.Kind))
		}
		node = next
	}
	return node, nil
}

func scalarFor(f Field, v string) *yaml.Node {
	v = strings.TrimSpace(v)
	if v == "" {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	switch f.Kind {
	case KindBool:
		if b, err := strconv.ParseBool(v); err == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
		}
	case KindInt:
		if _, err := strconv.Atoi(v); err == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v}
		}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.AliasNode:
		return "alias"
	default:
		return "scalar"
	}
}
