// Package parser segments source code into function and type definition
// units using tree-sitter syntax trees.
package parser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	// ErrUnsupportedLanguage is returned when no grammar is registered for a language tag.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrParseFailed is returned when tree-sitter cannot produce a usable tree.
	ErrParseFailed = errors.New("parse failed")
)

// UnitKind classifies a segmented source unit.
type UnitKind string

const (
	UnitFunction UnitKind = "function"
	UnitType     UnitKind = "type"
)

// Unit is a function or type definition extracted from a syntax tree.
// Lines are 0-based and inclusive; byte offsets index the original source.
type Unit struct {
	Kind      UnitKind
	Name      string
	StartLine int
	EndLine   int
	StartByte int
	EndByte   int
	Text      string
}

// Segmenter extracts definition units from source code.
type Segmenter struct{}

// NewSegmenter creates a segmenter covering all registered languages.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Supported reports whether a grammar is registered for the language tag.
func (s *Segmenter) Supported(language string) bool {
	_, ok := languages[language]
	return ok
}

// Languages returns the registered language tags in sorted order.
func (s *Segmenter) Languages() []string {
	tags := make([]string, 0, len(languages))
	for tag := range languages {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Segment parses source and returns all function and type definition units in
// document order. Nested units (methods inside classes, inner functions) are
// retained alongside their enclosing unit; callers resolve overlap.
func (s *Segmenter) Segment(source []byte, language string) ([]Unit, error) {
	spec, ok := languages[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	p := sitter.NewParser()
	p.SetLanguage(spec.language())

	tree, err := p.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("%w: empty tree", ErrParseFailed)
	}
	defer tree.Close()

	var units []Unit

	cursor := sitter.NewTreeCursor(tree.RootNode())
	defer cursor.Close()
	collectUnits(cursor, source, spec, &units)

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].StartByte < units[j].StartByte
	})

	return units, nil
}

// collectUnits walks the tree depth-first, recording every node whose type
// appears in the language's definition tables. Recursion continues into
// matched nodes so nested definitions are captured too.
func collectUnits(cursor *sitter.TreeCursor, source []byte, spec langSpec, units *[]Unit) {
	node := cursor.CurrentNode()

	if kind, ok := spec.unitKind(node.Type()); ok {
		*units = append(*units, Unit{
			Kind:      kind,
			Name:      unitName(node, source),
			StartLine: int(node.StartPoint().Row),
			EndLine:   int(node.EndPoint().Row),
			StartByte: int(node.StartByte()),
			EndByte:   int(node.EndByte()),
			Text:      string(source[node.StartByte():node.EndByte()]),
		})
	}

	if cursor.GoToFirstChild() {
		collectUnits(cursor, source, spec, units)
		for cursor.GoToNextSibling() {
			collectUnits(cursor, source, spec, units)
		}
		cursor.GoToParent()
	}
}

// unitName resolves the identifier of a definition node. Most grammars expose
// a "name" field; C-family function definitions bury it in the declarator
// chain, and Go type declarations wrap it in a type_spec.
func unitName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return nodeText(name, source)
	}

	if decl := node.ChildByFieldName("declarator"); decl != nil {
		for decl != nil && decl.Type() != "identifier" {
			next := decl.ChildByFieldName("declarator")
			if next == nil {
				break
			}
			decl = next
		}
		if decl != nil && decl.Type() == "identifier" {
			return nodeText(decl, source)
		}
		return ""
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "type_spec" {
			if name := child.ChildByFieldName("name"); name != nil {
				return nodeText(name, source)
			}
		}
	}

	return ""
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// DetectLanguage maps a file path to a language tag by extension.
func DetectLanguage(path string) (string, bool) {
	lower := strings.ToLower(path)
	for ext, tag := range extensions {
		if strings.HasSuffix(lower, ext) {
			return tag, true
		}
	}
	return "", false
}
