package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// langSpec binds a tree-sitter grammar to the node types that count as
// function and type definitions in that grammar. Adding a language is a new
// table entry, not new extraction logic.
type langSpec struct {
	language      func() *sitter.Language
	functionNodes map[string]bool
	typeNodes     map[string]bool
}

func (s langSpec) unitKind(nodeType string) (UnitKind, bool) {
	if s.functionNodes[nodeType] {
		return UnitFunction, true
	}
	if s.typeNodes[nodeType] {
		return UnitType, true
	}
	return "", false
}

func nodeSet(types ...string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

var languages = map[string]langSpec{
	"python": {
		language:      python.GetLanguage,
		functionNodes: nodeSet("function_definition"),
		typeNodes:     nodeSet("class_definition"),
	},
	"javascript": {
		language:      javascript.GetLanguage,
		functionNodes: nodeSet("function_declaration", "method_definition"),
		typeNodes:     nodeSet("class_declaration"),
	},
	"typescript": {
		language:      typescript.GetLanguage,
		functionNodes: nodeSet("function_declaration", "method_definition"),
		typeNodes:     nodeSet("class_declaration"),
	},
	"go": {
		language:      golang.GetLanguage,
		functionNodes: nodeSet("function_declaration", "method_declaration"),
		typeNodes:     nodeSet("type_declaration"),
	},
	"java": {
		language:      java.GetLanguage,
		functionNodes: nodeSet("method_declaration"),
		typeNodes:     nodeSet("class_declaration"),
	},
	"c": {
		language:      c.GetLanguage,
		functionNodes: nodeSet("function_definition"),
		typeNodes:     nil,
	},
	"cpp": {
		language:      cpp.GetLanguage,
		functionNodes: nodeSet("function_definition"),
		typeNodes:     nodeSet("class_specifier"),
	},
	"rust": {
		language:      rust.GetLanguage,
		functionNodes: nodeSet("function_item"),
		typeNodes:     nodeSet("struct_item"),
	},
}

var extensions = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".go":   "go",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".rs":   "rust",
}
