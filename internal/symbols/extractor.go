// Package symbols extracts named code constructs from source files via
// tree-sitter, for use as a chunker.Extractor. Grounded on the teacher's
// internal/chunk package (parser.go, languages.go, extractor.go), but
// walks native *sitter.Node trees directly rather than converting to an
// intermediate Node type first, since this package has no need for the
// teacher's separately serializable Tree/Node structures.
package symbols

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/ragdex/ragdex/pkg/types"
)

// Extractor implements chunker.Extractor using tree-sitter grammars.
type Extractor struct {
	registry *Registry
}

// New creates a tree-sitter backed Extractor.
func New() *Extractor {
	return &Extractor{registry: NewRegistry()}
}

// ExtractSymbols parses source with the grammar registered for language
// and returns every symbol-defining node found. An unsupported language
// is not an error: the chunker falls back to plain text chunking.
func (e *Extractor) ExtractSymbols(source, language string) ([]types.Symbol, error) {
	cfg, ok := e.registry.ByName(language)
	if !ok {
		return nil, nil
	}

	src := []byte(source)
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cfg.TSLanguage)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	var out []types.Symbol
	walk(tree.RootNode(), func(n *sitter.Node) {
		if sym, ok := e.symbolFromNode(n, src, cfg, language); ok {
			out = append(out, sym)
		}
	})
	return out, nil
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		walk(n.Child(i), visit)
	}
}

func (e *Extractor) symbolFromNode(n *sitter.Node, source []byte, cfg *LanguageConfig, language string) (types.Symbol, bool) {
	// A const/let/var holding an arrow function or function expression is
	// a function by intent even though the grammar files it under the
	// same node type as any other variable declaration, so this check
	// runs before the generic classification below.
	if sym, ok := e.specialSymbol(n, source, language); ok {
		return sym, true
	}

	kind, found := classify(n.Type(), cfg)
	if !found {
		return types.Symbol{}, false
	}

	nameNode := findNameNode(n, language)
	if nameNode == nil {
		return types.Symbol{}, false
	}
	name := nameNode.Content(source)
	if name == "" {
		return types.Symbol{}, false
	}

	return types.Symbol{
		Name:         name,
		Kind:         kind,
		NameRange:    rangeOf(nameNode),
		ContentRange: rangeOf(n),
	}, true
}

func classify(nodeType string, cfg *LanguageConfig) (types.SymbolKind, bool) {
	switch {
	case contains(cfg.FunctionTypes, nodeType):
		return types.KindFunction, true
	case contains(cfg.MethodTypes, nodeType):
		return types.KindMethod, true
	case contains(cfg.ClassTypes, nodeType):
		return types.KindClass, true
	case contains(cfg.InterfaceTypes, nodeType):
		return types.KindInterface, true
	case contains(cfg.TypeDefTypes, nodeType):
		return types.KindType, true
	case contains(cfg.ConstantTypes, nodeType):
		return types.KindVariable, true
	case contains(cfg.VariableTypes, nodeType):
		return types.KindVariable, true
	default:
		return "", false
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// findNameNode locates the identifier child that names a symbol-defining
// node. Dispatch mirrors the teacher's per-language extractName split,
// since Go field_identifier/type_identifier conventions differ from the
// JS/TS "name lives inside a variable_declarator" shape.
func findNameNode(n *sitter.Node, language string) *sitter.Node {
	switch language {
	case "go":
		return findGoName(n)
	case "typescript", "tsx", "javascript", "jsx":
		return findJSName(n)
	case "python":
		return childOfType(n, "identifier")
	default:
		return childOfType(n, "identifier")
	}
}

func findGoName(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "function_declaration":
		return childOfType(n, "identifier")
	case "method_declaration":
		return childOfType(n, "field_identifier")
	case "type_declaration":
		if spec := childOfType(n, "type_spec"); spec != nil {
			return childOfType(spec, "type_identifier")
		}
	case "const_declaration":
		if spec := childOfType(n, "const_spec"); spec != nil {
			return childOfType(spec, "identifier")
		}
	case "var_declaration":
		if spec := childOfType(n, "var_spec"); spec != nil {
			return childOfType(spec, "identifier")
		}
	}
	return nil
}

func findJSName(n *sitter.Node) *sitter.Node {
	if n.Type() == "lexical_declaration" || n.Type() == "variable_declaration" {
		if decl := childOfType(n, "variable_declarator"); decl != nil {
			return childOfType(decl, "identifier")
		}
		return nil
	}
	if id := childOfType(n, "identifier"); id != nil {
		return id
	}
	if id := childOfType(n, "property_identifier"); id != nil {
		return id
	}
	return childOfType(n, "type_identifier")
}

func childOfType(n *sitter.Node, nodeType string) *sitter.Node {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// specialSymbol covers JS/TS `const name = () => {}` and
// `const name = function() {}`, which the grammar represents as a
// lexical_declaration rather than a dedicated function node.
func (e *Extractor) specialSymbol(n *sitter.Node, source []byte, language string) (types.Symbol, bool) {
	switch language {
	case "typescript", "tsx", "javascript", "jsx":
		if n.Type() != "lexical_declaration" && n.Type() != "variable_declaration" {
			return types.Symbol{}, false
		}
	default:
		return types.Symbol{}, false
	}

	decl := childOfType(n, "variable_declarator")
	if decl == nil {
		return types.Symbol{}, false
	}

	var nameNode *sitter.Node
	hasFunction := false
	count := int(decl.ChildCount())
	for i := 0; i < count; i++ {
		child := decl.Child(i)
		switch child.Type() {
		case "identifier":
			nameNode = child
		case "arrow_function", "function", "function_expression":
			hasFunction = true
		}
	}

	if nameNode == nil || !hasFunction {
		return types.Symbol{}, false
	}

	return types.Symbol{
		Name:         nameNode.Content(source),
		Kind:         types.KindFunction,
		NameRange:    rangeOf(nameNode),
		ContentRange: rangeOf(n),
	}, true
}

func rangeOf(n *sitter.Node) types.Range {
	start, end := n.StartPoint(), n.EndPoint()
	return types.Range{
		Start: types.Position{
			Line:   int(start.Row) + 1,
			Column: int(start.Column),
			Offset: int(n.StartByte()),
		},
		End: types.Position{
			Line:   int(end.Row) + 1,
			Column: int(end.Column),
			Offset: int(n.EndByte()),
		},
	}
}
