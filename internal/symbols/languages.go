package symbols

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageConfig maps a language's AST node types onto the symbol kinds
// the chunker cares about. Grounded on the teacher's
// internal/chunk/languages.go LanguageConfig.
type LanguageConfig struct {
	Name           string
	TSLanguage     *sitter.Language
	FunctionTypes  []string
	MethodTypes    []string
	ClassTypes     []string
	InterfaceTypes []string
	TypeDefTypes   []string
	ConstantTypes  []string
	VariableTypes  []string
}

// Registry resolves a file extension to a LanguageConfig.
type Registry struct {
	mu        sync.RWMutex
	byLang    map[string]*LanguageConfig
	extToLang map[string]string
}

// NewRegistry builds a registry covering Go, TypeScript, TSX, JavaScript,
// JSX and Python, matching the languages the teacher's chunk package
// supports.
func NewRegistry() *Registry {
	r := &Registry{
		byLang:    make(map[string]*LanguageConfig),
		extToLang: make(map[string]string),
	}

	r.register(&LanguageConfig{
		Name:          "go",
		TSLanguage:    golang.GetLanguage(),
		FunctionTypes: []string{"function_declaration"},
		MethodTypes:   []string{"method_declaration"},
		TypeDefTypes:  []string{"type_declaration"},
		ConstantTypes: []string{"const_declaration"},
		VariableTypes: []string{"var_declaration"},
	}, ".go")

	ts := &LanguageConfig{
		Name:           "typescript",
		TSLanguage:     typescript.GetLanguage(),
		FunctionTypes:  []string{"function_declaration"},
		MethodTypes:    []string{"method_definition"},
		ClassTypes:     []string{"class_declaration"},
		InterfaceTypes: []string{"interface_declaration"},
		TypeDefTypes:   []string{"type_alias_declaration"},
		ConstantTypes:  []string{"lexical_declaration"},
		VariableTypes:  []string{"variable_declaration"},
	}
	r.register(ts, ".ts")
	r.register(&LanguageConfig{
		Name:           "tsx",
		TSLanguage:     tsx.GetLanguage(),
		FunctionTypes:  ts.FunctionTypes,
		MethodTypes:    ts.MethodTypes,
		ClassTypes:     ts.ClassTypes,
		InterfaceTypes: ts.InterfaceTypes,
		TypeDefTypes:   ts.TypeDefTypes,
		ConstantTypes:  ts.ConstantTypes,
		VariableTypes:  ts.VariableTypes,
	}, ".tsx")

	js := &LanguageConfig{
		Name:          "javascript",
		TSLanguage:    javascript.GetLanguage(),
		FunctionTypes: []string{"function_declaration", "function"},
		MethodTypes:   []string{"method_definition"},
		ClassTypes:    []string{"class_declaration"},
		ConstantTypes: []string{"lexical_declaration"},
		VariableTypes: []string{"variable_declaration"},
	}
	r.register(js, ".js", ".mjs")
	r.register(&LanguageConfig{
		Name:          "jsx",
		TSLanguage:    javascript.GetLanguage(),
		FunctionTypes: js.FunctionTypes,
		MethodTypes:   js.MethodTypes,
		ClassTypes:    js.ClassTypes,
		ConstantTypes: js.ConstantTypes,
		VariableTypes: js.VariableTypes,
	}, ".jsx")

	r.register(&LanguageConfig{
		Name:          "python",
		TSLanguage:    python.GetLanguage(),
		FunctionTypes: []string{"function_definition"},
		ClassTypes:    []string{"class_definition"},
		VariableTypes: []string{"assignment"},
	}, ".py")

	return r
}

func (r *Registry) register(cfg *LanguageConfig, extensions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byLang[cfg.Name] = cfg
	for _, ext := range extensions {
		r.extToLang[ext] = cfg.Name
	}
}

// ByExtension returns the LanguageConfig for a lowercase, dot-prefixed
// extension, and false if unsupported.
func (r *Registry) ByExtension(ext string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.extToLang[strings.ToLower(ext)]
	if !ok {
		return nil, false
	}
	cfg, ok := r.byLang[name]
	return cfg, ok
}

// ByName returns the LanguageConfig registered under name.
func (r *Registry) ByName(name string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.byLang[name]
	return cfg, ok
}
