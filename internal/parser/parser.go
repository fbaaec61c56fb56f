package parser

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"
)

// Parser statically discovers tests in source files using tree-sitter.
// A Parser is not safe for concurrent use.
type Parser struct {
	goParser *sitter.Parser
	pyParser *sitter.Parser
}

// NewParser creates a new parser with Go and Python support
func NewParser() *Parser {
	goParser := sitter.NewParser()
	goParser.SetLanguage(golang.GetLanguage())

	pyParser := sitter.NewParser()
	pyParser.SetLanguage(python.GetLanguage())

	return &Parser{
		goParser: goParser,
		pyParser: pyParser,
	}
}

// ParseTests reads and parses a single file
func (p *Parser) ParseTests(ctx context.Context, filePath string) (*TestFile, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", filePath)
	}

	return p.ParseContent(ctx, filePath, content, lang)
}

// ParseContent extracts tests from source code content
func (p *Parser) ParseContent(ctx context.Context, filePath string, content []byte, lang Language) (*TestFile, error) {
	var parser *sitter.Parser
	switch lang {
	case LanguageGo:
		parser = p.goParser
	case LanguagePython:
		parser = p.pyParser
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%s:%d: %w", filePath, firstErrorLine(root)+1, ErrSyntax)
	}

	parsed := &TestFile{
		Path:     filePath,
		Language: lang,
		Tests:    make([]TestFunc, 0),
	}

	switch lang {
	case LanguageGo:
		p.extractGoTests(root, content, parsed)
	case LanguagePython:
		p.extractPythonTests(root, content, nil, nil, parsed)
	}

	return parsed, nil
}

// extractGoTests collects top-level TestXxx(t *testing.T) functions
func (p *Parser) extractGoTests(root *sitter.Node, source []byte, parsed *TestFile) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if id := child.NamedChild(j); id.Type() == "package_identifier" {
					parsed.Package = id.Content(source)
				}
			}
		case "function_declaration":
			if fn := p.parseGoTest(child, source); fn != nil {
				parsed.Tests = append(parsed.Tests, *fn)
			}
		}
	}
}

func (p *Parser) parseGoTest(node *sitter.Node, source []byte) *TestFunc {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)
	if !isGoTestName(name) {
		return nil
	}

	if node.ChildByFieldName("type_parameters") != nil {
		return nil
	}

	params := node.ChildByFieldName("parameters")
	if params == nil || !takesTestingT(params, source) {
		return nil
	}

	if result := node.ChildByFieldName("result"); result != nil {
		return nil
	}

	fn := &TestFunc{
		Name: name,
		Line: int(node.StartPoint().Row),
	}
	if body := node.ChildByFieldName("body"); body != nil {
		fn.Parallel = strings.Contains(body.Content(source), ".Parallel()")
	}
	return fn
}

// takesTestingT reports whether the parameter list is exactly one *testing.T.
func takesTestingT(params *sitter.Node, source []byte) bool {
	var decls []*sitter.Node
	for i := 0; i < int(params.NamedChildCount()); i++ {
		if c := params.NamedChild(i); c.Type() == "parameter_declaration" {
			decls = append(decls, c)
		}
	}
	if len(decls) != 1 {
		return false
	}

	names := 0
	for i := 0; i < int(decls[0].NamedChildCount()); i++ {
		if decls[0].NamedChild(i).Type() == "identifier" {
			names++
		}
	}
	if names > 1 {
		return false
	}

	typeNode := decls[0].ChildByFieldName("type")
	if typeNode == nil {
		return false
	}
	return strings.ReplaceAll(typeNode.Content(source), " ", "") == "*testing.T"
}

// isGoTestName mirrors the go tool rule: "Test" followed by nothing or a
// non-lowercase rune.
func isGoTestName(name string) bool {
	if !strings.HasPrefix(name, "Test") {
		return false
	}
	rest := name[len("Test"):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLower(r)
}

// extractPythonTests collects pytest-style tests from a module or class body.
func (p *Parser) extractPythonTests(node *sitter.Node, source []byte, classes, inherited []string, parsed *TestFile) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		def := child
		var markers []string

		if child.Type() == "decorated_definition" {
			def = decoratedDefinition(child)
			if def == nil {
				continue
			}
			markers = decoratorMarkers(child, source)
		}

		switch def.Type() {
		case "function_definition":
			nameNode := def.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := nameNode.Content(source)
			if !strings.HasPrefix(name, "test") {
				continue
			}
			parsed.Tests = append(parsed.Tests, TestFunc{
				Name:    name,
				Classes: append([]string(nil), classes...),
				Line:    int(child.StartPoint().Row),
				Markers: append(append([]string(nil), inherited...), markers...),
			})

		case "class_definition":
			nameNode := def.ChildByFieldName("name")
			body := def.ChildByFieldName("body")
			if nameNode == nil || body == nil {
				continue
			}
			name := nameNode.Content(source)
			if !strings.HasPrefix(name, "Test") || definesInit(body, source) {
				continue
			}
			nested := append(append([]string(nil), classes...), name)
			classMarkers := append(append([]string(nil), inherited...), markers...)
			p.extractPythonTests(body, source, nested, classMarkers, parsed)
		}
	}
}

func decoratedDefinition(node *sitter.Node) *sitter.Node {
	if def := node.ChildByFieldName("definition"); def != nil {
		return def
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() == "function_definition" || c.Type() == "class_definition" {
			return c
		}
	}
	return nil
}

var markPattern = regexp.MustCompile(`^@\s*(?:pytest\.)?mark\.([A-Za-z_][A-Za-z0-9_]*)`)

func decoratorMarkers(node *sitter.Node, source []byte) []string {
	var markers []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() != "decorator" {
			continue
		}
		if m := markPattern.FindStringSubmatch(c.Content(source)); m != nil {
			markers = append(markers, m[1])
		}
	}
	return markers
}

// definesInit reports whether a class body defines __init__; pytest does not
// collect such classes.
func definesInit(body *sitter.Node, source []byte) bool {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if c.Type() == "decorated_definition" {
			c = decoratedDefinition(c)
			if c == nil {
				continue
			}
		}
		if c.Type() != "function_definition" {
			continue
		}
		if name := c.ChildByFieldName("name"); name != nil && name.Content(source) == "__init__" {
			return true
		}
	}
	return false
}

// firstErrorLine returns the zero-based row of the first error or missing node.
func firstErrorLine(root *sitter.Node) int {
	line := int(root.StartPoint().Row)
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	found := false
	walkTree(cursor, func(n *sitter.Node) {
		if found {
			return
		}
		if n.IsError() || n.IsMissing() {
			line = int(n.StartPoint().Row)
			found = true
		}
	})
	return line
}

func walkTree(cursor *sitter.TreeCursor, fn func(*sitter.Node)) {
	for {
		fn(cursor.CurrentNode())

		if cursor.GoToFirstChild() {
			continue
		}

		for {
			if cursor.GoToNextSibling() {
				break
			}
			if !cursor.GoToParent() {
				return
			}
		}
	}
}
