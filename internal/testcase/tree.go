package testcase

// NoClassKey is the rendered name of the bucket holding module-level tests.
const NoClassKey = "null"

// ClassKey identifies a class bucket inside a file entry. The zero value is
// the bucket for tests that are not defined inside a class, and it never
// equals the key of a real class, whatever that class is called.
type ClassKey struct {
	Name  string
	Valid bool
}

// NoClass is the bucket for class-less tests.
var NoClass = ClassKey{}

// Class returns the bucket key for the named class.
func Class(name string) ClassKey {
	return ClassKey{Name: name, Valid: true}
}

// String renders the key, using NoClassKey for the class-less bucket.
func (k ClassKey) String() string {
	if !k.Valid {
		return NoClassKey
	}
	return k.Name
}

// Tree groups test names by file and class. Files and classes are kept in
// the order they were first added; test lists keep input multiplicity.
type Tree struct {
	files  []string
	byFile map[string]*fileNode
	leaves int
}

type fileNode struct {
	classes []ClassKey
	tests   map[ClassKey][]string
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{byFile: make(map[string]*fileNode)}
}

// Build folds entries into a new tree.
func Build(entries []Metadata) *Tree {
	t := NewTree()
	for _, e := range entries {
		t.Add(e)
	}
	return t
}

// Add appends the entry's name under its file and class.
func (t *Tree) Add(m Metadata) {
	node, ok := t.byFile[m.File]
	if !ok {
		node = &fileNode{tests: make(map[ClassKey][]string)}
		t.byFile[m.File] = node
		t.files = append(t.files, m.File)
	}

	key := m.ClassKey()
	if _, ok := node.tests[key]; !ok {
		node.classes = append(node.classes, key)
	}
	node.tests[key] = append(node.tests[key], m.Name)
	t.leaves++
}

// Files returns file paths in build order.
func (t *Tree) Files() []string {
	out := make([]string, len(t.files))
	copy(out, t.files)
	return out
}

// Classes returns the class buckets of a file in build order.
func (t *Tree) Classes(file string) []ClassKey {
	node, ok := t.byFile[file]
	if !ok {
		return nil
	}
	out := make([]ClassKey, len(node.classes))
	copy(out, node.classes)
	return out
}

// Tests returns the test names in one bucket.
func (t *Tree) Tests(file string, key ClassKey) []string {
	node, ok := t.byFile[file]
	if !ok {
		return nil
	}
	names := node.tests[key]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Len returns the total number of test names in the tree.
func (t *Tree) Len() int {
	return t.leaves
}

// Map converts the tree to plain nested maps for rendering. The class-less
// bucket is keyed by NoClassKey. If a real class is also named NoClassKey
// both buckets are merged in the rendered form only.
func (t *Tree) Map() map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(t.files))
	for _, file := range t.files {
		node := t.byFile[file]
		classes := make(map[string][]string, len(node.classes))
		for _, key := range node.classes {
			classes[key.String()] = append(classes[key.String()], node.tests[key]...)
		}
		out[file] = classes
	}
	return out
}
