// Package testutil provides helpers shared by tests that touch git
// repositories or external test tools
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// RequireBinary skips the test in short mode or when name is not on PATH
func RequireBinary(t *testing.T, name string) {
	t.Helper()

	if testing.Short() {
		t.Skipf("skipping %s invocation in short mode", name)
	}
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("skipping test: %s not available", name)
	}
}

// RequirePythonModule skips the test unless python can import module
func RequirePythonModule(t *testing.T, python, module string) {
	t.Helper()

	RequireBinary(t, python)
	if err := exec.Command(python, "-c", "import "+module).Run(); err != nil {
		t.Skipf("skipping test: %s cannot import %s", python, module)
	}
}

// WriteFiles writes files (relative slash paths to contents) below dir
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

// Repo is a git repository in a temporary directory
type Repo struct {
	Dir      string
	Repo     *git.Repository
	Worktree *git.Worktree
}

// NewRepo initializes an empty repository in a fresh temp dir
func NewRepo(t *testing.T) *Repo {
	t.Helper()
	return InitRepo(t, t.TempDir())
}

// InitRepo initializes an empty repository in dir
func InitRepo(t *testing.T, dir string) *Repo {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to open worktree: %v", err)
	}
	return &Repo{Dir: dir, Repo: repo, Worktree: wt}
}

// Commit writes files, stages them and commits with msg
func (r *Repo) Commit(t *testing.T, files map[string]string, msg string) plumbing.Hash {
	t.Helper()

	WriteFiles(t, r.Dir, files)
	for name := range files {
		if _, err := r.Worktree.Add(name); err != nil {
			t.Fatalf("failed to stage %s: %v", name, err)
		}
	}

	hash, err := r.Worktree.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash
}

// Branch points a new branch at hash
func (r *Repo) Branch(t *testing.T, name string, hash plumbing.Hash) {
	t.Helper()

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), hash)
	if err := r.Repo.Storer.SetReference(ref); err != nil {
		t.Fatalf("failed to create branch %s: %v", name, err)
	}
}
