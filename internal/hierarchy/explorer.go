package hierarchy

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

// Filters narrow the tree. Empty values are ignored.
type Filters struct {
	Repo    string
	Account string
	User    string
}

func (f Filters) value(level Level) string {
	switch level {
	case Repository:
		return f.Repo
	case Account:
		return f.Account
	default:
		return f.User
	}
}

// Applied is a filter that matched and narrowed the tree.
type Applied struct {
	Key   string
	Value string
}

// Explorer scans a storage root.
type Explorer struct {
	Root string
}

// Discover returns every repository, account and user directory under the root.
func (e Explorer) Discover() (*Node, error) {
	root := NewRoot(e.Root)
	if _, err := os.Stat(e.Root); os.IsNotExist(err) {
		return root, nil
	}

	fsys := os.DirFS(e.Root)
	patterns := []string{
		"repos/*",
		"repos/*/accounts/*",
		"repos/*/accounts/*/users/*",
	}
	for depth, pattern := range patterns {
		dirs, err := globDirs(fsys, pattern)
		if err != nil {
			return nil, kerrors.New(kerrors.ErrCredentialFile, "Couldn't scan storage root", "location", e.Root, "error", err)
		}
		for _, dir := range dirs {
			parts := strings.Split(dir, "/")
			node := root
			for level := 0; level <= depth; level++ {
				node = node.Child(Level(level), parts[level*2+1])
			}
		}
	}

	for _, repo := range root.Children {
		for _, account := range repo.Children {
			for _, user := range account.Children {
				files, err := listFiles(fsys, user.Location, e.Root)
				if err != nil {
					return nil, kerrors.New(kerrors.ErrCredentialFile, "Couldn't scan user directory", "location", user.Location, "error", err)
				}
				user.Files = files
			}
		}
	}
	return root, nil
}

// Completed returns only users with a credential file, pruning empty branches.
func (e Explorer) Completed() (*Node, error) {
	tree, err := e.Discover()
	if err != nil {
		return nil, err
	}
	return prune(tree, Repository), nil
}

// Filtered narrows the completed tree with filters and reports which ones
// matched. Filters naming something that doesn't exist are ignored.
func (e Explorer) Filtered(filters Filters) (*Node, []Applied, error) {
	tree, err := e.Completed()
	if err != nil {
		return nil, nil, err
	}

	var applied []Applied
	var narrow func(node *Node, level Level)
	narrow = func(node *Node, level Level) {
		want := filters.value(level)
		if want != "" {
			if child, ok := node.Children[want]; ok {
				node.Children = map[string]*Node{want: child}
				if !containsApplied(applied, level.Key()) {
					applied = append(applied, Applied{Key: level.Key(), Value: want})
				}
			}
		}
		if level == User {
			return
		}
		for _, child := range node.Children {
			narrow(child, level+1)
		}
	}
	narrow(tree, Repository)

	return prune(tree, Repository), applied, nil
}

func containsApplied(applied []Applied, key string) bool {
	for _, a := range applied {
		if a.Key == key {
			return true
		}
	}
	return false
}

// prune drops users without a credential file and any branch left empty.
func prune(node *Node, level Level) *Node {
	for name, child := range node.Children {
		if level == User {
			if !fileExists(child.CredentialFile) {
				delete(node.Children, name)
			}
			continue
		}
		prune(child, level+1)
		if len(child.Children) == 0 {
			delete(node.Children, name)
		}
	}
	return node
}

// globDirs returns slash separated directory paths matching pattern.
func globDirs(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, match := range matches {
		info, err := fs.Stat(fsys, match)
		if err != nil {
			return nil, err
		}
		if info.IsDir() && !hidden(match) {
			dirs = append(dirs, match)
		}
	}
	return dirs, nil
}

// hidden reports whether any segment of the slash separated path starts with a dot.
func hidden(match string) bool {
	for _, segment := range strings.Split(match, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

// listFiles returns the absolute paths of every file under dir.
func listFiles(fsys fs.FS, dir, root string) ([]string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, err
	}
	matches, err := doublestar.Glob(fsys, filepath.ToSlash(rel)+"/**", doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		files = append(files, filepath.Join(root, filepath.FromSlash(match)))
	}
	return files, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
