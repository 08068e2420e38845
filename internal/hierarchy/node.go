// Package hierarchy discovers the repository -> account -> user tree under
// a storage root and resolves one credential location from it.
//
// The layout on disk is
//
//	<root>/repos/<repository>/accounts/<account>/users/<user>/credentials.json
//
// Discovery and filtering never modify the filesystem. Find and Make walk
// the levels in order and only prompt when a level is ambiguous.
package hierarchy

import (
	"path/filepath"
	"sort"
)

// CredentialsFile is the name of the credential file in a user directory.
const CredentialsFile = "credentials.json"

// Level is one level of the hierarchy.
type Level int

const (
	Repository Level = iota
	Account
	User
)

// Levels lists every level in resolution order.
var Levels = []Level{Repository, Account, User}

// Container is the directory that holds the nodes of this level.
func (l Level) Container() string {
	switch l {
	case Repository:
		return "repos"
	case Account:
		return "accounts"
	default:
		return "users"
	}
}

// Key is the option name for this level.
func (l Level) Key() string {
	switch l {
	case Repository:
		return "repo"
	case Account:
		return "account"
	default:
		return "user"
	}
}

// Category is the human name shown when prompting for this level.
func (l Level) Category() string {
	switch l {
	case Repository:
		return "Repository"
	case Account:
		return "Account"
	default:
		return "User"
	}
}

// Node is one directory in the hierarchy. The root node is the storage root.
type Node struct {
	Name     string
	Location string
	Children map[string]*Node

	// Set on user nodes only.
	CredentialFile string
	Files          []string
}

// NewRoot returns the root node for a storage directory.
func NewRoot(location string) *Node {
	return &Node{Location: location, Children: map[string]*Node{}}
}

// Child returns the named child, creating it under the container for level
// when it doesn't exist yet.
func (n *Node) Child(level Level, name string) *Node {
	if child, ok := n.Children[name]; ok {
		return child
	}
	child := &Node{
		Name:     name,
		Location: filepath.Join(n.Location, level.Container(), name),
		Children: map[string]*Node{},
	}
	if level == User {
		child.CredentialFile = filepath.Join(child.Location, CredentialsFile)
	}
	n.Children[name] = child
	return child
}

// Names returns the children's names sorted.
func (n *Node) Names() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Leaves counts the user nodes under n.
func (n *Node) Leaves(level Level) int {
	if level == User {
		return len(n.Children)
	}
	total := 0
	for _, child := range n.Children {
		total += child.Leaves(level + 1)
	}
	return total
}
