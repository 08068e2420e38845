package hierarchy

import (
	"strings"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
	"github.com/PolarWolf314/credo/internal/prompt"
)

// Selection is one resolved (repository, account, user) and its credential file.
type Selection struct {
	Repo     string
	Account  string
	User     string
	Location string
}

func (s *Selection) set(level Level, name string) {
	switch level {
	case Repository:
		s.Repo = name
	case Account:
		s.Account = name
	default:
		s.User = name
	}
}

// Find walks tree level by level. A level with one child is taken without
// prompting, several children prompt once, and none is ErrNoCredentialsFound.
// wanted only provides context for that error.
func Find(tree *Node, chooser prompt.Chooser, wanted Filters) (Selection, error) {
	var selection Selection
	node := tree

	for _, level := range Levels {
		names := node.Names()

		var name string
		switch len(names) {
		case 0:
			return Selection{}, kerrors.New(kerrors.ErrNoCredentialsFound, "Told to find a key that doesn't exist",
				"repo", wanted.Repo, "account", wanted.Account, "user", wanted.User)
		case 1:
			name = names[0]
		default:
			chosen, err := chooseFrom(chooser, level, names)
			if err != nil {
				return Selection{}, err
			}
			name = chosen
		}

		selection.set(level, name)
		node = node.Children[name]
	}

	selection.Location = node.CredentialFile
	return selection, nil
}

// Make walks tree level by level, creating nodes in memory as needed. A
// preset name is used as is; otherwise the user picks an existing child or
// types a new one. Nothing is written to disk.
func Make(tree *Node, chooser prompt.Chooser, presets Filters) (Selection, error) {
	var selection Selection
	node := tree

	for _, level := range Levels {
		name := presets.value(level)
		if name != "" && !ValidName(name) {
			return Selection{}, kerrors.New(kerrors.ErrConfiguration, "Not a usable "+level.Key()+" name", level.Key(), name)
		}
		if name == "" {
			chosen, err := chooseOrCreate(chooser, level, node.Names())
			if err != nil {
				return Selection{}, err
			}
			name = chosen
		}

		selection.set(level, name)
		node = node.Child(level, name)
	}

	selection.Location = node.CredentialFile
	return selection, nil
}

func chooseFrom(chooser prompt.Chooser, level Level, names []string) (string, error) {
	for {
		chosen, err := chooser.Choose(level.Category(), names)
		if err != nil {
			return "", err
		}
		for _, name := range names {
			if name == chosen {
				return chosen, nil
			}
		}
	}
}

func chooseOrCreate(chooser prompt.Chooser, level Level, names []string) (string, error) {
	for {
		chosen, err := chooser.ChooseOrCreate(level.Category(), names)
		if err != nil {
			return "", err
		}
		chosen = strings.TrimSpace(chosen)
		if ValidName(chosen) {
			return chosen, nil
		}
	}
}

// ValidName reports whether name can be used as a single directory name.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
