package workflows

import (
	"context"

	"github.com/PolarWolf314/credo/internal/credentials"
	"github.com/PolarWolf314/credo/internal/hierarchy"
	"github.com/PolarWolf314/credo/internal/identity"
)

// ShowOptions configures the show workflow.
type ShowOptions struct {
	// All ignores the configured repo, account and user filters.
	All bool
}

// ShowResult contains what show found.
type ShowResult struct {
	// Tree holds only users with a credentials file.
	Tree *hierarchy.Node

	// Filters are the configured filters that matched something.
	Filters []hierarchy.Applied

	// Single is set when exactly one set of credentials was found.
	Single *hierarchy.Selection

	// Keys describes the keys of each credentials file, by location.
	Keys map[string][]credentials.KeySummary

	// Problems holds why a credentials file couldn't be loaded, by location.
	Problems map[string]string

	// Accounts is the state of each account's id file, by account location.
	Accounts map[string]identity.State
}

// Empty reports whether no credentials were found.
func (r *ShowResult) Empty() bool {
	return r.Tree == nil || len(r.Tree.Children) == 0
}

// Show lists the credentials under the root without prompting or writing.
func (c *Credo) Show(ctx context.Context, opts ShowOptions) (*ShowResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	var (
		tree    *hierarchy.Node
		applied []hierarchy.Applied
		err     error
	)
	if opts.All {
		tree, err = c.explorer().Completed()
	} else {
		tree, applied, err = c.explorer().Filtered(c.filters())
	}
	if err != nil {
		return nil, err
	}

	result := &ShowResult{
		Tree:     tree,
		Filters:  applied,
		Keys:     map[string][]credentials.KeySummary{},
		Problems: map[string]string{},
		Accounts: map[string]identity.State{},
	}

	for _, repo := range tree.Children {
		for _, account := range repo.Children {
			if _, state, err := c.identity().Inspect(account.Location); err != nil {
				result.Problems[account.Location] = err.Error()
			} else {
				result.Accounts[account.Location] = state
			}

			for _, user := range account.Children {
				selection := hierarchy.Selection{
					Repo:     repo.Name,
					Account:  account.Name,
					User:     user.Name,
					Location: user.CredentialFile,
				}
				record, err := credentials.Load(credentials.NewLocator(selection), c.options())
				if err != nil {
					result.Problems[user.CredentialFile] = err.Error()
					continue
				}
				result.Keys[user.CredentialFile] = record.Summary()
			}
		}
	}

	result.Single = single(tree)
	return result, nil
}

// single follows the tree while every level has exactly one child.
func single(tree *hierarchy.Node) *hierarchy.Selection {
	var names []string
	node := tree
	for range hierarchy.Levels {
		if len(node.Children) != 1 {
			return nil
		}
		name := node.Names()[0]
		names = append(names, name)
		node = node.Children[name]
	}
	return &hierarchy.Selection{Repo: names[0], Account: names[1], User: names[2], Location: node.CredentialFile}
}
