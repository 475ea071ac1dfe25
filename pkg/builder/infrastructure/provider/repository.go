package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
	"github.com/imagetree/imagetree/pkg/builder/application/service"
)

func NewRepositoryProvider(logger applogger.Logger) service.RepositoryProvider {
	return &repositoryProvider{
		logger:       logger,
		paths:        make(map[model.GitURL]string),
		repositories: make(map[model.GitURL]*git.Repository),
	}
}

// repositoryProvider clones every repository once into a fresh temporary
// directory and serves all branch checkouts from that working copy.
type repositoryProvider struct {
	logger       applogger.Logger
	paths        map[model.GitURL]string
	repositories map[model.GitURL]*git.Repository
}

func (provider *repositoryProvider) Checkout(ctx context.Context, gitURL model.GitURL, branch, fallbackBranch string) (string, error) {
	repository, path, err := provider.open(ctx, gitURL)
	if err != nil {
		return "", err
	}
	err = provider.checkoutBranch(repository, branch, fallbackBranch)
	if err != nil {
		return "", errors.Wrapf(err, "failed to checkout %v on branch %v", gitURL, branch)
	}
	return path, nil
}

func (provider *repositoryProvider) IdenticalBranches(ctx context.Context, gitURL model.GitURL, left, right string) (bool, error) {
	if left == right {
		return true, nil
	}
	repository, ok := provider.repositories[gitURL]
	if !ok {
		return false, fmt.Errorf("repository %v is not checked out", gitURL)
	}
	leftTree, err := provider.branchTree(repository, left)
	if err != nil {
		return false, errors.Wrapf(err, "failed to resolve branch %v of %v", left, gitURL)
	}
	rightTree, err := provider.branchTree(repository, right)
	if err != nil {
		return false, errors.Wrapf(err, "failed to resolve branch %v of %v", right, gitURL)
	}
	changes, err := object.DiffTreeWithOptions(ctx, leftTree, rightTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return false, errors.Wrapf(err, "failed to diff branches %v and %v of %v", left, right, gitURL)
	}
	provider.logger.Debug(fmt.Sprintf("%v changes between branches \"%v\" and \"%v\" of %v", len(changes), left, right, gitURL))
	return len(changes) == 0, nil
}

func (provider *repositoryProvider) open(ctx context.Context, gitURL model.GitURL) (*git.Repository, string, error) {
	if path, ok := provider.paths[gitURL]; ok {
		provider.logger.Debug(fmt.Sprintf("%v already cloned into %v", gitURL, path))
		return provider.repositories[gitURL], path, nil
	}
	path, err := os.MkdirTemp("", "imagetree-*")
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create working directory")
	}
	provider.logger.Info(fmt.Sprintf("clone %v into %v...", gitURL, path))
	repository, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{URL: gitURL})
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to clone repository %v", gitURL)
	}
	provider.paths[gitURL] = path
	provider.repositories[gitURL] = repository
	return repository, path, nil
}

// checkoutBranch puts the working copy on the given branch: an existing
// local branch, a local branch created from the remote one, or, when the
// branch does not exist at all, a new branch created from the fallback.
func (provider *repositoryProvider) checkoutBranch(repository *git.Repository, branch, fallbackBranch string) error {
	worktree, err := repository.Worktree()
	if err != nil {
		return err
	}
	localBranch := plumbing.NewBranchReferenceName(branch)
	err = worktree.Checkout(&git.CheckoutOptions{Branch: localBranch, Force: true})
	if err == nil {
		return nil
	}
	if reference, refErr := repository.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch), true); refErr == nil {
		return worktree.Checkout(&git.CheckoutOptions{
			Hash:   reference.Hash(),
			Branch: localBranch,
			Create: true,
			Force:  true,
		})
	}
	hash, err := provider.branchHash(repository, fallbackBranch)
	if err != nil {
		return errors.Wrapf(err, "branch %v not found, failed to resolve fallback branch %v", branch, fallbackBranch)
	}
	provider.logger.Info(fmt.Sprintf("create branch \"%v\" from \"%v\"", branch, fallbackBranch))
	return worktree.Checkout(&git.CheckoutOptions{
		Hash:   hash,
		Branch: localBranch,
		Create: true,
		Force:  true,
	})
}

func (provider *repositoryProvider) branchHash(repository *git.Repository, branch string) (plumbing.Hash, error) {
	if reference, err := repository.Reference(plumbing.NewBranchReferenceName(branch), true); err == nil {
		return reference.Hash(), nil
	}
	reference, err := repository.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch), true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return reference.Hash(), nil
}

func (provider *repositoryProvider) branchTree(repository *git.Repository, branch string) (*object.Tree, error) {
	hash, err := provider.branchHash(repository, branch)
	if err != nil {
		return nil, err
	}
	commit, err := repository.CommitObject(hash)
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}
