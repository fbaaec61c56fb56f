// Package vcs computes working tree diffs with go-git.
package vcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/rs/zerolog/log"
)

// RemoteName is the remote refreshed before diffing
const RemoteName = "origin"

// Options tune CompareDiff
type Options struct {
	// Fetch refreshes RemoteName before resolving the reference
	Fetch bool
}

// CompareDiff returns the unified diff from HEAD of the repository that
// contains repoPath to ref, which may be a branch, remote branch, tag or
// commit hash. A repository without commits yields an empty diff.
func CompareDiff(ctx context.Context, repoPath, ref string, opts Options) (string, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		log.Warn().Str("path", repoPath).Msg("no changes detected in the repository")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	if opts.Fetch {
		if err := fetchOrigin(ctx, repo); err != nil {
			return "", err
		}
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", ref, err)
	}

	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	refCommit, err := repo.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("failed to load commit for %s: %w", ref, err)
	}

	patch, err := headCommit.PatchContext(ctx, refCommit)
	if err != nil {
		return "", fmt.Errorf("failed to compute diff: %w", err)
	}

	log.Debug().
		Str("head", head.Hash().String()).
		Str("ref", ref).
		Int("files", len(patch.FilePatches())).
		Msg("computed diff")

	return patch.String(), nil
}

func fetchOrigin(ctx context.Context, repo *git.Repository) error {
	remote, err := repo.Remote(RemoteName)
	if errors.Is(err, git.ErrRemoteNotFound) {
		log.Debug().Msg("no origin remote, skipping fetch")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up remote %s: %w", RemoteName, err)
	}

	log.Info().Str("remote", RemoteName).Msg("fetching remote")
	err = remote.FetchContext(ctx, &git.FetchOptions{RemoteName: RemoteName})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch %s: %w", RemoteName, err)
	}
	return nil
}
