package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang-stock-predictor/pkg/logger"
)

// Options configures the publish stage.
type Options struct {
	// RepoDir is the working tree the outputs were written into.
	RepoDir string
	// Paths are the only files the publisher may stage and commit,
	// relative to RepoDir.
	Paths []string
	// Bot identity used for the synthetic commit.
	BotName  string
	BotEmail string
	// CommitMessage is the fixed message for every publish commit.
	CommitMessage string
	Remote        string
	Branch        string
}

// Result is the outcome of a publish.
type Result struct {
	// Changed is false when the run produced byte-identical output and no
	// commit was created.
	Changed    bool
	CommitHash string
}

// Publisher commits run output to the repository, but only when it differs
// from the committed state.
type Publisher interface {
	Publish(ctx context.Context) (*Result, error)
}

type publisher struct {
	opts   Options
	runner Runner
	logger *logger.Logger
}

// New creates a Publisher over the given git runner.
func New(opts Options, runner Runner, log *logger.Logger) Publisher {
	return &publisher{
		opts:   opts,
		runner: runner,
		logger: log,
	}
}

// Publish stages, diffs, commits and pushes. The content-digest check
// makes the operation idempotent: identical output terminates successfully
// without a commit, so repeated runs over unchanged data never stack empty
// commits.
func (p *publisher) Publish(ctx context.Context) (*Result, error) {
	changed, err := p.hasContentChanges(ctx)
	if err != nil {
		return nil, err
	}
	if !changed {
		p.logger.Info("No changes in output files, nothing to commit")
		return &Result{Changed: false}, nil
	}

	if err := p.runner.Add(ctx, p.opts.Paths); err != nil {
		return nil, fmt.Errorf("failed to stage output files: %w", err)
	}

	// Second check at the index level; the digest comparison above can race
	// with an interleaved commit of the same content.
	staged, err := p.runner.HasStagedChanges(ctx, p.opts.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to diff staged output: %w", err)
	}
	if !staged {
		p.logger.Info("Index already matches HEAD, nothing to commit")
		return &Result{Changed: false}, nil
	}

	if err := p.runner.Commit(ctx, p.opts.CommitMessage, p.opts.BotName, p.opts.BotEmail); err != nil {
		return nil, fmt.Errorf("failed to commit output files: %w", err)
	}

	hash, err := p.runner.HeadHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commit hash: %w", err)
	}

	if err := p.runner.Push(ctx, p.opts.Remote, p.opts.Branch); err != nil {
		return nil, fmt.Errorf("failed to push to %s/%s: %w", p.opts.Remote, p.opts.Branch, err)
	}

	p.logger.Info("Published run output",
		logger.StringField("commit", hash),
		logger.StringField("branch", p.opts.Branch),
	)

	return &Result{Changed: true, CommitHash: hash}, nil
}

// hasContentChanges compares a digest of each worktree file against the
// committed version. Any mismatch, including a file present on only one
// side, counts as a change.
func (p *publisher) hasContentChanges(ctx context.Context) (bool, error) {
	for _, path := range p.opts.Paths {
		workContent, err := os.ReadFile(filepath.Join(p.opts.RepoDir, path))
		if err != nil {
			if !os.IsNotExist(err) {
				return false, fmt.Errorf("failed to read %s: %w", path, err)
			}
			workContent = nil
		}

		headContent, err := p.runner.ShowHead(ctx, path)
		if err != nil {
			if !errors.Is(err, ErrNotInHead) {
				return false, fmt.Errorf("failed to read committed %s: %w", path, err)
			}
			headContent = nil
		}

		if !digestsEqual(contentDigest(workContent), contentDigest(headContent)) {
			p.logger.Debug("Output file changed", logger.StringField("path", path))
			return true, nil
		}
	}
	return false, nil
}
