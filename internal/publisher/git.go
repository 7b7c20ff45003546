package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"golang-stock-predictor/pkg/logger"
)

// ErrNotInHead signals that a path has no committed version yet (new file, or
// an unborn branch). The publisher treats it as "content differs".
var ErrNotInHead = errors.New("path not present in HEAD")

// Runner abstracts the git operations the publisher needs. The production
// implementation shells out to the git CLI; tests substitute a fake.
type Runner interface {
	Add(ctx context.Context, paths []string) error
	HasStagedChanges(ctx context.Context, paths []string) (bool, error)
	Commit(ctx context.Context, message, authorName, authorEmail string) error
	HeadHash(ctx context.Context) (string, error)
	Push(ctx context.Context, remote, branch string) error
	ShowHead(ctx context.Context, path string) ([]byte, error)
}

type gitRunner struct {
	dir    string
	logger *logger.Logger
}

// NewGitRunner creates a Runner executing the system git inside dir.
func NewGitRunner(dir string, log *logger.Logger) Runner {
	return &gitRunner{dir: dir, logger: log}
}

func (r *gitRunner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Add stages exactly the given paths.
func (r *gitRunner) Add(ctx context.Context, paths []string) error {
	args := append([]string{"add", "--"}, paths...)
	if _, err := r.run(ctx, args...); err != nil {
		return err
	}
	return nil
}

// HasStagedChanges reports whether the index differs from HEAD for the given
// paths. Exit code 1 from diff --quiet means "differences exist".
func (r *gitRunner) HasStagedChanges(ctx context.Context, paths []string) (bool, error) {
	args := append([]string{"diff", "--cached", "--quiet", "--"}, paths...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, fmt.Errorf("git diff: %w: %s", err, strings.TrimSpace(stderr.String()))
}

// Commit records the staged content under the bot identity.
func (r *gitRunner) Commit(ctx context.Context, message, authorName, authorEmail string) error {
	_, err := r.run(ctx,
		"-c", "user.name="+authorName,
		"-c", "user.email="+authorEmail,
		"commit", "-m", message,
	)
	return err
}

// HeadHash returns the current commit hash.
func (r *gitRunner) HeadHash(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Push transmits local commits to the remote tracking branch.
func (r *gitRunner) Push(ctx context.Context, remote, branch string) error {
	_, err := r.run(ctx, "push", remote, "HEAD:"+branch)
	return err
}

// ShowHead returns the committed content of path, or ErrNotInHead when the
// path does not exist in HEAD.
func (r *gitRunner) ShowHead(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", "show", "HEAD:"+path)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && isMissingFromHead(stderr.String()) {
			return nil, ErrNotInHead
		}
		return nil, fmt.Errorf("git show: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// isMissingFromHead reports whether git show failed because the path has no
// committed version: the path is absent from HEAD, or the repository has no
// commits yet. Any other failure (broken repository, bad object store) must
// surface as an error, not as "content differs".
func isMissingFromHead(stderr string) bool {
	return strings.Contains(stderr, "does not exist in") ||
		strings.Contains(stderr, "exists on disk, but not in") ||
		strings.Contains(stderr, "invalid object name 'HEAD'") ||
		strings.Contains(stderr, "unknown revision")
}
