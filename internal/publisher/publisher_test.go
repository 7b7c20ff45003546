package publisher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang-stock-predictor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	head          map[string][]byte
	stagedDiffers bool

	addedPaths    [][]string
	commits       []string
	pushes        int
	headHash      string
	pushErr       error
	commitErr     error
	stagedDiffErr error
}

func (f *fakeRunner) Add(ctx context.Context, paths []string) error {
	f.addedPaths = append(f.addedPaths, paths)
	return nil
}

func (f *fakeRunner) HasStagedChanges(ctx context.Context, paths []string) (bool, error) {
	return f.stagedDiffers, f.stagedDiffErr
}

func (f *fakeRunner) Commit(ctx context.Context, message, authorName, authorEmail string) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits = append(f.commits, message)
	return nil
}

func (f *fakeRunner) HeadHash(ctx context.Context) (string, error) {
	return f.headHash, nil
}

func (f *fakeRunner) Push(ctx context.Context, remote, branch string) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes++
	return nil
}

func (f *fakeRunner) ShowHead(ctx context.Context, path string) ([]byte, error) {
	content, ok := f.head[path]
	if !ok {
		return nil, ErrNotInHead
	}
	return content, nil
}

func writeWorktree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func newTestPublisher(t *testing.T, dir string, runner *fakeRunner) Publisher {
	t.Helper()
	return New(Options{
		RepoDir:       dir,
		Paths:         []string{"predictions.json", "history.csv"},
		BotName:       "prediction-bot",
		BotEmail:      "prediction-bot@example.com",
		CommitMessage: "Update stock predictions and history log",
		Remote:        "origin",
		Branch:        "main",
	}, runner, logger.NewNop())
}

func TestPublishNoChangesIsNoOp(t *testing.T) {
	dir := t.TempDir()
	writeWorktree(t, dir, map[string]string{
		"predictions.json": `{"predictions":[]}`,
		"history.csv":      "date,symbol\n",
	})
	runner := &fakeRunner{
		head: map[string][]byte{
			"predictions.json": []byte(`{"predictions":[]}`),
			"history.csv":      []byte("date,symbol\n"),
		},
	}

	result, err := newTestPublisher(t, dir, runner).Publish(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Empty(t, result.CommitHash)
	assert.Empty(t, runner.addedPaths)
	assert.Empty(t, runner.commits)
	assert.Zero(t, runner.pushes)
}

func TestPublishChangedContentCommitsOnce(t *testing.T) {
	dir := t.TempDir()
	writeWorktree(t, dir, map[string]string{
		"predictions.json": `{"predictions":[{"symbol":"AAPL"}]}`,
		"history.csv":      "date,symbol\n2026-08-28,AAPL\n",
	})
	runner := &fakeRunner{
		head: map[string][]byte{
			"predictions.json": []byte(`{"predictions":[]}`),
			"history.csv":      []byte("date,symbol\n"),
		},
		stagedDiffers: true,
		headHash:      "abc123def456",
	}

	result, err := newTestPublisher(t, dir, runner).Publish(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, "abc123def456", result.CommitHash)
	require.Len(t, runner.addedPaths, 1)
	assert.Equal(t, []string{"predictions.json", "history.csv"}, runner.addedPaths[0])
	require.Len(t, runner.commits, 1)
	assert.Equal(t, "Update stock predictions and history log", runner.commits[0])
	assert.Equal(t, 1, runner.pushes)
}

func TestPublishNewFileCountsAsChange(t *testing.T) {
	dir := t.TempDir()
	writeWorktree(t, dir, map[string]string{
		"predictions.json": `{"predictions":[]}`,
		"history.csv":      "date,symbol\n",
	})
	// Nothing committed yet: ShowHead returns ErrNotInHead for every path.
	runner := &fakeRunner{
		head:          map[string][]byte{},
		stagedDiffers: true,
		headHash:      "first",
	}

	result, err := newTestPublisher(t, dir, runner).Publish(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, 1, runner.pushes)
}

func TestPublishIndexRecheckStopsEmptyCommit(t *testing.T) {
	dir := t.TempDir()
	writeWorktree(t, dir, map[string]string{
		"predictions.json": `{"a":1}`,
		"history.csv":      "x\n",
	})
	runner := &fakeRunner{
		head: map[string][]byte{
			"predictions.json": []byte(`{"a":0}`),
			"history.csv":      []byte("x\n"),
		},
		stagedDiffers: false,
	}

	result, err := newTestPublisher(t, dir, runner).Publish(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Empty(t, runner.commits)
	assert.Zero(t, runner.pushes)
}

func TestPublishPushErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	writeWorktree(t, dir, map[string]string{
		"predictions.json": `{"a":1}`,
		"history.csv":      "x\n",
	})
	pushErr := errors.New("remote rejected")
	runner := &fakeRunner{
		head:          map[string][]byte{},
		stagedDiffers: true,
		headHash:      "abc",
		pushErr:       pushErr,
	}

	_, err := newTestPublisher(t, dir, runner).Publish(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pushErr)
}

func TestDigestsEqual(t *testing.T) {
	assert.True(t, digestsEqual(contentDigest(nil), contentDigest(nil)))
	assert.False(t, digestsEqual(contentDigest(nil), contentDigest([]byte(""))))
	assert.True(t, digestsEqual(contentDigest([]byte("abc")), contentDigest([]byte("abc"))))
	assert.False(t, digestsEqual(contentDigest([]byte("abc")), contentDigest([]byte("abd"))))
}
