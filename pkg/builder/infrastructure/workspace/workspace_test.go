package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"
)

func writeDockerfile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(content), 0o644))
}

func readDockerfile(t *testing.T, dir string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	require.NoError(t, err)
	return string(content)
}

func TestImageMeta(t *testing.T) {
	dir := t.TempDir()
	writeDockerfile(t, dir, "# NAME: org/app\n# GIT: https://git.test/org/lib.git\nFROM org/lib:latest\nRUN true\n")

	meta, err := NewManager(logger.NewTextLogger()).ImageMeta(dir)
	require.NoError(t, err)
	assert.Equal(t, "org/app", meta.Name)
	assert.Equal(t, "org/lib:latest", meta.BaseImage)
	assert.Equal(t, "https://git.test/org/lib.git", meta.BaseGitURL)
}

func TestImageMeta_AppendsLatestToBareBaseImage(t *testing.T) {
	dir := t.TempDir()
	writeDockerfile(t, dir, "# NAME: org/base\nFROM ubuntu\n")

	meta, err := NewManager(logger.NewTextLogger()).ImageMeta(dir)
	require.NoError(t, err)
	assert.Equal(t, "ubuntu:latest", meta.BaseImage)
	assert.Empty(t, meta.BaseGitURL)
}

func TestImageMeta_LastOccurrenceWins(t *testing.T) {
	dir := t.TempDir()
	writeDockerfile(t, dir, "# NAME: org/one\nFROM a:1\n# NAME: org/two\nFROM b:2\n")

	meta, err := NewManager(logger.NewTextLogger()).ImageMeta(dir)
	require.NoError(t, err)
	assert.Equal(t, "org/two", meta.Name)
	assert.Equal(t, "b:2", meta.BaseImage)
}

func TestImageMeta_RequiresNameAndFrom(t *testing.T) {
	manager := NewManager(logger.NewTextLogger())

	dir := t.TempDir()
	writeDockerfile(t, dir, "FROM ubuntu:22.04\n")
	_, err := manager.ImageMeta(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "# NAME:")

	dir = t.TempDir()
	writeDockerfile(t, dir, "# NAME: org/app\n")
	_, err = manager.ImageMeta(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FROM")
}

func TestImageMeta_MissingDockerfile(t *testing.T) {
	_, err := NewManager(logger.NewTextLogger()).ImageMeta(t.TempDir())
	require.Error(t, err)
}

func TestPinBaseTag(t *testing.T) {
	dir := t.TempDir()
	writeDockerfile(t, dir, "# NAME: org/app\nFROM org/lib:latest\nRUN true\nFROM scratch:base\n")

	require.NoError(t, NewManager(logger.NewTextLogger()).PinBaseTag(dir, "next"))
	content := readDockerfile(t, dir)
	assert.Contains(t, content, "FROM org/lib:next\n")
	assert.NotContains(t, content, "org/lib:latest")
	// only the first FROM line is pinned
	assert.Contains(t, content, "FROM scratch:base\n")
	assert.Contains(t, content, "RUN true\n")
}

func TestPinBaseTag_BareBaseImage(t *testing.T) {
	dir := t.TempDir()
	writeDockerfile(t, dir, "# NAME: org/app\nFROM org/lib\n")

	require.NoError(t, NewManager(logger.NewTextLogger()).PinBaseTag(dir, "next"))
	assert.Contains(t, readDockerfile(t, dir), "FROM org/lib:next\n")
}
