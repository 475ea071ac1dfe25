package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"
)

func TestStageSSH_CopiesKeyDirectory(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "id_rsa"), []byte("key"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(source, "conf.d"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(source, "conf.d", "config"), []byte("Host *\n"), 0o644))

	workdir := t.TempDir()
	m := &manager{logger: logger.NewTextLogger(), sshSource: source}
	require.NoError(t, m.StageSSH(workdir, ".ssh"))
	assert.FileExists(t, filepath.Join(workdir, ".ssh", "id_rsa"))
	assert.FileExists(t, filepath.Join(workdir, ".ssh", "conf.d", "config"))

	require.NoError(t, m.UnstageSSH(workdir, ".ssh"))
	assert.NoDirExists(t, filepath.Join(workdir, ".ssh"))
}

func TestStageSSH_ReplacesStaleKeys(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "id_rsa"), []byte("fresh"), 0o600))

	workdir := t.TempDir()
	staged := filepath.Join(workdir, ".ssh")
	require.NoError(t, os.MkdirAll(staged, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "stale"), []byte("old"), 0o600))

	m := &manager{logger: logger.NewTextLogger(), sshSource: source}
	require.NoError(t, m.StageSSH(workdir, ".ssh"))
	assert.FileExists(t, filepath.Join(staged, "id_rsa"))
	assert.NoFileExists(t, filepath.Join(staged, "stale"))
}

func TestStageSSH_MissingSourceIsSkipped(t *testing.T) {
	workdir := t.TempDir()
	m := &manager{logger: logger.NewTextLogger(), sshSource: filepath.Join(t.TempDir(), "absent")}
	require.NoError(t, m.StageSSH(workdir, ".ssh"))
	assert.NoDirExists(t, filepath.Join(workdir, ".ssh"))
}
