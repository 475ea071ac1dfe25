package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imagetree.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"fallbackBranch": "main",
		"retry": 5,
		"retryBackoffSeconds": 30,
		"branches": [
			{"branch": "dev", "gitUrls": ["https://git.test/org/app.git"]},
			{"branch": "main", "gitUrls": ["https://git.test/org/app.git", "https://git.test/org/lib.git"]}
		]
	}`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "main", config.FallbackBranch)
	assert.Equal(t, 5, config.Retry)
	assert.Equal(t, 30*time.Second, config.RetryBackoff)
	require.Len(t, config.Branches, 2)
	assert.Equal(t, "dev", config.Branches[0].Branch)
	assert.Equal(t, []string{"https://git.test/org/app.git"}, config.Branches[0].GitURLs)
	assert.Len(t, config.Branches[1].GitURLs, 2)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"branches": [{"branch": "dev", "gitUrls": ["https://git.test/org/app.git"]}]}`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", config.FallbackBranch)
	assert.Equal(t, 3, config.Retry)
	assert.Equal(t, time.Minute, config.RetryBackoff)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	tests := []struct{ name, body string }{
		{"not json", `branches:`},
		{"no branches", `{"branches": []}`},
		{"empty branch name", `{"branches": [{"branch": "", "gitUrls": ["x"]}]}`},
		{"no git urls", `{"branches": [{"branch": "dev", "gitUrls": []}]}`},
		{"empty git url", `{"branches": [{"branch": "dev", "gitUrls": [""]}]}`},
		{"duplicate branch", `{"branches": [{"branch": "dev", "gitUrls": ["x"]}, {"branch": "dev", "gitUrls": ["y"]}]}`},
		{"negative retry", `{"retry": -1, "branches": [{"branch": "dev", "gitUrls": ["x"]}]}`},
		{"negative backoff", `{"retryBackoffSeconds": -1, "branches": [{"branch": "dev", "gitUrls": ["x"]}]}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, test.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
