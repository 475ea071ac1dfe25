package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
)

func TestRender(t *testing.T) {
	var out bytes.Buffer
	err := Render(&out, []model.BuildRecord{
		{Repository: "org/app", Tag: "next", Seconds: 12.25, Type: model.OperationBuild},
		{Repository: "org/app", Tag: "next_050109", Seconds: 3.5, Type: model.OperationPush},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"repository", "tag", "seconds", "type"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"org/app", "next", "12.25", "build"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"org/app", "next_050109", "3.50", "push"}, strings.Fields(lines[2]))
}

func TestRender_EmptyReport(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Render(&out, nil))
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

func TestRenderImages(t *testing.T) {
	var out bytes.Buffer
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	err := RenderImages(&out, []model.LocalImage{
		{Repository: "org/app", Tag: "next", ID: "abc123def456", Created: created, Size: 1536},
	})
	require.NoError(t, err)

	rendered := out.String()
	assert.Contains(t, rendered, "repository")
	assert.Contains(t, rendered, "image id")
	assert.Contains(t, rendered, "abc123def456")
	assert.Contains(t, rendered, "2024-05-01 10:00:00")
	assert.Contains(t, rendered, "1.5KB")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0B", formatSize(0))
	assert.Equal(t, "512B", formatSize(512))
	assert.Equal(t, "1.5KB", formatSize(1536))
	assert.Equal(t, "2.0MB", formatSize(2*1024*1024))
	assert.Equal(t, "1.0GB", formatSize(1024*1024*1024))
}
