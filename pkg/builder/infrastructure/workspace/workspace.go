package workspace

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
	"github.com/imagetree/imagetree/pkg/builder/application/service"
)

const dockerfile = "Dockerfile"

const (
	namePrefix = "# NAME:"
	fromPrefix = "FROM "
	gitPrefix  = "# GIT:"
)

func NewManager(logger applogger.Logger) service.Workspace {
	return &manager{logger: logger}
}

type manager struct {
	logger applogger.Logger

	sshSource string
}

// ImageMeta reads the image description from the Dockerfile of a working
// copy: the image name from the NAME header, the base image from the FROM
// line and, for images built on top of another repository, the GIT header
// pointing at it. The last occurrence of each wins.
func (m *manager) ImageMeta(path string) (model.ImageMeta, error) {
	file, err := os.Open(filepath.Join(path, dockerfile))
	if err != nil {
		return model.ImageMeta{}, errors.Wrapf(err, "failed to open Dockerfile in %v", path)
	}
	defer file.Close()
	meta, err := parseImageMeta(file)
	if err != nil {
		return model.ImageMeta{}, errors.Wrapf(err, "failed to parse Dockerfile in %v", path)
	}
	return meta, nil
}

// PinBaseTag rewrites the first FROM line of the Dockerfile to reference
// the base image under the given tag, truncating at the last colon.
func (m *manager) PinBaseTag(path, tag string) error {
	filePath := filepath.Join(path, dockerfile)
	content, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read %v", filePath)
	}
	lines := strings.Split(string(content), "\n")
	for index, line := range lines {
		if !strings.HasPrefix(line, fromPrefix) {
			continue
		}
		base := line
		if colon := strings.LastIndex(line, ":"); colon >= 0 {
			base = line[:colon]
		}
		lines[index] = base + ":" + tag
		break
	}
	err = os.WriteFile(filePath, []byte(strings.Join(lines, "\n")), 0o644)
	return errors.Wrapf(err, "failed to pin base image tag in %v", filePath)
}

func parseImageMeta(r io.Reader) (model.ImageMeta, error) {
	var meta model.ImageMeta
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, namePrefix):
			meta.Name = strings.TrimSpace(strings.TrimPrefix(line, namePrefix))
		case strings.HasPrefix(line, fromPrefix):
			meta.BaseImage = strings.TrimSpace(strings.TrimPrefix(line, fromPrefix))
			if !strings.Contains(meta.BaseImage, ":") {
				meta.BaseImage += ":latest"
			}
		case strings.HasPrefix(line, gitPrefix):
			meta.BaseGitURL = strings.TrimSpace(strings.TrimPrefix(line, gitPrefix))
		}
	}
	if err := scanner.Err(); err != nil {
		return model.ImageMeta{}, err
	}
	if meta.Name == "" {
		return model.ImageMeta{}, errors.Errorf("no \"%v\" line found", namePrefix)
	}
	if meta.BaseImage == "" {
		return model.ImageMeta{}, errors.New("no FROM line found")
	}
	return meta, nil
}
