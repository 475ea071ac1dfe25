package model

import (
	"strings"
	"time"
)

type GitURL = string

// Node identifies an image source: one branch of one git repository.
// Nodes are comparable and used as graph keys.
type Node struct {
	GitURL GitURL
	Branch string
}

func (n Node) String() string {
	name := strings.TrimSuffix(n.GitURL, ".git")
	if idx := strings.LastIndex(name, "/"); idx > 0 {
		if start := strings.LastIndexAny(name[:idx], "/:"); start >= 0 {
			name = name[start+1:]
		}
	}
	return name + "<" + n.Branch + ">"
}

// ImageMeta is the image description parsed from a Dockerfile:
// the image name, the full base image reference and, for non-root
// images, the git repository the base image is built from.
type ImageMeta struct {
	Name       string
	BaseImage  string
	BaseGitURL GitURL
}

type LocalImage struct {
	Repository string
	Tag        string
	ID         string
	Created    time.Time
	Size       int64
}
