package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
)

// imageSource is one image to build: a branch of a git repository holding a
// Dockerfile. The checkout and the parsed Dockerfile are resolved once and
// reused.
type imageSource struct {
	gitURL         model.GitURL
	branch         string
	fallbackBranch string

	logger    applogger.Logger
	provider  RepositoryProvider
	workspace Workspace

	path string
	meta model.ImageMeta
}

func (service *builder) newImageSource(gitURL model.GitURL, branch string) *imageSource {
	return &imageSource{
		gitURL:         strings.TrimSpace(gitURL),
		branch:         branch,
		fallbackBranch: service.config.FallbackBranch,
		logger:         service.logger,
		provider:       service.provider,
		workspace:      service.workspace,
	}
}

// base returns the source of the image this one builds from, on the same
// branch.
func (source *imageSource) base() *imageSource {
	return &imageSource{
		gitURL:         source.meta.BaseGitURL,
		branch:         source.branch,
		fallbackBranch: source.fallbackBranch,
		logger:         source.logger,
		provider:       source.provider,
		workspace:      source.workspace,
	}
}

func (source *imageSource) node() model.Node {
	return model.Node{GitURL: source.gitURL, Branch: source.branch}
}

func (source *imageSource) baseNode() model.Node {
	return model.Node{GitURL: source.meta.BaseGitURL, Branch: source.branch}
}

func (source *imageSource) isRoot() bool {
	return source.meta.BaseGitURL == ""
}

func (source *imageSource) ensureCheckedOut(ctx context.Context) error {
	if source.path != "" {
		return nil
	}
	path, err := source.provider.Checkout(ctx, source.gitURL, source.branch, source.fallbackBranch)
	if err != nil {
		return err
	}
	meta, err := source.workspace.ImageMeta(path)
	if err != nil {
		return err
	}
	source.path = path
	source.meta = meta
	return nil
}

// dependencyChain checks out the image and its base images up the GIT
// references, stopping at a root image or at a base node the graph already
// knows. The result is ordered ancestor first.
func (source *imageSource) dependencyChain(ctx context.Context, graph *buildGraph) ([]*imageSource, error) {
	if err := source.ensureCheckedOut(ctx); err != nil {
		return nil, err
	}
	chain := []*imageSource{source}
	visited := map[model.Node]struct{}{source.node(): {}}
	current := source
	for !current.isRoot() {
		base := current.baseNode()
		if graph.contains(base) {
			break
		}
		if _, ok := visited[base]; ok {
			return nil, fmt.Errorf("base image cycle detected at %v", base)
		}
		visited[base] = struct{}{}
		next := current.base()
		if err := next.ensureCheckedOut(ctx); err != nil {
			return nil, err
		}
		chain = append(chain, next)
		current = next
	}
	for left, right := 0, len(chain)-1; left < right; left, right = left+1, right-1 {
		chain[left], chain[right] = chain[right], chain[left]
	}
	return chain, nil
}

// resolveTag picks the docker tag to build under: an explicit override, the
// latest convention for an empty override, or the tag derived from the
// branch name.
func (source *imageSource) resolveTag(override *string) string {
	if override == nil {
		return model.BranchTag(source.branch)
	}
	if *override == "" {
		return "latest"
	}
	return *override
}

// registries lists the third party registries referenced by the image name
// and its base image, meaning references with a registry host segment in
// front of the repository path.
func (source *imageSource) registries() []string {
	var registries []string
	for _, image := range []string{source.meta.Name, source.meta.BaseImage} {
		if strings.Count(image, "/") > 1 {
			registries = append(registries, image[:strings.Index(image, "/")])
		}
	}
	return registries
}

// build produces the image of this source. Root images pull their base
// image first, any other image gets the FROM line of its Dockerfile pinned
// to the tag being built, so the freshly built parent is used.
func (source *imageSource) build(ctx context.Context, engine ImageEngine, options model.BuildOptions) (model.BuildRecord, error) {
	start := time.Now()
	if err := source.ensureCheckedOut(ctx); err != nil {
		return model.BuildRecord{}, err
	}
	if options.CopySSHTo != "" {
		if err := source.workspace.StageSSH(source.path, options.CopySSHTo); err != nil {
			return model.BuildRecord{}, err
		}
		defer func() {
			if err := source.workspace.UnstageSSH(source.path, options.CopySSHTo); err != nil {
				source.logger.Error(err, fmt.Sprintf("failed to remove staged ssh keys from \"%v\"", source.path))
			}
		}()
	}
	tag := source.resolveTag(options.Tag)
	if source.isRoot() {
		if err := engine.Pull(ctx, source.meta.BaseImage); err != nil {
			return model.BuildRecord{}, err
		}
	} else if err := source.workspace.PinBaseTag(source.path, tag); err != nil {
		return model.BuildRecord{}, err
	}
	image := source.meta.Name + ":" + tag
	source.logger.Info(fmt.Sprintf("start build image \"%v\"...", image))
	if err := engine.Build(ctx, source.path, image); err != nil {
		return model.BuildRecord{}, err
	}
	elapsed := time.Since(start)
	source.logger.Info(fmt.Sprintf("done in %v", elapsed.String()))
	return model.BuildRecord{
		Repository: source.meta.Name,
		Tag:        tag,
		Seconds:    elapsed.Seconds(),
		Type:       model.OperationBuild,
	}, nil
}
