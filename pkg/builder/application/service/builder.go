package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
)

type RepositoryProvider interface {
	Checkout(ctx context.Context, gitURL model.GitURL, branch, fallbackBranch string) (string, error)
	IdenticalBranches(ctx context.Context, gitURL model.GitURL, left, right string) (bool, error)
}

type Workspace interface {
	ImageMeta(path string) (model.ImageMeta, error)
	PinBaseTag(path, tag string) error
	StageSSH(path, target string) error
	UnstageSSH(path, target string) error
}

type ImageEngine interface {
	Build(ctx context.Context, contextPath, image string) error
	Pull(ctx context.Context, image string) error
	Push(ctx context.Context, image string) (time.Duration, error)
	Tag(ctx context.Context, image, target string) error
	Remove(ctx context.Context, image string) error
	Login(ctx context.Context, registry string) error
	Images(ctx context.Context) ([]model.LocalImage, error)
}

type Builder interface {
	BuildImages(ctx context.Context, options model.BuildOptions) ([]model.BuildRecord, error)
	PushImages(ctx context.Context) ([]model.BuildRecord, error)
	DumpGraph(ctx context.Context, out io.Writer) error
	Images(ctx context.Context) ([]model.LocalImage, error)
	RemoveImages(ctx context.Context, repository, tag string, force bool) ([]model.LocalImage, error)
}

func NewBuilderService(
	config model.Config,
	logger applogger.Logger,
	provider RepositoryProvider,
	workspace Workspace,
	engine ImageEngine,
) Builder {
	return &builder{
		config:    config,
		logger:    logger,
		provider:  provider,
		workspace: workspace,
		engine:    engine,
	}
}

type builder struct {
	config model.Config

	logger    applogger.Logger
	provider  RepositoryProvider
	workspace Workspace
	engine    ImageEngine

	graph *buildGraph
}

func (service *builder) BuildImages(ctx context.Context, options model.BuildOptions) ([]model.BuildRecord, error) {
	graph, err := service.resolveGraph(ctx)
	if err != nil {
		return nil, err
	}
	if err = service.loginRegistries(ctx, graph); err != nil {
		return nil, err
	}
	var report []model.BuildRecord
	for _, root := range graph.roots {
		records, err := service.buildSubtree(ctx, graph, root, options)
		if err != nil {
			return nil, err
		}
		report = append(report, records...)
	}
	return report, nil
}

func (service *builder) PushImages(ctx context.Context) ([]model.BuildRecord, error) {
	graph, err := service.resolveGraph(ctx)
	if err != nil {
		return nil, err
	}
	if err = service.loginRegistries(ctx, graph); err != nil {
		return nil, err
	}
	var report []model.BuildRecord
	now := time.Now()
	for _, node := range graph.order {
		source := service.newImageSource(node.GitURL, node.Branch)
		if err = source.ensureCheckedOut(ctx); err != nil {
			return nil, err
		}
		tag := source.resolveTag(nil)
		tags := []string{tag, model.DateTag(tag, now)}
		for _, alias := range graph.aliases[node] {
			aliasTag := model.BranchTag(alias)
			tags = append(tags, aliasTag, model.DateTag(aliasTag, now))
		}
		image := source.meta.Name + ":" + tag
		for _, target := range tags {
			records, err := service.pushImage(ctx, source.meta.Name, image, target)
			if err != nil {
				return nil, err
			}
			report = append(report, records...)
		}
	}
	return report, nil
}

func (service *builder) DumpGraph(ctx context.Context, out io.Writer) error {
	graph, err := service.resolveGraph(ctx)
	if err != nil {
		return err
	}
	return graph.dump(out)
}

func (service *builder) Images(ctx context.Context) ([]model.LocalImage, error) {
	return service.engine.Images(ctx)
}

func (service *builder) RemoveImages(ctx context.Context, repository, tag string, force bool) ([]model.LocalImage, error) {
	images, err := service.engine.Images(ctx)
	if err != nil {
		return nil, err
	}
	var matched []model.LocalImage
	for _, image := range images {
		if repository != "" && !strings.Contains(image.Repository, repository) {
			continue
		}
		if tag != "" && !strings.Contains(image.Tag, tag) {
			continue
		}
		matched = append(matched, image)
	}
	for _, image := range matched {
		target := image.Repository + ":" + image.Tag
		if image.Tag == "<none>" {
			target = image.ID
		}
		if !force {
			service.logger.Info(fmt.Sprintf("remove image \"%v\" (dry-run)", target))
			continue
		}
		service.logger.Info(fmt.Sprintf("remove image \"%v\"", target))
		if err = service.engine.Remove(ctx, target); err != nil {
			return nil, err
		}
	}
	return matched, nil
}

// resolveGraph builds the image graph from the configured branches once and
// keeps it for every following operation.
func (service *builder) resolveGraph(ctx context.Context) (*buildGraph, error) {
	if service.graph != nil {
		return service.graph, nil
	}
	service.logger.Info("resolve image graph...")
	start := time.Now()
	graph := newBuildGraph(service.logger, service.provider)
	for _, branch := range service.config.Branches {
		for _, gitURL := range branch.GitURLs {
			if err := service.addImage(ctx, graph, branch.Branch, gitURL); err != nil {
				return nil, err
			}
		}
	}
	service.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	service.graph = graph
	return graph, nil
}

// addImage resolves the dependency chain of one configured image and
// attaches it to the graph, ancestor first. Every element merges into an
// identical already known node where possible, and the node it ended up on
// becomes the parent for the next element.
func (service *builder) addImage(ctx context.Context, graph *buildGraph, branch model.BranchID, gitURL model.GitURL) error {
	source := service.newImageSource(gitURL, branch)
	chain, err := source.dependencyChain(ctx, graph)
	if err != nil {
		return err
	}
	for _, element := range chain {
		graph.recordRegistries(element.registries())
	}
	head := chain[0]
	var parent model.Node
	if head.isRoot() {
		parent, err = graph.mergeOrCreateRoot(ctx, head.node())
		if err != nil {
			return err
		}
		chain = chain[1:]
	} else {
		parent, err = graph.resolvedBase(ctx, head.baseNode())
		if err != nil {
			return err
		}
	}
	for _, element := range chain {
		parent, err = graph.mergeOrCreateEdge(ctx, parent, element.node())
		if err != nil {
			return err
		}
	}
	return nil
}

type buildFrame struct {
	node    model.Node
	next    int
	records []model.BuildRecord
}

// buildSubtree walks the subtree under root depth first, building every
// node before its descendants. With Remove set, the images a node produced
// are removed once its whole subtree is done.
func (service *builder) buildSubtree(ctx context.Context, graph *buildGraph, root model.Node, options model.BuildOptions) ([]model.BuildRecord, error) {
	var report []model.BuildRecord
	visit := func(node model.Node) (*buildFrame, error) {
		records, err := service.buildNode(ctx, graph, node, options)
		if err != nil {
			return nil, err
		}
		report = append(report, records...)
		return &buildFrame{node: node, records: records}, nil
	}
	frame, err := visit(root)
	if err != nil {
		return nil, err
	}
	stack := []*buildFrame{frame}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if children := graph.children[top.node]; top.next < len(children) {
			child := children[top.next]
			top.next++
			frame, err = visit(child)
			if err != nil {
				return nil, err
			}
			stack = append(stack, frame)
			continue
		}
		if options.Remove {
			if err = service.removeBuilt(ctx, top.records); err != nil {
				return nil, err
			}
		}
		stack = stack[:len(stack)-1]
	}
	return report, nil
}

// buildNode builds the image of a node and applies the date tag and the
// alias branch tags to the result. With Push set, every tag applied so far
// is pushed and its timing recorded.
func (service *builder) buildNode(ctx context.Context, graph *buildGraph, node model.Node, options model.BuildOptions) ([]model.BuildRecord, error) {
	source := service.newImageSource(node.GitURL, node.Branch)
	built, err := source.build(ctx, service.engine, options)
	if err != nil {
		return nil, err
	}
	records := []model.BuildRecord{built}
	now := time.Now()
	tags := []string{model.DateTag(built.Tag, now)}
	for _, alias := range graph.aliases[node] {
		aliasTag := model.BranchTag(alias)
		tags = append(tags, aliasTag, model.DateTag(aliasTag, now))
	}
	image := built.Repository + ":" + built.Tag
	for _, tag := range tags {
		if err = service.engine.Tag(ctx, image, built.Repository+":"+tag); err != nil {
			return nil, err
		}
		records = append(records, model.BuildRecord{
			Repository: built.Repository,
			Tag:        tag,
			Type:       model.OperationBuild,
		})
	}
	if options.Push {
		applied := append([]model.BuildRecord(nil), records...)
		for _, record := range applied {
			elapsed, err := service.engine.Push(ctx, record.Repository+":"+record.Tag)
			if err != nil {
				return nil, err
			}
			records = append(records, model.BuildRecord{
				Repository: record.Repository,
				Tag:        record.Tag,
				Seconds:    elapsed.Seconds(),
				Type:       model.OperationPush,
			})
		}
	}
	return records, nil
}

func (service *builder) pushImage(ctx context.Context, repository, image, tag string) ([]model.BuildRecord, error) {
	var records []model.BuildRecord
	target := repository + ":" + tag
	if target != image {
		if err := service.engine.Tag(ctx, image, target); err != nil {
			return nil, err
		}
		records = append(records, model.BuildRecord{
			Repository: repository,
			Tag:        tag,
			Type:       model.OperationBuild,
		})
	}
	elapsed, err := service.engine.Push(ctx, target)
	if err != nil {
		return nil, err
	}
	return append(records, model.BuildRecord{
		Repository: repository,
		Tag:        tag,
		Seconds:    elapsed.Seconds(),
		Type:       model.OperationPush,
	}), nil
}

func (service *builder) removeBuilt(ctx context.Context, records []model.BuildRecord) error {
	for _, record := range records {
		if record.Type != model.OperationBuild {
			continue
		}
		image := record.Repository + ":" + record.Tag
		service.logger.Info(fmt.Sprintf("remove image \"%v\"", image))
		if err := service.engine.Remove(ctx, image); err != nil {
			return err
		}
	}
	return nil
}

func (service *builder) loginRegistries(ctx context.Context, graph *buildGraph) error {
	for _, registry := range graph.registries {
		if err := service.engine.Login(ctx, registry); err != nil {
			return err
		}
	}
	return nil
}
