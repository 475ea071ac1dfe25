package service

import (
	"context"
	"fmt"
	"io"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
)

func newBuildGraph(logger applogger.Logger, provider RepositoryProvider) *buildGraph {
	return &buildGraph{
		logger:       logger,
		provider:     provider,
		nodes:        make(map[model.Node]struct{}),
		parents:      make(map[model.Node]model.Node),
		children:     make(map[model.Node][]model.Node),
		aliases:      make(map[model.Node][]string),
		byRepository: make(map[model.GitURL][]model.Node),
		registrySet:  make(map[string]struct{}),
	}
}

// buildGraph is the forest of images to build. Nodes are keyed by
// (repository, branch) and carry at most one incoming edge. Branches of a
// repository with identical content collapse into the alias list of the
// node first built from that content.
type buildGraph struct {
	logger   applogger.Logger
	provider RepositoryProvider

	order    []model.Node
	nodes    map[model.Node]struct{}
	parents  map[model.Node]model.Node
	children map[model.Node][]model.Node
	aliases  map[model.Node][]string

	repositories []model.GitURL
	byRepository map[model.GitURL][]model.Node

	roots []model.Node

	registries  []string
	registrySet map[string]struct{}
}

func (graph *buildGraph) contains(node model.Node) bool {
	_, ok := graph.nodes[node]
	return ok
}

func (graph *buildGraph) insert(node model.Node) {
	graph.order = append(graph.order, node)
	graph.nodes[node] = struct{}{}
	if _, ok := graph.byRepository[node.GitURL]; !ok {
		graph.repositories = append(graph.repositories, node.GitURL)
	}
	graph.byRepository[node.GitURL] = append(graph.byRepository[node.GitURL], node)
}

func (graph *buildGraph) link(parent, child model.Node) {
	graph.parents[child] = parent
	graph.children[parent] = append(graph.children[parent], child)
}

// findIdentical returns the first known node of the same repository whose
// branch content is identical to the branch of the given node.
func (graph *buildGraph) findIdentical(ctx context.Context, node model.Node) (model.Node, bool, error) {
	for _, known := range graph.byRepository[node.GitURL] {
		identical, err := graph.provider.IdenticalBranches(ctx, node.GitURL, known.Branch, node.Branch)
		if err != nil {
			return model.Node{}, false, err
		}
		if identical {
			return known, true, nil
		}
	}
	return model.Node{}, false, nil
}

func (graph *buildGraph) mergeOrCreateRoot(ctx context.Context, node model.Node) (model.Node, error) {
	known, found, err := graph.findIdentical(ctx, node)
	if err != nil {
		return model.Node{}, err
	}
	if !found {
		graph.insert(node)
		graph.roots = append(graph.roots, node)
		return node, nil
	}
	graph.addAlias(known, node.Branch)
	return known, nil
}

// mergeOrCreateEdge attaches child under parent. A child identical to an
// already known node of the same repository merges into it as a branch
// alias, but only when that node hangs off the same parent. Identical
// content reached through a different lineage stays a distinct node with
// its own edge.
func (graph *buildGraph) mergeOrCreateEdge(ctx context.Context, parent, child model.Node) (model.Node, error) {
	known, found, err := graph.findIdentical(ctx, child)
	if err != nil {
		return model.Node{}, err
	}
	if found && graph.parents[known] == parent {
		graph.addAlias(known, child.Branch)
		return known, nil
	}
	graph.insert(child)
	graph.link(parent, child)
	return child, nil
}

// resolvedBase maps the base node of a chain head to the graph node it
// merged into when it was added.
func (graph *buildGraph) resolvedBase(ctx context.Context, base model.Node) (model.Node, error) {
	known, found, err := graph.findIdentical(ctx, base)
	if err != nil {
		return model.Node{}, err
	}
	if !found {
		return model.Node{}, fmt.Errorf("base image node %v is not in the build graph", base)
	}
	return known, nil
}

func (graph *buildGraph) addAlias(node model.Node, branch string) {
	if node.Branch == branch {
		return
	}
	for _, known := range graph.aliases[node] {
		if known == branch {
			return
		}
	}
	graph.logger.Info(fmt.Sprintf("branch \"%v\" of %v is identical to \"%v\"", branch, node.GitURL, node.Branch))
	graph.aliases[node] = append(graph.aliases[node], branch)
}

func (graph *buildGraph) recordRegistries(registries []string) {
	for _, registry := range registries {
		if _, ok := graph.registrySet[registry]; ok {
			continue
		}
		graph.registrySet[registry] = struct{}{}
		graph.registries = append(graph.registries, registry)
	}
}

func (graph *buildGraph) dump(out io.Writer) error {
	if _, err := fmt.Fprintln(out, "nodes:"); err != nil {
		return err
	}
	for _, node := range graph.order {
		if _, err := fmt.Fprintf(out, "  %v: %v\n", node, graph.aliases[node]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(out, "edges:"); err != nil {
		return err
	}
	for _, parent := range graph.order {
		for _, child := range graph.children[parent] {
			if _, err := fmt.Fprintf(out, "  %v -> %v\n", parent, child); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintln(out, "repositories:"); err != nil {
		return err
	}
	for _, repository := range graph.repositories {
		if _, err := fmt.Fprintf(out, "  %v:\n", repository); err != nil {
			return err
		}
		for _, node := range graph.byRepository[repository] {
			if _, err := fmt.Fprintf(out, "    %v\n", node); err != nil {
				return err
			}
		}
	}
	return nil
}
