package dependency

import (
	"context"
	"errors"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
	"github.com/imagetree/imagetree/pkg/builder/application/service"
	"github.com/imagetree/imagetree/pkg/builder/infrastructure/engine"
	"github.com/imagetree/imagetree/pkg/builder/infrastructure/provider"
	"github.com/imagetree/imagetree/pkg/builder/infrastructure/workspace"
)

var dependencyContainer = struct{}{}

type Container interface {
	Builder() service.Builder
}

func NewDependencyContainer(
	logger applogger.Logger,
	config model.Config,
	auth model.RegistryAuth,
) (Container, error) {
	repositoryProvider := provider.NewRepositoryProvider(logger)
	workspaceManager := workspace.NewManager(logger)
	imageEngine, err := engine.NewDockerEngine(logger, engine.Options{
		Retry:   config.Retry,
		Backoff: config.RetryBackoff,
		Auth:    auth,
	})
	if err != nil {
		return nil, err
	}
	builderService := service.NewBuilderService(config, logger, repositoryProvider, workspaceManager, imageEngine)

	return &container{builder: builderService}, nil
}

type container struct {
	builder service.Builder
}

func (c *container) Builder() service.Builder {
	return c.builder
}

func ContainerFromContext(ctx context.Context) (Container, error) {
	v := ctx.Value(dependencyContainer)
	if c, ok := v.(Container); ok {
		return c, nil
	}
	return nil, errors.New("dependency container not found")
}

func ContainerToContext(ctx context.Context, c Container) context.Context {
	return context.WithValue(ctx, dependencyContainer, c)
}
