package main

import (
	"context"
	"errors"

	"github.com/imagetree/imagetree/pkg/builder/infrastructure/dependency"
)

func prune(ctx context.Context, repository, tag string, force bool) error {
	if repository == "" && tag == "" {
		return errors.New("repository or tag filter not provided")
	}
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	_, err = dependencyContainer.Builder().RemoveImages(ctx, repository, tag, force)
	return err
}
