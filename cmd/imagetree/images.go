package main

import (
	"context"
	"os"

	"github.com/imagetree/imagetree/pkg/builder/infrastructure/dependency"
	"github.com/imagetree/imagetree/pkg/builder/infrastructure/report"
)

func images(ctx context.Context) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	localImages, err := dependencyContainer.Builder().Images(ctx)
	if err != nil {
		return err
	}
	return report.RenderImages(os.Stdout, localImages)
}
