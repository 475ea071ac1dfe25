package main

import (
	"context"

	"github.com/imagetree/imagetree/pkg/builder/infrastructure/dependency"
)

func push(ctx context.Context, reportPath string) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	records, err := dependencyContainer.Builder().PushImages(ctx)
	if err != nil {
		return err
	}
	return writeReport(records, reportPath)
}
