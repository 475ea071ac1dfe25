package main

import (
	"context"
	"os"

	"github.com/imagetree/imagetree/pkg/builder/infrastructure/dependency"
)

func dumpGraph(ctx context.Context, outputPath string) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	outputFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer outputFile.Close()
	return dependencyContainer.Builder().DumpGraph(ctx, outputFile)
}
