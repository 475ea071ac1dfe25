package main

import (
	"context"
	"os"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
	"github.com/imagetree/imagetree/pkg/builder/infrastructure/dependency"
	"github.com/imagetree/imagetree/pkg/builder/infrastructure/report"
)

func build(ctx context.Context, options model.BuildOptions, reportPath string) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	records, err := dependencyContainer.Builder().BuildImages(ctx, options)
	if err != nil {
		return err
	}
	return writeReport(records, reportPath)
}

func writeReport(records []model.BuildRecord, reportPath string) error {
	if err := report.Render(os.Stdout, records); err != nil {
		return err
	}
	if reportPath == "" {
		return nil
	}
	reportFile, err := os.Create(reportPath)
	if err != nil {
		return err
	}
	defer reportFile.Close()
	return report.Render(reportFile, records)
}
