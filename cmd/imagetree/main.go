package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"
	"github.com/urfave/cli/v2"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
	"github.com/imagetree/imagetree/pkg/builder/infrastructure/config"
	"github.com/imagetree/imagetree/pkg/builder/infrastructure/dependency"
)

func main() {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	ctx = listenOSKillSignalsContext(ctx)
	mainLogger := logger.NewTextLogger()
	_ = godotenv.Load()

	app := &cli.App{
		Name: "imagetree",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "imagetree.json",
			},
		},
		Before: func(c *cli.Context) error {
			buildConfig, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			container, err := dependency.NewDependencyContainer(mainLogger, buildConfig, model.RegistryAuth{
				Username: os.Getenv("IMAGETREE_REGISTRY_USER"),
				Password: os.Getenv("IMAGETREE_REGISTRY_PASSWORD"),
			})
			if err != nil {
				return err
			}
			c.Context = dependency.ContainerToContext(c.Context, container)
			return nil
		},
		Commands: cli.Commands{
			&cli.Command{
				Name: "build",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name: "tag",
					},
					&cli.StringFlag{
						Name: "copy-ssh-to",
					},
					&cli.BoolFlag{
						Name: "push",
					},
					&cli.BoolFlag{
						Name: "remove",
					},
					&cli.StringFlag{
						Name: "report",
					},
				},
				Action: func(c *cli.Context) error {
					var tag *string
					if c.IsSet("tag") {
						value := c.String("tag")
						tag = &value
					}
					return build(c.Context, model.BuildOptions{
						Tag:       tag,
						CopySSHTo: c.String("copy-ssh-to"),
						Push:      c.Bool("push"),
						Remove:    c.Bool("remove"),
					}, c.String("report"))
				},
			},
			&cli.Command{
				Name: "push",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name: "report",
					},
				},
				Action: func(c *cli.Context) error {
					return push(c.Context, c.String("report"))
				},
			},
			&cli.Command{
				Name: "graph",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Value: "graph.txt",
					},
				},
				Action: func(c *cli.Context) error {
					return dumpGraph(c.Context, c.String("output"))
				},
			},
			&cli.Command{
				Name: "images",
				Action: func(c *cli.Context) error {
					return images(c.Context)
				},
			},
			&cli.Command{
				Name: "prune",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name: "repository",
					},
					&cli.StringFlag{
						Name: "tag",
					},
					&cli.BoolFlag{
						Name: "force",
					},
				},
				Action: func(c *cli.Context) error {
					return prune(c.Context, c.String("repository"), c.String("tag"), c.Bool("force"))
				},
			},
		},
	}
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		mainLogger.FatalError(err, "failed execute command "+strings.Join(os.Args, " "))
	}
}

func listenOSKillSignalsContext(ctx context.Context) context.Context {
	var cancelFunc context.CancelFunc
	ctx, cancelFunc = context.WithCancel(ctx)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-ch:
			cancelFunc()
		case <-ctx.Done():
			return
		}
	}()
	return ctx
}
