package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/pkg/errors"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
	"github.com/imagetree/imagetree/pkg/builder/application/service"
	"github.com/imagetree/imagetree/pkg/builder/infrastructure/retry"
)

type Options struct {
	Retry   int
	Backoff time.Duration
	Auth    model.RegistryAuth
}

func NewDockerEngine(logger applogger.Logger, options Options) (service.ImageEngine, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create docker client")
	}
	return &dockerEngine{
		logger:  logger,
		client:  dockerClient,
		options: options,
	}, nil
}

type dockerEngine struct {
	logger  applogger.Logger
	client  *client.Client
	options Options
}

func (engine dockerEngine) Build(ctx context.Context, contextPath, image string) error {
	buildContext, err := archive.TarWithOptions(contextPath, &archive.TarOptions{})
	if err != nil {
		return errors.Wrapf(err, "failed to tar build context %v", contextPath)
	}
	defer buildContext.Close()
	response, err := engine.client.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Tags:       []string{image},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to build image %v", image)
	}
	defer response.Body.Close()
	return errors.Wrapf(engine.drain(response.Body), "failed to build image %v", image)
}

func (engine dockerEngine) Pull(ctx context.Context, image string) error {
	engine.logger.Info(fmt.Sprintf("pull image \"%v\"...", image))
	start := time.Now()
	defer func() {
		engine.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()
	return retry.Do(ctx, engine.policy(), func() error {
		reader, err := engine.client.ImagePull(ctx, image, types.ImagePullOptions{})
		if err != nil {
			return errors.Wrapf(err, "failed to pull image %v", image)
		}
		defer reader.Close()
		return errors.Wrapf(engine.drain(reader), "failed to pull image %v", image)
	})
}

// Push pushes an image with retries and reports how long the last attempt
// took.
func (engine dockerEngine) Push(ctx context.Context, image string) (time.Duration, error) {
	authHeader, err := engine.authHeader()
	if err != nil {
		return 0, err
	}
	engine.logger.Info(fmt.Sprintf("push image \"%v\"...", image))
	var elapsed time.Duration
	err = retry.Do(ctx, engine.policy(), func() error {
		start := time.Now()
		reader, err := engine.client.ImagePush(ctx, image, types.ImagePushOptions{RegistryAuth: authHeader})
		if err != nil {
			return errors.Wrapf(err, "failed to push image %v", image)
		}
		defer reader.Close()
		err = engine.watchPush(reader)
		elapsed = time.Since(start)
		return errors.Wrapf(err, "failed to push image %v", image)
	})
	if err == nil {
		engine.logger.Info(fmt.Sprintf("done in %v", elapsed.String()))
	}
	return elapsed, err
}

func (engine dockerEngine) Tag(ctx context.Context, image, target string) error {
	engine.logger.Debug(fmt.Sprintf("tag image \"%v\" as \"%v\"", image, target))
	return errors.Wrapf(engine.client.ImageTag(ctx, image, target), "failed to tag image %v as %v", image, target)
}

func (engine dockerEngine) Remove(ctx context.Context, image string) error {
	_, err := engine.client.ImageRemove(ctx, image, types.ImageRemoveOptions{})
	return errors.Wrapf(err, "failed to remove image %v", image)
}

func (engine dockerEngine) Login(ctx context.Context, registryHost string) error {
	engine.logger.Info(fmt.Sprintf("log in to registry \"%v\"", registryHost))
	_, err := engine.client.RegistryLogin(ctx, registry.AuthConfig{
		Username:      engine.options.Auth.Username,
		Password:      engine.options.Auth.Password,
		ServerAddress: registryHost,
	})
	return errors.Wrapf(err, "failed to log in to registry %v", registryHost)
}

func (engine dockerEngine) Images(ctx context.Context) ([]model.LocalImage, error) {
	summaries, err := engine.client.ImageList(ctx, types.ImageListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list images")
	}
	images := make([]model.LocalImage, 0, len(summaries))
	for _, summary := range summaries {
		id := strings.TrimPrefix(summary.ID, "sha256:")
		if len(id) > 12 {
			id = id[:12]
		}
		created := time.Unix(summary.Created, 0)
		if len(summary.RepoTags) == 0 {
			images = append(images, model.LocalImage{
				Repository: "<none>",
				Tag:        "<none>",
				ID:         id,
				Created:    created,
				Size:       summary.Size,
			})
			continue
		}
		for _, repoTag := range summary.RepoTags {
			repository, tag := splitRepoTag(repoTag)
			images = append(images, model.LocalImage{
				Repository: repository,
				Tag:        tag,
				ID:         id,
				Created:    created,
				Size:       summary.Size,
			})
		}
	}
	return images, nil
}

func (engine dockerEngine) policy() retry.Policy {
	return retry.Policy{
		Attempts:  engine.options.Retry,
		Backoff:   engine.options.Backoff,
		Transient: transientError,
	}
}

func (engine dockerEngine) authHeader() (string, error) {
	header, err := registry.EncodeAuthConfig(registry.AuthConfig{
		Username: engine.options.Auth.Username,
		Password: engine.options.Auth.Password,
	})
	return header, errors.Wrap(err, "failed to encode registry auth")
}

func splitRepoTag(repoTag string) (string, string) {
	if idx := strings.LastIndex(repoTag, ":"); idx >= 0 {
		return repoTag[:idx], repoTag[idx+1:]
	}
	return repoTag, "<none>"
}
