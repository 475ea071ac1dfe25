package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/imagetree/imagetree/pkg/builder/application/model"
)

const (
	defaultFallbackBranch = "dev"
	defaultRetry          = 3
	defaultBackoffSeconds = 60
)

type Branch struct {
	Branch  string   `json:"branch"`
	GitURLs []string `json:"gitUrls"`
}

type Config struct {
	FallbackBranch      string   `json:"fallbackBranch,omitempty"`
	Retry               int      `json:"retry,omitempty"`
	RetryBackoffSeconds int      `json:"retryBackoffSeconds,omitempty"`
	Branches            []Branch `json:"branches"`
}

func Load(filePath string) (model.Config, error) {
	configFile, err := os.Open(filePath)
	if err != nil {
		return model.Config{}, err
	}
	defer configFile.Close()
	configBody, err := io.ReadAll(configFile)
	if err != nil {
		return model.Config{}, err
	}

	var config Config
	err = json.Unmarshal(configBody, &config)
	if err != nil {
		return model.Config{}, err
	}
	err = assertBranches(config)
	if err != nil {
		return model.Config{}, err
	}
	return MapToConfig(config), nil
}

func MapToConfig(config Config) model.Config {
	branches := make([]model.BranchImages, 0, len(config.Branches))
	for _, branch := range config.Branches {
		branches = append(branches, model.BranchImages{
			Branch:  branch.Branch,
			GitURLs: branch.GitURLs,
		})
	}
	result := model.Config{
		FallbackBranch: config.FallbackBranch,
		Retry:          config.Retry,
		RetryBackoff:   time.Duration(config.RetryBackoffSeconds) * time.Second,
		Branches:       branches,
	}
	if result.FallbackBranch == "" {
		result.FallbackBranch = defaultFallbackBranch
	}
	if result.Retry == 0 {
		result.Retry = defaultRetry
	}
	if result.RetryBackoff == 0 {
		result.RetryBackoff = defaultBackoffSeconds * time.Second
	}
	return result
}

func assertBranches(config Config) error {
	if config.Retry < 0 {
		return errors.New("retry can not be negative")
	}
	if config.RetryBackoffSeconds < 0 {
		return errors.New("retry backoff can not be negative")
	}
	if len(config.Branches) == 0 {
		return errors.New("no branches configured")
	}
	seen := make(map[string]struct{}, len(config.Branches))
	for _, branch := range config.Branches {
		if branch.Branch == "" {
			return errors.New("branch name can not be empty")
		}
		if _, ok := seen[branch.Branch]; ok {
			return fmt.Errorf("duplicate branch %v", branch.Branch)
		}
		seen[branch.Branch] = struct{}{}
		if len(branch.GitURLs) == 0 {
			return fmt.Errorf("no git urls for branch %v", branch.Branch)
		}
		for _, gitURL := range branch.GitURLs {
			if gitURL == "" {
				return fmt.Errorf("empty git url for branch %v", branch.Branch)
			}
		}
	}
	return nil
}
