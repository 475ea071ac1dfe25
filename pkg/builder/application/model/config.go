package model

import "time"

type BranchID = string

type BranchImages struct {
	Branch  BranchID
	GitURLs []GitURL
}

type Config struct {
	FallbackBranch string
	Retry          int
	RetryBackoff   time.Duration
	Branches       []BranchImages
}

type RegistryAuth struct {
	Username string
	Password string
}
