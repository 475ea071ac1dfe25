package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBranchTag(t *testing.T) {
	tests := []struct{ branch, tag string }{
		{"master", "latest"},
		{"main", "latest"},
		{"dev", "next"},
		{"release", "release"},
		{"issue42", "issue42"},
	}
	for _, test := range tests {
		assert.Equal(t, test.tag, BranchTag(test.branch), "branch %v", test.branch)
	}
}

func TestDateTag(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "050109", DateTag("", now))
	assert.Equal(t, "050109", DateTag("latest", now))
	assert.Equal(t, "next_050109", DateTag("next", now))
	assert.Equal(t, "v1.2_050109", DateTag("v1.2", now))
}

func TestDateTag_AppliesAgainToStampedTag(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "next_050109_050109", DateTag(DateTag("next", now), now))
}

func TestNodeString(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{Node{GitURL: "https://github.com/dclong/docker-base.git", Branch: "dev"}, "dclong/docker-base<dev>"},
		{Node{GitURL: "git@github.com:dclong/docker-base.git", Branch: "main"}, "dclong/docker-base<main>"},
		{Node{GitURL: "/tmp/repos/docker-base", Branch: "dev"}, "repos/docker-base<dev>"},
		{Node{GitURL: "docker-base", Branch: "dev"}, "docker-base<dev>"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.node.String())
	}
}
