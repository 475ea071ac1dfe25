package model

type OperationType = string

const (
	OperationBuild OperationType = "build"
	OperationPush  OperationType = "push"
)

type BuildRecord struct {
	Repository string
	Tag        string
	Seconds    float64
	Type       OperationType
}

type BuildOptions struct {
	Tag       *string
	CopySSHTo string
	Push      bool
	Remove    bool
}
