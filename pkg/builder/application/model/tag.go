package model

import "time"

// BranchTag maps a branch name to the docker tag its images are published
// under: master and main map to latest, dev maps to next, any other branch
// is used verbatim.
func BranchTag(branch string) string {
	switch branch {
	case "master", "main":
		return "latest"
	case "dev":
		return "next"
	}
	return branch
}

// DateTag stamps a tag with the current month, day and hour. Empty and
// latest tags yield the bare stamp, anything else gets a _MMDDHH suffix.
func DateTag(tag string, now time.Time) string {
	stamp := now.Format("010215")
	if tag == "" || tag == "latest" {
		return stamp
	}
	return tag + "_" + stamp
}
