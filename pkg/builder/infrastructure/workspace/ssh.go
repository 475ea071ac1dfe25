package workspace

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// StageSSH copies the ssh keys of the current user into the working copy
// so the docker build can reach private repositories. A missing key
// directory is not an error, the copy is just skipped.
func (m *manager) StageSSH(path, target string) error {
	source := m.sshSource
	if source == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to resolve home directory")
		}
		source = filepath.Join(home, ".ssh")
	}
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		m.logger.Info(fmt.Sprintf("%v does not exist, skip copying ssh keys", source))
		return nil
	}
	destination := filepath.Join(path, target)
	if err = os.RemoveAll(destination); err != nil {
		return errors.Wrapf(err, "failed to clean %v", destination)
	}
	if err = copyTree(source, destination); err != nil {
		return errors.Wrapf(err, "failed to copy %v to %v", source, destination)
	}
	m.logger.Info(fmt.Sprintf("copied %v to %v", source, destination))
	return nil
}

func (m *manager) UnstageSSH(path, target string) error {
	destination := filepath.Join(path, target)
	return errors.Wrapf(os.RemoveAll(destination), "failed to remove %v", destination)
}

func copyTree(source, destination string) error {
	return filepath.WalkDir(source, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		relative, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destination, relative)
		info, err := os.Stat(path)
		if err != nil {
			// dangling links and agent sockets that vanished mid-walk
			return nil
		}
		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case !info.Mode().IsRegular():
			// sockets have no place in a build context
			return nil
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(source, target string, mode fs.FileMode) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	closeErr := out.Close()
	if err != nil {
		return err
	}
	return closeErr
}
