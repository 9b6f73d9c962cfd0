package remote

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
)

// LocalContext implements Context against a directory on the local machine.
// Commands run through the shell with the working directory as cwd, the same
// way a login shell on the cluster head node would run them.
type LocalContext struct {
	root string
}

// NewLocalContext creates a context rooted at dir, creating it if needed.
func NewLocalContext(dir string) (*LocalContext, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalContext{root: abs}, nil
}

// Root returns the absolute path of the working directory.
func (c *LocalContext) Root() string {
	return c.root
}

// WriteFile creates or overwrites a file in the working directory.
// The file is synced to disk before the call returns.
func (c *LocalContext) WriteFile(name, content string) error {
	path := filepath.Join(c.root, name)
	if dir := filepath.Dir(path); dir != c.root {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile returns a file's contents, or ErrFileNotFound if absent.
func (c *LocalContext) ReadFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(c.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrFileNotFound
		}
		return "", err
	}
	return string(data), nil
}

// FileExists reports whether a regular file exists in the working directory.
func (c *LocalContext) FileExists(name string) bool {
	info, err := os.Stat(filepath.Join(c.root, name))
	return err == nil && !info.IsDir()
}

// BlockCall executes a shell command in the working directory and returns
// its exit code, stdout and stderr. A nonzero exit is not an error.
func (c *LocalContext) BlockCall(cmd string) (int, string, string, error) {
	var stdout, stderr bytes.Buffer
	proc := exec.Command("bash", "-c", cmd)
	proc.Dir = c.root
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	err := proc.Run()
	if err == nil {
		return 0, stdout.String(), stderr.String(), nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
	}
	// Shell itself could not be started; this is a channel failure.
	return -1, stdout.String(), stderr.String(), err
}

// BlockCheckCall executes a shell command and fails with a CommandError
// if the exit code is nonzero.
func (c *LocalContext) BlockCheckCall(cmd string) (string, string, error) {
	code, stdout, stderr, err := c.BlockCall(cmd)
	if err != nil {
		return stdout, stderr, err
	}
	if code != 0 {
		return stdout, stderr, NewCommandError(cmd, code, stderr)
	}
	return stdout, stderr, nil
}
