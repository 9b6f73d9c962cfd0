package remote

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHConfig holds connection settings for an SSHContext.
type SSHConfig struct {
	Host    string        // Remote hostname
	Port    int           // SSH port (defaults to 22)
	User    string        // Login user
	KeyFile string        // Path to the private key file
	Timeout time.Duration // Dial timeout (defaults to 30s)
}

// SSHContext implements Context against a working directory on a remote host.
// File operations and command execution go through SSH sessions; no agent is
// required on the remote side beyond a POSIX shell.
type SSHContext struct {
	client *ssh.Client
	root   string
}

// NewSSHContext dials the remote host and creates the working directory.
func NewSSHContext(cfg SSHConfig, dir string) (*SSHContext, error) {
	key, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key %s: %w", cfg.KeyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key %s: %w", cfg.KeyFile, err)
	}

	port := cfg.Port
	if port == 0 {
		port = 22
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	clientCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	client, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", cfg.Host, port), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Host, err)
	}

	// Create the working directory with a raw session command: BlockCall
	// prefixes everything with a cd into the directory, which cannot succeed
	// before the directory exists.
	ctx := &SSHContext{client: client, root: dir}
	cmd := mkdirCommand(dir)
	code, _, stderr, err := ctx.run(cmd, "")
	if err != nil {
		client.Close()
		return nil, err
	}
	if code != 0 {
		client.Close()
		return nil, NewCommandError(cmd, code, stderr)
	}
	return ctx, nil
}

// Close shuts down the SSH connection.
func (c *SSHContext) Close() error {
	return c.client.Close()
}

// Root returns the remote working directory.
func (c *SSHContext) Root() string {
	return c.root
}

// run executes a raw command in a fresh session with optional stdin.
func (c *SSHContext) run(cmd string, stdin string) (int, string, string, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return -1, "", "", fmt.Errorf("failed to open SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != "" {
		session.Stdin = strings.NewReader(stdin)
	}

	err = session.Run(cmd)
	if err == nil {
		return 0, stdout.String(), stderr.String(), nil
	}
	if exitErr, ok := err.(*ssh.ExitError); ok {
		return exitErr.ExitStatus(), stdout.String(), stderr.String(), nil
	}
	return -1, stdout.String(), stderr.String(), err
}

// WriteFile creates or overwrites a file in the remote working directory.
func (c *SSHContext) WriteFile(name, content string) error {
	cmd := writeFileCommand(path.Join(c.root, name))
	code, _, stderr, err := c.run(cmd, content)
	if err != nil {
		return err
	}
	if code != 0 {
		return NewCommandError(cmd, code, stderr)
	}
	return nil
}

// ReadFile returns a remote file's contents, or ErrFileNotFound if absent.
func (c *SSHContext) ReadFile(name string) (string, error) {
	target := path.Join(c.root, name)
	cmd := fmt.Sprintf("cat %s", shellQuote(target))
	code, stdout, stderr, err := c.run(cmd, "")
	if err != nil {
		return "", err
	}
	if code != 0 {
		if strings.Contains(stderr, "No such file") {
			return "", ErrFileNotFound
		}
		return "", NewCommandError(cmd, code, stderr)
	}
	return stdout, nil
}

// FileExists reports whether a regular file exists in the remote working directory.
func (c *SSHContext) FileExists(name string) bool {
	target := path.Join(c.root, name)
	code, _, _, err := c.run(fmt.Sprintf("test -f %s", shellQuote(target)), "")
	return err == nil && code == 0
}

// BlockCall executes a shell command in the remote working directory and
// returns its exit code, stdout and stderr. A nonzero exit is not an error.
func (c *SSHContext) BlockCall(cmd string) (int, string, string, error) {
	return c.run(workdirCommand(c.root, cmd), "")
}

// BlockCheckCall executes a shell command in the remote working directory
// and fails with a CommandError if the exit code is nonzero.
func (c *SSHContext) BlockCheckCall(cmd string) (string, string, error) {
	code, stdout, stderr, err := c.BlockCall(cmd)
	if err != nil {
		return stdout, stderr, err
	}
	if code != 0 {
		return stdout, stderr, NewCommandError(cmd, code, stderr)
	}
	return stdout, stderr, nil
}

// shellQuote wraps a path in single quotes for safe use in a shell command.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// mkdirCommand creates a directory and its parents. It must run as a raw
// session command, never through BlockCall: the directory it creates is the
// one BlockCall would cd into.
func mkdirCommand(dir string) string {
	return "mkdir -p " + shellQuote(dir)
}

// workdirCommand wraps a command so it runs inside the working directory.
func workdirCommand(root, cmd string) string {
	return fmt.Sprintf("cd %s && %s", shellQuote(root), cmd)
}

// writeFileCommand streams stdin into target, creating parent directories
// first and syncing so the write is durable before the session closes.
func writeFileCommand(target string) string {
	return fmt.Sprintf("mkdir -p %s && cat > %s && sync", shellQuote(path.Dir(target)), shellQuote(target))
}
