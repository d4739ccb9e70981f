package validator

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jingkaihe/pluginkit/pkg/logger"
	"github.com/jingkaihe/pluginkit/pkg/osutil"
	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
)

const (
	// DefaultCommand validates a skill with the claude-skills-cli package
	DefaultCommand = "npx claude-skills-cli validate {dir} --strict"
	// DirPlaceholder is replaced by the skill directory in the command
	DirPlaceholder = "{dir}"
)

// CommandValidator runs an external command once per skill directory. Exit
// status zero passes; the command's output streams are passed through.
type CommandValidator struct {
	argv    []string
	timeout time.Duration
	stdout  io.Writer
	stderr  io.Writer
}

// CommandOption configures a CommandValidator
type CommandOption func(*CommandValidator)

// WithTimeout bounds each invocation; zero disables the limit
func WithTimeout(d time.Duration) CommandOption {
	return func(c *CommandValidator) {
		c.timeout = d
	}
}

// WithOutput sets where the command's stdout and stderr go
func WithOutput(stdout, stderr io.Writer) CommandOption {
	return func(c *CommandValidator) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// NewCommandValidator parses a shell-quoted command template. When the
// template has no {dir} placeholder the directory is appended as the last
// argument.
func NewCommandValidator(command string, opts ...CommandOption) (*CommandValidator, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid validator command %q", command)
	}
	if len(argv) == 0 {
		return nil, errors.New("validator command cannot be empty")
	}

	hasPlaceholder := false
	for _, arg := range argv {
		if strings.Contains(arg, DirPlaceholder) {
			hasPlaceholder = true
			break
		}
	}
	if !hasPlaceholder {
		argv = append(argv, DirPlaceholder)
	}

	c := &CommandValidator{
		argv:   argv,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Args returns the argument vector for dir
func (c *CommandValidator) Args(dir string) []string {
	args := make([]string, len(c.argv))
	for i, arg := range c.argv {
		args[i] = strings.ReplaceAll(arg, DirPlaceholder, dir)
	}
	return args
}

// Validate runs the command against dir
func (c *CommandValidator) Validate(ctx context.Context, dir string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := c.Args(dir)
	logger.G(ctx).WithField("command", shellquote.Join(args...)).Debug("running validator")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	osutil.SetProcessGroup(cmd)
	osutil.SetProcessGroupKill(cmd)

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Errorf("validator timed out after %s", c.timeout)
	}
	if ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), "validator cancelled")
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return errors.Errorf("validator exited with status %d", exitErr.ExitCode())
	}
	return errors.Wrapf(err, "failed to run validator %q", args[0])
}
