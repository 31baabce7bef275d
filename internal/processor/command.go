package processor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// SassCommand compiles SCSS from stdin with the input's directory on the load path.
const SassCommand = "sass --stdin --no-source-map --load-path=$ASSET_INPUT_DIR"

// Variables expanded in command lines and exported to the child process.
const (
	EnvInputPath = "ASSET_INPUT_PATH"
	EnvInputDir  = "ASSET_INPUT_DIR"
	EnvInputName = "ASSET_INPUT_NAME"
	EnvPrefix    = "ASSET_PREFIX"
)

// Command runs an external program as a processor. The input text is written
// to its stdin and its stdout becomes the output text.
type Command struct {
	line string
}

// NewCommand validates line and returns a Command processor.
func NewCommand(line string) (*Command, error) {
	fields, err := shell.Fields(line, func(string) string { return "x" })
	if err != nil {
		return nil, fmt.Errorf("invalid command line %q: %w", line, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("command line %q is empty", line)
	}
	return &Command{line: line}, nil
}

func mustCommand(line string) *Command {
	c, err := NewCommand(line)
	if err != nil {
		panic(err)
	}
	return c
}

// Line returns the unexpanded command line.
func (c *Command) Line() string {
	return c.line
}

// Process runs the command once for text.
func (c *Command) Process(ctx context.Context, text string, in Input, env Env) (string, error) {
	vars := map[string]string{
		EnvInputPath: in.Path,
		EnvInputDir:  in.Dir(),
		EnvInputName: in.Name,
		EnvPrefix:    env.Prefix,
	}

	args, err := shell.Fields(c.line, func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return os.Getenv(name)
	})
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", c.line, err)
	}
	if len(args) == 0 {
		return "", fmt.Errorf("command line %q expands to nothing", c.line)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = in.Dir()
	cmd.Env = os.Environ()
	for k, v := range vars {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("%s: %w", args[0], err)
	}

	return stdout.String(), nil
}
