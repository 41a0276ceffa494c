// Package install runs a package manager's install command inside a
// generated project.
package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Kind names a supported package manager.
type Kind string

// Supported package managers.
const (
	NPM  Kind = "npm"
	Yarn Kind = "yarn"
	PNPM Kind = "pnpm"
	Bun  Kind = "bun"
)

// Kinds lists the supported package managers.
var Kinds = []Kind{NPM, Yarn, PNPM, Bun}

var commands = map[Kind][]string{
	NPM:  {"npm", "install"},
	Yarn: {"yarn", "install"},
	PNPM: {"pnpm", "install"},
	Bun:  {"bun", "install"},
}

// ParseKind validates a package manager name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := commands[k]; !ok {
		return "", fmt.Errorf("unsupported package manager %q: use one of npm, yarn, pnpm, bun", s)
	}
	return k, nil
}

// Command returns the argv of the install invocation for kind.
func Command(kind Kind) ([]string, error) {
	argv, ok := commands[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported package manager %q", kind)
	}
	return append([]string(nil), argv...), nil
}

// CommandLine returns the install invocation as a shell string, e.g.
// "pnpm install".
func CommandLine(kind Kind) string {
	argv, err := Command(kind)
	if err != nil {
		return string(kind) + " install"
	}
	return strings.Join(argv, " ")
}

// Installer runs the install step for a project.
type Installer interface {
	Install(ctx context.Context, kind Kind, dir string) error
}

// Exec runs the package manager as a child process that shares the
// caller's terminal and waits for it to exit.
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	lookPath func(string) (string, error)
}

// NewExec returns an Exec bound to the process's standard streams.
func NewExec() *Exec {
	return &Exec{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Install runs the install command for kind with dir as working directory.
func (e *Exec) Install(ctx context.Context, kind Kind, dir string) error {
	argv, err := Command(kind)
	if err != nil {
		return err
	}

	lookPath := e.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	bin, err := lookPath(argv[0])
	if err != nil {
		return fmt.Errorf("%s not found on PATH: %w", argv[0], err)
	}

	cmd := exec.CommandContext(ctx, bin, argv[1:]...)
	cmd.Dir = dir
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s in %s: %w", strings.Join(argv, " "), dir, err)
	}
	return nil
}
