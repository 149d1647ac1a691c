package docker

import (
	"time"
)

// codePlaceholder marks where the snippet code is substituted into a
// runtime's command.
const codePlaceholder = "{code}"

// Runtime describes how one language runs: which image to keep warm and the
// command that evaluates a code string inside it.
type Runtime struct {
	Image string
	Cmd   []string
}

// command returns the runtime's command with the snippet code substituted.
func (rt Runtime) command(code string) []string {
	cmd := make([]string, len(rt.Cmd))
	for i, arg := range rt.Cmd {
		if arg == codePlaceholder {
			cmd[i] = code
		} else {
			cmd[i] = arg
		}
	}
	return cmd
}

// Config holds the configuration for Docker execution.
type Config struct {
	// Runtimes maps a snippet language to its sandbox runtime.
	Runtimes map[string]Runtime
	// MemoryLimit is the maximum memory per container, in bytes.
	MemoryLimit int64
	// CPULimit is the number of CPUs a container can use.
	CPULimit float64
	// Timeout is the maximum wall time for one run.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers kept per language.
	PoolSize int
}

// DefaultConfig provides sandboxes for the languages snippets are most
// commonly saved in. Lightweight alpine-based images keep the warm pools
// cheap.
func DefaultConfig() Config {
	return Config{
		Runtimes: map[string]Runtime{
			"python": {
				Image: "python:3.12-alpine",
				Cmd:   []string{"python", "-c", codePlaceholder},
			},
			"javascript": {
				Image: "node:22-alpine",
				Cmd:   []string{"node", "-e", codePlaceholder},
			},
			"ruby": {
				Image: "ruby:3.3-alpine",
				Cmd:   []string{"ruby", "-e", codePlaceholder},
			},
			"bash": {
				Image: "alpine:3.20",
				Cmd:   []string{"sh", "-c", codePlaceholder},
			},
		},
		// 128 MB memory limit
		MemoryLimit: 128 * 1024 * 1024,
		// half a CPU
		CPULimit: 0.5,
		Timeout:  5 * time.Second,
		PoolSize: 2,
	}
}
