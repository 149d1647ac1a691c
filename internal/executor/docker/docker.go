// Package docker runs snippet code in sandboxed containers: no network,
// read-only rootfs, unprivileged user, and hard memory/CPU/time limits. A
// pool of pre-warmed containers per language keeps run latency low.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/snipy/internal/executor"
)

// Executor implements executor.Executor using Docker, one warm pool per
// configured language.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pools  map[string]*Pool
}

// New creates a Docker Executor, pulls every runtime image, and starts the
// warm pools.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for language, rt := range cfg.Runtimes {
		logger.Info("ensuring docker image is available",
			slog.String("language", language),
			slog.String("image", rt.Image),
		)
		reader, err := cli.ImagePull(ctx, rt.Image, image.PullOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to pull image %s: %w", rt.Image, err)
		}
		// Read everything to block until the pull is complete.
		io.Copy(io.Discard, reader)
		reader.Close()
	}
	logger.Info("docker images are ready")

	exec := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pools:  make(map[string]*Pool, len(cfg.Runtimes)),
	}

	for language, rt := range cfg.Runtimes {
		pool := NewPool(cli, cfg, rt, logger.With(slog.String("language", language)))
		pool.Start()
		exec.pools[language] = pool
	}

	return exec, nil
}

// Close shuts down every pool and the docker client.
func (e *Executor) Close() error {
	for _, pool := range e.pools {
		pool.Stop()
	}
	return e.cli.Close()
}

// Execute runs the snippet code in a sandboxed container for its language.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	rt, ok := e.config.Runtimes[req.Language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", executor.ErrUnsupportedLanguage, req.Language)
	}
	pool := e.pools[req.Language]

	start := time.Now()

	containerID, err := pool.GetContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}

	// Containers are single-use; remove whatever happens to the run.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{
			Force: true,
		})
		if err != nil {
			e.logger.Error("failed to remove container",
				slog.String("id", containerID),
				slog.String("error", err.Error()),
			)
		}
	}()

	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	// The pooled container idles on sleep, so the code runs as an exec.
	execConfig := container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          rt.command(req.Code),
	}

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, execConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer

	done := make(chan struct{})
	go func() {
		// stdcopy demultiplexes the combined stream into stdout and stderr.
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	var finalExitCode int

	select {
	case <-done:
		inspectResp, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err == nil {
			finalExitCode = inspectResp.ExitCode
		}
	case <-executeCtx.Done():
		// 124 mirrors the unix timeout command.
		finalExitCode = 124
		stderr.WriteString("\nExecution timed out.\n")
	}

	return &executor.ExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: finalExitCode,
		Duration: time.Since(start),
	}, nil
}
