package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snipy/internal/executor"
	"github.com/sakif/snipy/internal/handler"
)

// mockExecutor captures the request and returns a canned result, so the
// handler is testable without a container daemon.
type mockExecutor struct {
	capturedReq executor.ExecutionRequest
	returnRes   *executor.ExecutionResult
	returnErr   error
}

func (m *mockExecutor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	m.capturedReq = req
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return m.returnRes, nil
}

func TestRunHandler_HandleRun(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("runs the stored code", func(t *testing.T) {
		env := newTestEnv(t)
		snip := env.createSnippet(t, "user-1",
			`{"title":"hello","code":"print('hi')","language":"python"}`)

		mockExec := &mockExecutor{
			returnRes: &executor.ExecutionResult{
				Stdout:   "hi\n",
				ExitCode: 0,
				Duration: 50 * time.Millisecond,
			},
		}
		h := handler.NewRunHandler(env.snippetService, mockExec, logger)

		rr := httptest.NewRecorder()
		h.HandleRun(rr, request(http.MethodPost, "/api/snippets/"+snip.ID+"/run",
			"user-1", snip.ID, ""))

		require.Equal(t, http.StatusOK, rr.Code)

		var res executor.ExecutionResult
		err := json.NewDecoder(rr.Body).Decode(&res)
		require.NoError(t, err)
		assert.Equal(t, "hi\n", res.Stdout)
		assert.Equal(t, 0, res.ExitCode)

		// The sandbox receives the stored code and language, not anything
		// from the request body.
		assert.Equal(t, "print('hi')", mockExec.capturedReq.Code)
		assert.Equal(t, "python", mockExec.capturedReq.Language)
	})

	t.Run("unsupported language", func(t *testing.T) {
		env := newTestEnv(t)
		snip := env.createSnippet(t, "user-1",
			`{"title":"q","code":"SELECT 1","language":"sql"}`)

		mockExec := &mockExecutor{returnErr: executor.ErrUnsupportedLanguage}
		h := handler.NewRunHandler(env.snippetService, mockExec, logger)

		rr := httptest.NewRecorder()
		h.HandleRun(rr, request(http.MethodPost, "/api/snippets/"+snip.ID+"/run",
			"user-1", snip.ID, ""))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("missing snippet", func(t *testing.T) {
		env := newTestEnv(t)
		h := handler.NewRunHandler(env.snippetService, &mockExecutor{}, logger)

		rr := httptest.NewRecorder()
		h.HandleRun(rr, request(http.MethodPost, "/api/snippets/nope/run",
			"user-1", "nope", ""))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("sandbox disabled", func(t *testing.T) {
		env := newTestEnv(t)
		snip := env.createSnippet(t, "user-1",
			`{"title":"t","code":"c","language":"go"}`)

		h := handler.NewRunHandler(env.snippetService, nil, logger)

		rr := httptest.NewRecorder()
		h.HandleRun(rr, request(http.MethodPost, "/api/snippets/"+snip.ID+"/run",
			"user-1", snip.ID, ""))

		assert.Equal(t, http.StatusNotImplemented, rr.Code)
	})
}
