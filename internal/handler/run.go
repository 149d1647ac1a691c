package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/snipy/internal/auth"
	"github.com/sakif/snipy/internal/executor"
	"github.com/sakif/snipy/internal/service"
)

// RunHandler executes a stored snippet in the sandbox.
type RunHandler struct {
	snippets *service.SnippetService
	exec     executor.Executor // nil when the sandbox is disabled
	logger   *slog.Logger
}

// NewRunHandler creates a new RunHandler. exec may be nil; the endpoint then
// reports that execution is disabled.
func NewRunHandler(snippets *service.SnippetService, exec executor.Executor, logger *slog.Logger) *RunHandler {
	return &RunHandler{snippets: snippets, exec: exec, logger: logger}
}

// HandleRun fetches the snippet and runs its code in a sandboxed container
// for its language.
//
// HTTP: POST /api/snippets/{id}/run
func (h *RunHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if h.exec == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "Snippet execution is disabled"})
		return
	}

	viewerID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Get(r.Context(), r.PathValue("id"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.exec.Execute(r.Context(), executor.ExecutionRequest{
		Code:     snippet.Code,
		Language: snippet.Language,
	})
	if err != nil {
		if errors.Is(err, executor.ErrUnsupportedLanguage) {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error: "No sandbox runtime for language " + snippet.Language,
			})
			return
		}
		h.logger.Error("snippet execution failed",
			slog.String("id", snippet.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
