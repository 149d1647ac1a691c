package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sakif/snipy/internal/auth"
	"github.com/sakif/snipy/internal/handler"
	"github.com/sakif/snipy/internal/model"
	"github.com/sakif/snipy/internal/repository/sqlite"
	"github.com/sakif/snipy/internal/service"
)

// testEnv wires real services over an in-memory store so handler tests
// exercise the full request path below the router.
type testEnv struct {
	snippets *handler.SnippetHandler
	folders  *handler.FolderHandler
	tags     *handler.TagHandler

	snippetService *service.SnippetService
	folderService  *service.FolderService
	tagService     *service.TagService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	snippetSvc := service.NewSnippetService(db, db, logger, false)
	folderSvc := service.NewFolderService(db, db, logger, false)
	tagSvc := service.NewTagService(db, logger, false)

	return &testEnv{
		snippets:       handler.NewSnippetHandler(snippetSvc, logger),
		folders:        handler.NewFolderHandler(folderSvc, logger),
		tags:           handler.NewTagHandler(tagSvc, logger),
		snippetService: snippetSvc,
		folderService:  folderSvc,
		tagService:     tagSvc,
	}
}

// request builds an httptest request with a JSON body and an authenticated
// user, bypassing the cookie middleware. pathID fills the {id} path value
// when non-empty.
func request(method, target, userID, pathID, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(auth.WithUserID(context.Background(), userID))
	}
	if pathID != "" {
		req.SetPathValue("id", pathID)
	}
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dest); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

// createSnippet goes through the create handler and returns the stored row.
func (e *testEnv) createSnippet(t *testing.T, userID, body string) model.Snippet {
	t.Helper()

	rr := httptest.NewRecorder()
	e.snippets.HandleCreate(rr, request(http.MethodPost, "/api/snippets", userID, "", body))
	if rr.Code != http.StatusCreated {
		t.Fatalf("creating snippet: status %d body %s", rr.Code, rr.Body.String())
	}

	var res struct {
		Snippet model.Snippet `json:"snippet"`
	}
	decodeBody(t, rr, &res)
	return res.Snippet
}

// getSnippet reads one snippet back through the get handler as userID.
func (e *testEnv) getSnippet(t *testing.T, userID, id string) model.AggregatedSnippet {
	t.Helper()

	rr := httptest.NewRecorder()
	e.snippets.HandleGet(rr, request(http.MethodGet, "/api/snippets/"+id, userID, id, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("reading snippet %s: status %d body %s", id, rr.Code, rr.Body.String())
	}

	var res struct {
		Snippet model.AggregatedSnippet `json:"snippet"`
	}
	decodeBody(t, rr, &res)
	return res.Snippet
}
