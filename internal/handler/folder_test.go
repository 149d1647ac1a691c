package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snipy/internal/handler"
	"github.com/sakif/snipy/internal/model"
)

func (e *testEnv) createFolder(t *testing.T, userID, body string) model.Folder {
	t.Helper()

	rr := httptest.NewRecorder()
	e.folders.HandleCreate(rr, request(http.MethodPost, "/api/folders", userID, "", body))
	if rr.Code != http.StatusCreated {
		t.Fatalf("creating folder: status %d body %s", rr.Code, rr.Body.String())
	}

	var res struct {
		Folder model.Folder `json:"folder"`
	}
	decodeBody(t, rr, &res)
	return res.Folder
}

func TestFolderHandler_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	parent := env.createFolder(t, "user-1", `{"name":"Work"}`)
	child := env.createFolder(t, "user-1", `{"name":"Scripts","parentId":"`+parent.ID+`"}`)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	rr := httptest.NewRecorder()
	env.folders.HandleList(rr, request(http.MethodGet, "/api/folders", "user-1", "", ""))
	require.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		Folders []model.Folder `json:"folders"`
	}
	decodeBody(t, rr, &res)
	assert.Len(t, res.Folders, 2)
}

func TestFolderHandler_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.folders.HandleCreate(rr, request(http.MethodPost, "/api/folders", "user-1", "",
		`{"name":""}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var res handler.ErrorResponse
	decodeBody(t, rr, &res)
	assert.Equal(t, "Missing folder name", res.Error)
}

// TestFolderHandler_UpdateParentPresence mirrors the snippet PATCH contract:
// "parentId": null promotes the folder to the root, an absent parentId
// leaves the tree alone.
func TestFolderHandler_UpdateParentPresence(t *testing.T) {
	env := newTestEnv(t)

	parent := env.createFolder(t, "user-1", `{"name":"Work"}`)
	child := env.createFolder(t, "user-1", `{"name":"Scripts","parentId":"`+parent.ID+`"}`)

	t.Run("absent key keeps parent", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.folders.HandleUpdate(rr, request(http.MethodPatch, "/api/folders/"+child.ID,
			"user-1", child.ID, `{"name":"Renamed"}`))
		require.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			Folder model.Folder `json:"folder"`
		}
		decodeBody(t, rr, &res)
		assert.Equal(t, "Renamed", res.Folder.Name)
		require.NotNil(t, res.Folder.ParentID)
		assert.Equal(t, parent.ID, *res.Folder.ParentID)
	})

	t.Run("explicit null promotes to root", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.folders.HandleUpdate(rr, request(http.MethodPatch, "/api/folders/"+child.ID,
			"user-1", child.ID, `{"parentId":null}`))
		require.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			Folder model.Folder `json:"folder"`
		}
		decodeBody(t, rr, &res)
		assert.Nil(t, res.Folder.ParentID)
	})
}

// TestFolderHandler_DeleteMovesSnippetsToRoot pins the compensation on
// folder delete: filed snippets survive at the root, only the folder row
// goes away.
func TestFolderHandler_DeleteMovesSnippetsToRoot(t *testing.T) {
	env := newTestEnv(t)

	folder := env.createFolder(t, "user-1", `{"name":"Doomed"}`)
	snip := env.createSnippet(t, "user-1",
		`{"title":"t","code":"c","language":"go","folderId":"`+folder.ID+`"}`)

	rr := httptest.NewRecorder()
	env.folders.HandleDelete(rr, request(http.MethodDelete, "/api/folders/"+folder.ID,
		"user-1", folder.ID, ""))
	require.Equal(t, http.StatusOK, rr.Code)

	var res map[string]bool
	decodeBody(t, rr, &res)
	assert.True(t, res["success"])

	got := env.getSnippet(t, "user-1", snip.ID)
	assert.Nil(t, got.FolderID)
}
