package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"log/slog"
	"os"

	"github.com/sakif/snipy/internal/apperror"
	"github.com/sakif/snipy/internal/model"
	"github.com/sakif/snipy/internal/repository"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// Hand-written mocks keep the service tests independent of SQLite. Both
// mocks record the store calls they receive in order, which is what the
// aggregate update tests assert on: the multi-step update must run its
// steps in program order and stop at the first failure.

type mockSnippetRepo struct {
	snippets map[string]*model.Snippet
	nextID   int
	calls    []string

	updateFieldsErr error
}

func newMockSnippetRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.nextID++
	snippet.ID = fmt.Sprintf("mock-%d", m.nextID)
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	snippet, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *snippet
	return &result, nil
}

func (m *mockSnippetRepo) GetAggregated(_ context.Context, id, _ string) (*model.AggregatedSnippet, error) {
	snippet, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	return &model.AggregatedSnippet{Snippet: *snippet, Tags: []string{}}, nil
}

func (m *mockSnippetRepo) ListAggregated(_ context.Context, _ repository.ListScope) ([]model.AggregatedSnippet, error) {
	result := make([]model.AggregatedSnippet, 0, len(m.snippets))
	for _, s := range m.snippets {
		result = append(result, model.AggregatedSnippet{Snippet: *s, Tags: []string{}})
	}
	return result, nil
}

func (m *mockSnippetRepo) UpdateFields(_ context.Context, id, ownerID string, patch repository.SnippetPatch) error {
	m.calls = append(m.calls, "UpdateFields")
	if m.updateFieldsErr != nil {
		return m.updateFieldsErr
	}
	snippet, ok := m.snippets[id]
	if !ok || snippet.UserID != ownerID {
		return fmt.Errorf("no row matched id and owner")
	}
	if patch.Title != nil {
		snippet.Title = *patch.Title
	}
	if patch.Code != nil {
		snippet.Code = *patch.Code
	}
	if patch.FolderIDSet {
		snippet.FolderID = patch.FolderID
	}
	if patch.IsPublic != nil {
		snippet.IsPublic = *patch.IsPublic
	}
	return nil
}

func (m *mockSnippetRepo) SetPublic(_ context.Context, id, ownerID string, isPublic bool) (*model.Snippet, error) {
	snippet, ok := m.snippets[id]
	if !ok || snippet.UserID != ownerID {
		return nil, fmt.Errorf("no row matched id and owner")
	}
	snippet.IsPublic = isPublic
	result := *snippet
	return &result, nil
}

func (m *mockSnippetRepo) ClearFolderRef(_ context.Context, folderID, ownerID string) error {
	m.calls = append(m.calls, "ClearFolderRef")
	for _, s := range m.snippets {
		if s.UserID == ownerID && s.FolderID != nil && *s.FolderID == folderID {
			s.FolderID = nil
		}
	}
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id, ownerID string) error {
	if s, ok := m.snippets[id]; ok && s.UserID == ownerID {
		delete(m.snippets, id)
	}
	return nil
}

type mockAssocRepo struct {
	tags      map[string][]string // snippet id -> tag ids
	favorites map[string]bool     // "user/snippet" -> favorited
	calls     []string

	wipeErr   error
	insertErr error
}

func newMockAssocRepo() *mockAssocRepo {
	return &mockAssocRepo{
		tags:      make(map[string][]string),
		favorites: make(map[string]bool),
	}
}

func favKey(userID, snippetID string) string { return userID + "/" + snippetID }

func (m *mockAssocRepo) DeleteTagsForSnippet(_ context.Context, snippetID string) error {
	m.calls = append(m.calls, "DeleteTagsForSnippet")
	if m.wipeErr != nil {
		return m.wipeErr
	}
	delete(m.tags, snippetID)
	return nil
}

func (m *mockAssocRepo) InsertTags(_ context.Context, snippetID string, tagIDs []string) error {
	m.calls = append(m.calls, "InsertTags")
	if m.insertErr != nil {
		return m.insertErr
	}
	m.tags[snippetID] = append(m.tags[snippetID], tagIDs...)
	return nil
}

func (m *mockAssocRepo) UpsertTags(_ context.Context, snippetID string, tagIDs []string) error {
	m.calls = append(m.calls, "UpsertTags")
	for _, id := range tagIDs {
		found := false
		for _, existing := range m.tags[snippetID] {
			if existing == id {
				found = true
			}
		}
		if !found {
			m.tags[snippetID] = append(m.tags[snippetID], id)
		}
	}
	return nil
}

func (m *mockAssocRepo) RemoveTag(_ context.Context, snippetID, tagID string) error {
	m.calls = append(m.calls, "RemoveTag")
	kept := m.tags[snippetID][:0]
	for _, id := range m.tags[snippetID] {
		if id != tagID {
			kept = append(kept, id)
		}
	}
	m.tags[snippetID] = kept
	return nil
}

func (m *mockAssocRepo) AddFavorite(_ context.Context, userID, snippetID string) error {
	m.calls = append(m.calls, "AddFavorite")
	key := favKey(userID, snippetID)
	if m.favorites[key] {
		return fmt.Errorf("duplicate favorite")
	}
	m.favorites[key] = true
	return nil
}

func (m *mockAssocRepo) UpsertFavorite(_ context.Context, userID, snippetID string) error {
	m.calls = append(m.calls, "UpsertFavorite")
	m.favorites[favKey(userID, snippetID)] = true
	return nil
}

func (m *mockAssocRepo) RemoveFavorite(_ context.Context, userID, snippetID string) error {
	m.calls = append(m.calls, "RemoveFavorite")
	delete(m.favorites, favKey(userID, snippetID))
	return nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSnippetService(t *testing.T) (*SnippetService, *mockSnippetRepo, *mockAssocRepo) {
	t.Helper()
	snippets := newMockSnippetRepo()
	assoc := newMockAssocRepo()
	svc := NewSnippetService(snippets, assoc, testLogger(), false)
	return svc, snippets, assoc
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func mustCreate(t *testing.T, svc *SnippetService, owner, title string) *model.Snippet {
	t.Helper()
	snippet, err := svc.Create(context.Background(), owner, CreateSnippetInput{
		Title:    title,
		Code:     "print('hi')",
		Language: "python",
	})
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}
	return snippet
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate_Success(t *testing.T) {
	svc, _, _ := newTestSnippetService(t)

	snippet, err := svc.Create(context.Background(), "user-a", CreateSnippetInput{
		Title:    "hello world",
		Code:     "print('hi')",
		Language: "python",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.ID == "" {
		t.Error("expected snippet to have an ID")
	}
	if snippet.UserID != "user-a" {
		t.Errorf("UserID = %q, want %q", snippet.UserID, "user-a")
	}
}

func TestCreate_MissingRequiredFields(t *testing.T) {
	svc, _, _ := newTestSnippetService(t)

	cases := []struct {
		name string
		in   CreateSnippetInput
	}{
		{"no title", CreateSnippetInput{Code: "c", Language: "go"}},
		{"no code", CreateSnippetInput{Title: "t", Language: "go"}},
		{"no language", CreateSnippetInput{Title: "t", Code: "c"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-a", tc.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreate_Unauthenticated(t *testing.T) {
	svc, _, _ := newTestSnippetService(t)

	_, err := svc.Create(context.Background(), "", CreateSnippetInput{
		Title: "t", Code: "c", Language: "go",
	})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

// =========================================================================
// AGGREGATE UPDATE TESTS
// =========================================================================

// The aggregate update runs up to three store steps in a fixed order:
// field patch, then tag reconciliation, then favorite reconciliation.

func TestUpdate_FieldsOnly_SkipsAssociations(t *testing.T) {
	svc, snippets, assoc := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "original")

	err := svc.Update(context.Background(), "user-a", created.ID, SnippetUpdate{
		Title: strPtr("renamed"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got := snippets.snippets[created.ID].Title; got != "renamed" {
		t.Errorf("Title = %q, want %q", got, "renamed")
	}
	if len(assoc.calls) != 0 {
		t.Errorf("association calls = %v, want none", assoc.calls)
	}
}

func TestUpdate_EmptyPatch_StillRunsFieldStep(t *testing.T) {
	svc, snippets, _ := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "untouched")

	// Even an empty body refreshes updated_at, so the field step always runs.
	if err := svc.Update(context.Background(), "user-a", created.ID, SnippetUpdate{}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if len(snippets.calls) != 1 || snippets.calls[0] != "UpdateFields" {
		t.Errorf("snippet calls = %v, want [UpdateFields]", snippets.calls)
	}
}

func TestUpdate_TagsReplaceExistingSet(t *testing.T) {
	svc, _, assoc := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "tagged")
	assoc.tags[created.ID] = []string{"old-1", "old-2"}

	err := svc.Update(context.Background(), "user-a", created.ID, SnippetUpdate{
		Tags: &[]string{"new-1"},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if len(assoc.tags[created.ID]) != 1 || assoc.tags[created.ID][0] != "new-1" {
		t.Errorf("tags = %v, want [new-1]", assoc.tags[created.ID])
	}
	if len(assoc.calls) != 2 || assoc.calls[0] != "DeleteTagsForSnippet" || assoc.calls[1] != "InsertTags" {
		t.Errorf("association calls = %v, want [DeleteTagsForSnippet InsertTags]", assoc.calls)
	}
}

func TestUpdate_EmptyTagList_WipesWithoutInsert(t *testing.T) {
	svc, _, assoc := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "tagged")
	assoc.tags[created.ID] = []string{"old-1"}

	err := svc.Update(context.Background(), "user-a", created.ID, SnippetUpdate{
		Tags: &[]string{},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if len(assoc.tags[created.ID]) != 0 {
		t.Errorf("tags = %v, want empty", assoc.tags[created.ID])
	}
	if len(assoc.calls) != 1 || assoc.calls[0] != "DeleteTagsForSnippet" {
		t.Errorf("association calls = %v, want [DeleteTagsForSnippet]", assoc.calls)
	}
}

func TestUpdate_InsertFailure_LeavesTagsWiped(t *testing.T) {
	svc, _, assoc := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "tagged")
	assoc.tags[created.ID] = []string{"old-1"}
	assoc.insertErr = fmt.Errorf("tag does not exist")

	err := svc.Update(context.Background(), "user-a", created.ID, SnippetUpdate{
		Tags:       &[]string{"bogus"},
		IsFavorite: boolPtr(true),
	})
	if err == nil {
		t.Fatal("Update() should surface the insert failure")
	}

	// The wipe already ran, so the snippet is left with zero tags, and the
	// favorite step after the failed insert never runs.
	if len(assoc.tags[created.ID]) != 0 {
		t.Errorf("tags = %v, want empty after failed insert", assoc.tags[created.ID])
	}
	for _, call := range assoc.calls {
		if call == "UpsertFavorite" {
			t.Error("favorite step ran after a failed tag insert")
		}
	}
}

func TestUpdate_FieldFailure_SkipsAssociationSteps(t *testing.T) {
	svc, snippets, assoc := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "locked")
	snippets.updateFieldsErr = fmt.Errorf("store unavailable")

	err := svc.Update(context.Background(), "user-a", created.ID, SnippetUpdate{
		Tags:       &[]string{"t-1"},
		IsFavorite: boolPtr(true),
	})
	if err == nil {
		t.Fatal("Update() should surface the field step failure")
	}
	if len(assoc.calls) != 0 {
		t.Errorf("association calls = %v, want none after field failure", assoc.calls)
	}
}

func TestUpdate_FavoriteTrue_Upserts(t *testing.T) {
	svc, _, assoc := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "fav")

	err := svc.Update(context.Background(), "user-a", created.ID, SnippetUpdate{
		IsFavorite: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !assoc.favorites[favKey("user-a", created.ID)] {
		t.Error("expected snippet to be favorited")
	}

	// Favoriting again through the aggregate path is idempotent.
	if err := svc.Update(context.Background(), "user-a", created.ID, SnippetUpdate{
		IsFavorite: boolPtr(true),
	}); err != nil {
		t.Fatalf("second Update() error = %v", err)
	}
}

func TestUpdate_FavoriteFalse_RemovesExactPair(t *testing.T) {
	svc, _, assoc := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "fav")
	assoc.favorites[favKey("user-a", created.ID)] = true
	assoc.favorites[favKey("user-b", created.ID)] = true

	err := svc.Update(context.Background(), "user-a", created.ID, SnippetUpdate{
		IsFavorite: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if assoc.favorites[favKey("user-a", created.ID)] {
		t.Error("expected user-a's favorite to be removed")
	}
	if !assoc.favorites[favKey("user-b", created.ID)] {
		t.Error("another user's favorite must survive")
	}
}

func TestUpdate_WrongOwner_Errors(t *testing.T) {
	svc, _, _ := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "owned")

	err := svc.Update(context.Background(), "user-b", created.ID, SnippetUpdate{
		Title: strPtr("hijack"),
	})
	if err == nil {
		t.Fatal("Update() by a non-owner should error")
	}
}

func TestUpdate_Unauthenticated(t *testing.T) {
	svc, _, _ := newTestSnippetService(t)

	err := svc.Update(context.Background(), "", "any", SnippetUpdate{})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

// =========================================================================
// FAVORITE / TAG ENDPOINT TESTS
// =========================================================================

func TestAddFavorite_DuplicateErrors(t *testing.T) {
	svc, _, _ := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "fav")

	if err := svc.AddFavorite(context.Background(), "user-a", created.ID); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	if err := svc.AddFavorite(context.Background(), "user-a", created.ID); err == nil {
		t.Error("favoriting twice through the direct endpoint should error")
	}
}

func TestRemoveFavorite_AbsentSucceeds(t *testing.T) {
	svc, _, _ := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "fav")

	if err := svc.RemoveFavorite(context.Background(), "user-a", created.ID); err != nil {
		t.Errorf("removing an absent favorite should succeed, got %v", err)
	}
}

func TestAddTags_EmptyListRejected(t *testing.T) {
	svc, _, _ := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "tagged")

	err := svc.AddTags(context.Background(), "user-a", created.ID, nil)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestAddTags_Idempotent(t *testing.T) {
	svc, _, assoc := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "tagged")

	if err := svc.AddTags(context.Background(), "user-a", created.ID, []string{"t-1", "t-2"}); err != nil {
		t.Fatalf("AddTags() error = %v", err)
	}
	if err := svc.AddTags(context.Background(), "user-a", created.ID, []string{"t-1", "t-3"}); err != nil {
		t.Fatalf("second AddTags() error = %v", err)
	}

	if len(assoc.tags[created.ID]) != 3 {
		t.Errorf("tags = %v, want 3 distinct entries", assoc.tags[created.ID])
	}
}

func TestRemoveTag_MissingTagID(t *testing.T) {
	svc, _, _ := newTestSnippetService(t)

	err := svc.RemoveTag(context.Background(), "user-a", "snip-1", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete_Success(t *testing.T) {
	svc, snippets, _ := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "doomed")

	if err := svc.Delete(context.Background(), "user-a", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := snippets.snippets[created.ID]; ok {
		t.Error("snippet still present after delete")
	}
}

func TestDelete_WrongOwner_RowSurvives(t *testing.T) {
	svc, snippets, _ := newTestSnippetService(t)
	created := mustCreate(t, svc, "user-a", "guarded")

	// Owner-scoped delete of someone else's row matches nothing and, like
	// deleting an absent row, reports success.
	if err := svc.Delete(context.Background(), "user-b", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := snippets.snippets[created.ID]; !ok {
		t.Error("another user's delete removed the row")
	}
}
