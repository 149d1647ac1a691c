package view

import (
	"context"

	"github.com/sakif/snipy/internal/model"
)

// Workspace bundles the three cached collections with the filter criteria
// and the current selection. It is the single stateful object behind a
// snippet-browsing session; everything it exposes is derived on the fly.
type Workspace struct {
	Snippets *Collection[model.AggregatedSnippet]
	Folders  *Collection[model.Folder]
	Tags     *Collection[model.Tag]

	criteria   Criteria
	selectedID string
}

// NewWorkspace creates a Workspace over the given fetchers. The initial
// view is "all" with no filters.
func NewWorkspace(
	snippets FetchFunc[model.AggregatedSnippet],
	folders FetchFunc[model.Folder],
	tags FetchFunc[model.Tag],
) *Workspace {
	return &Workspace{
		Snippets: NewCollection(snippets),
		Folders:  NewCollection(folders),
		Tags:     NewCollection(tags),
		criteria: Criteria{View: ViewAll},
	}
}

// Load fetches all three collections. The first error wins but the other
// loads still run, so a partial workspace renders what it can.
func (ws *Workspace) Load(ctx context.Context) error {
	var firstErr error
	for _, load := range []func(context.Context) error{
		ws.Snippets.Load,
		ws.Folders.Load,
		ws.Tags.Load,
	} {
		if err := load(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// InvalidateSnippets refetches snippets after a snippet mutation, success
// or failure alike.
func (ws *Workspace) InvalidateSnippets(ctx context.Context) error {
	return ws.Snippets.Invalidate(ctx)
}

// SetView switches the view mode and resets the narrower filters; a view
// change is a navigation, not a refinement.
func (ws *Workspace) SetView(mode ViewMode) {
	ws.criteria.View = mode
	ws.criteria.FolderID = ""
	ws.criteria.TagIDs = nil
}

// SelectFolder sets or clears (empty id) the folder filter.
func (ws *Workspace) SelectFolder(folderID string) {
	ws.criteria.FolderID = folderID
}

// ToggleTag adds or removes one tag from the tag filter.
func (ws *Workspace) ToggleTag(tagID string) {
	for i, id := range ws.criteria.TagIDs {
		if id == tagID {
			ws.criteria.TagIDs = append(ws.criteria.TagIDs[:i], ws.criteria.TagIDs[i+1:]...)
			return
		}
	}
	ws.criteria.TagIDs = append(ws.criteria.TagIDs, tagID)
}

// SetSearch sets the free-text filter.
func (ws *Workspace) SetSearch(text string) {
	ws.criteria.Search = text
}

// Select marks a snippet as the current one.
func (ws *Workspace) Select(snippetID string) {
	ws.selectedID = snippetID
}

// Criteria returns the active filter criteria.
func (ws *Workspace) Criteria() Criteria {
	return ws.criteria
}

// Visible recomputes the filtered snippet list and reconciles the current
// selection against it.
func (ws *Workspace) Visible() ([]model.AggregatedSnippet, string) {
	snippets, _ := ws.Snippets.Items()
	folders, _ := ws.Folders.Items()
	tags, _ := ws.Tags.Items()

	filtered := Filter(snippets, folders, tags, ws.criteria)
	ws.selectedID = RetainSelection(filtered, ws.selectedID)
	return filtered, ws.selectedID
}
