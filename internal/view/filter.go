// Package view holds the presentation-facing logic: a cached collection per
// resource and the pure filter that derives the visible snippet list. All
// derived state is recomputed from the inputs on every change; nothing
// intermediate is stored, so the filter can never drift out of sync with
// the collections.
package view

import (
	"strings"

	"github.com/sakif/snipy/internal/model"
)

// ViewMode selects the top-level snippet filter.
type ViewMode string

const (
	ViewAll       ViewMode = "all"
	ViewFavorites ViewMode = "favorites"
	ViewPublic    ViewMode = "public"
)

// Criteria is every input to the derived filter besides the collections
// themselves. The zero value means "show everything".
type Criteria struct {
	View     ViewMode
	FolderID string   // empty means no folder filter
	TagIDs   []string // a snippet must carry every listed tag
	Search   string   // case-insensitive substring
}

// Filter narrows the snippet list by four sequential predicates: view mode,
// folder, tags, and free text. Each stage only ever removes rows, so the
// stages compose by logical AND.
//
// The folder stage matches the selected folder and its direct children,
// one level only; grandchildren stay hidden. The tag stage requires every
// selected tag (AND, not OR). The text stage matches title, description,
// code, notes, or any associated tag's name.
func Filter(
	snippets []model.AggregatedSnippet,
	folders []model.Folder,
	tags []model.Tag,
	c Criteria,
) []model.AggregatedSnippet {
	parentOf := make(map[string]string, len(folders))
	for _, f := range folders {
		if f.ParentID != nil {
			parentOf[f.ID] = *f.ParentID
		}
	}
	tagName := make(map[string]string, len(tags))
	for _, t := range tags {
		tagName[t.ID] = t.Name
	}

	search := strings.ToLower(strings.TrimSpace(c.Search))

	result := []model.AggregatedSnippet{}
	for _, s := range snippets {
		if !matchesView(s, c.View) {
			continue
		}
		if c.FolderID != "" && !matchesFolder(s, c.FolderID, parentOf) {
			continue
		}
		if len(c.TagIDs) > 0 && !hasAllTags(s, c.TagIDs) {
			continue
		}
		if search != "" && !matchesSearch(s, search, tagName) {
			continue
		}
		result = append(result, s)
	}
	return result
}

func matchesView(s model.AggregatedSnippet, mode ViewMode) bool {
	switch mode {
	case ViewFavorites:
		return s.IsFavorite
	case ViewPublic:
		return s.IsPublic
	default:
		return true
	}
}

func matchesFolder(s model.AggregatedSnippet, folderID string, parentOf map[string]string) bool {
	if s.FolderID == nil {
		return false
	}
	if *s.FolderID == folderID {
		return true
	}
	return parentOf[*s.FolderID] == folderID
}

func hasAllTags(s model.AggregatedSnippet, tagIDs []string) bool {
	for _, want := range tagIDs {
		found := false
		for _, have := range s.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchesSearch(s model.AggregatedSnippet, search string, tagName map[string]string) bool {
	if strings.Contains(strings.ToLower(s.Title), search) ||
		strings.Contains(strings.ToLower(s.Code), search) ||
		strings.Contains(strings.ToLower(s.Notes), search) {
		return true
	}
	if s.Description != nil && strings.Contains(strings.ToLower(*s.Description), search) {
		return true
	}
	for _, id := range s.Tags {
		if strings.Contains(strings.ToLower(tagName[id]), search) {
			return true
		}
	}
	return false
}

// RetainSelection decides which snippet stays selected after the filtered
// set changes: the current one if it is still visible, otherwise the first
// visible snippet, otherwise nothing. A selection is never reset just
// because the set around it changed.
func RetainSelection(filtered []model.AggregatedSnippet, currentID string) string {
	for _, s := range filtered {
		if s.ID == currentID {
			return currentID
		}
	}
	if len(filtered) > 0 {
		return filtered[0].ID
	}
	return ""
}
