// Package model defines the data structures shared across the application.
// Structs here carry no behavior beyond JSON shaping; validation lives in the
// service layer and persistence in the repository layer.
package model

import "time"

// Snippet is a stored code snippet as persisted in the snippets table.
//
// Readme, Description and FolderID are pointers because the columns are
// nullable and the API distinguishes "absent" from "empty". A nil FolderID
// means the snippet lives at the root of the folder tree.
type Snippet struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Code        string    `json:"code"`
	Language    string    `json:"language"`
	Notes       string    `json:"notes"`
	Readme      *string   `json:"readme,omitempty"`
	Description *string   `json:"description,omitempty"`
	FolderID    *string   `json:"folderId"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AggregatedSnippet is the read model returned by list and single-snippet
// reads: the snippet row enriched with its associated tag ids and whether the
// viewing user has favorited it. IsFavorite is always false for anonymous
// viewers.
type AggregatedSnippet struct {
	Snippet
	Tags       []string `json:"tags"`
	IsFavorite bool     `json:"isFavorite"`
}
