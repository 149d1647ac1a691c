package model

import "time"

// Folder is a node in the user's folder tree. ParentID is nil for root
// folders. The parent relation is not validated against cycles.
type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId"`
	Color     *string   `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
