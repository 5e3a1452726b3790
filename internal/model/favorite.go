package model

// Favorite links a user to an item they bookmarked.
//
// At most one row may exist per (UserID, ItemID) pair — enforced by a
// UNIQUE constraint in the schema, not by a separate existence check, so
// concurrent double-favorites cannot slip through.
type Favorite struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"userId"`
	ItemID int64 `json:"itemId"`
}
