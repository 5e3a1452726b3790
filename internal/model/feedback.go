package model

import "time"

// Feedback types. Validation is case-sensitive: "like" is rejected.
const (
	FeedbackLike    = "LIKE"
	FeedbackDislike = "DISLIKE"
)

// ValidFeedbackType reports whether t is exactly LIKE or DISLIKE.
func ValidFeedbackType(t string) bool {
	return t == FeedbackLike || t == FeedbackDislike
}

// Feedback is a single like/dislike a user left on an item.
//
// Unlike Favorite there is NO uniqueness constraint: a user may submit any
// number of feedback rows for the same item, including contradictory ones.
// Every submission is retained.
type Feedback struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ItemID    int64     `json:"itemId"`
	Type      string    `json:"feedbackType"`
	CreatedAt time.Time `json:"createdAt"`
}
