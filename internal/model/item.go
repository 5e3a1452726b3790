package model

import "time"

// Item condition labels used by the frontend. The server does not reject
// other values — condition is free text, these are just the conventional
// choices (and what the seeder uses).
const (
	ConditionNew         = "New"
	ConditionLikeNew     = "Like New"
	ConditionGood        = "Good"
	ConditionFair        = "Fair"
	ConditionNeedsRepair = "Needs Repair"
)

// CurbTimeLayout is the expected wire format for time_to_be_set_on_curb,
// e.g. "2025-06-01T17:30:00". It is a time.Parse reference layout.
const CurbTimeLayout = "2006-01-02T15:04:05"

// Item is a posting of a physical object destined for curbside pickup.
//
// UserID is the owner — the only identity allowed to update or delete the
// item. Image holds the stored filename of the uploaded picture; clients
// fetch the bytes from GET /uploads/{filename}.
type Item struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"userId"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Location          string    `json:"location"`
	Condition         string    `json:"condition"`
	TimeToBeSetOnCurb time.Time `json:"timeToBeSetOnCurb"`
	Image             string    `json:"image"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
