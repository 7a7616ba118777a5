package model

import "time"

// Link is a posted URL with a short description.
//
// PostedByID is a pointer because authorship is optional: a link whose
// author row was removed keeps existing with a NULL posted_by_id.
type Link struct {
	ID          int       `json:"id"          db:"id"`
	Description string    `json:"description" db:"description"`
	URL         string    `json:"url"         db:"url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	PostedByID  *int      `json:"-"           db:"posted_by_id"`
}

// Feed is one page of links plus the total number of links matching the
// same filter (not the page size).
type Feed struct {
	Links []*Link `json:"links"`
	Count int     `json:"count"`
}

// Vote is the result of the vote mutation. It is not persisted as an entity
// of its own; the store keeps a (link, user) join row instead.
type Vote struct {
	Link *Link `json:"link"`
	User *User `json:"user"`
}
