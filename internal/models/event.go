package models

import "time"

// Event is a school photo day. Owned by the external CRUD layer; this
// service only reads it.
type Event struct {
	ID       string    `db:"id" json:"id"`
	SchoolID string    `db:"school_id" json:"schoolId"`
	Name     string    `db:"name" json:"name"`
	Date     time.Time `db:"date" json:"date"`
}

// Student is a directory entry, read-only from this service's perspective.
type Student struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"fullName"`
}
