package models

import (
	"time"

	"github.com/lib/pq"
)

// PhotoType classifies what kind of shot a code or session represents.
type PhotoType string

const (
	PhotoTypeIndividual PhotoType = "individual"
	PhotoTypeSiblings   PhotoType = "siblings"
	PhotoTypeFriends    PhotoType = "friends"
	PhotoTypeClass      PhotoType = "class"
)

// Valid reports whether the photo type is a known value.
func (t PhotoType) Valid() bool {
	switch t {
	case PhotoTypeIndividual, PhotoTypeSiblings, PhotoTypeFriends, PhotoTypeClass:
		return true
	}
	return false
}

// PhotoPreference is a parent's pre-event photo request. Created once by a
// parent through the external CRUD layer; read-only input to scan-code
// compilation.
type PhotoPreference struct {
	ID              string         `db:"id" json:"id"`
	EventID         string         `db:"event_id" json:"eventId"`
	ParentID        string         `db:"parent_id" json:"parentId"`
	StudentID       string         `db:"student_id" json:"studentId"`
	ExtraStudentIDs pq.StringArray `db:"extra_student_ids" json:"extraStudentIds"`
	PhotoType       PhotoType      `db:"photo_type" json:"photoType"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
}
