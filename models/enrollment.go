package models

import "time"

// EnrollmentDraft is one child as captured by the enrollment form.
type EnrollmentDraft struct {
	ChildName         string `json:"child_name"`
	ParentName        string `json:"parent_name"`
	ParentEmail       string `json:"parent_email"`
	ParentPhoneNumber string `json:"parent_phone_number"`
	ProgramSelection  string `json:"program_selection"`
	ScheduleSelection string `json:"schedule_selection"`
}

// Family is the unit paid for by a single transaction. FamilyID is nil when a
// single child was submitted without siblings.
type Family struct {
	FamilyID *string           `json:"family_id"`
	Children []EnrollmentDraft `json:"children"`
}

type EnrollmentRecord struct {
	ChildName         string    `json:"child_name" bson:"child_name"`
	ParentName        string    `json:"parent_name" bson:"parent_name"`
	ParentEmail       string    `json:"parent_email" bson:"parent_email"`
	ParentPhoneNumber string    `json:"parent_phone_number" bson:"parent_phone_number"`
	ProgramSelection  string    `json:"program_selection" bson:"program_selection"`
	ScheduleSelection string    `json:"schedule_selection" bson:"schedule_selection"`
	FamilyID          *string   `json:"family_id" bson:"family_id"`
	Reference         string    `json:"reference" bson:"reference"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
}

// Records stamps every child with the family id and the paying reference.
func (f Family) Records(reference string, now time.Time) []EnrollmentRecord {
	records := make([]EnrollmentRecord, len(f.Children))
	for i, c := range f.Children {
		records[i] = EnrollmentRecord{
			ChildName:         c.ChildName,
			ParentName:        c.ParentName,
			ParentEmail:       c.ParentEmail,
			ParentPhoneNumber: c.ParentPhoneNumber,
			ProgramSelection:  c.ProgramSelection,
			ScheduleSelection: c.ScheduleSelection,
			FamilyID:          f.FamilyID,
			Reference:         reference,
			CreatedAt:         now,
		}
	}
	return records
}
