package resource

// CohortSet is a read-mostly lookup owned by the admissions domain.
type CohortSet struct {
	ID   string `db:"id" json:"id"`
	Slug string `db:"slug" json:"slug"`
}

// MentorshipServiceSet is a read-mostly lookup owned by the mentorship domain.
type MentorshipServiceSet struct {
	ID   string `db:"id" json:"id"`
	Slug string `db:"slug" json:"slug"`
}

// EventTypeSet is a read-mostly lookup owned by the events domain.
type EventTypeSet struct {
	ID   string `db:"id" json:"id"`
	Slug string `db:"slug" json:"slug"`
}
