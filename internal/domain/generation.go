package domain

import "time"

// Generation records one successfully produced portrait. Rows are written only
// after both the model call and the storage write succeed, and are never
// mutated afterwards.
type Generation struct {
	ID        string
	UserID    string
	ImageURL  string
	Prompt    string
	Title     string
	Model     string
	CreatedAt time.Time
}

// StyleTemplate is a curated feed entry browsed by users and managed through
// the admin surface. Templates are independent of any user.
type StyleTemplate struct {
	ID        string
	Title     string
	Prompt    string
	ImageURL  string
	CreatedAt time.Time
}
