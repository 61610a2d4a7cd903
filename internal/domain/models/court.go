package models

// Court is a bookable physical court. Courts are seeded, never created at runtime.
type Court struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Features []string `json:"features"`
}
