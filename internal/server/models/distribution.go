package models

import "time"

// Distribution is a graduation requirement bucket.
//
// Current must equal the sum of credits of the taken courses in Courses.
// It is only changed by the course coordinator and by reconciliation.
type Distribution struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Required  float64   `json:"required"`
	Current   float64   `json:"current"`
	Courses   []string  `json:"courses"`
	CreatedAt time.Time `json:"created_at"`
}
