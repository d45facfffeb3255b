package models

import "time"

// Course is a course taken or planned by a user.
type Course struct {
	ID              string    `json:"_id"`
	UserID          string    `json:"user_id"`
	DistributionIDs []string  `json:"distribution_ids"`
	Title           string    `json:"title"`
	Number          string    `json:"number"`
	Term            string    `json:"term"`
	Year            string    `json:"year"`
	Credits         float64   `json:"credits"`
	Taken           bool      `json:"taken"`
	CreatedAt       time.Time `json:"created_at"`
}

// Clone returns a deep copy of c.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	cp := *c
	cp.DistributionIDs = append([]string(nil), c.DistributionIDs...)
	return &cp
}
