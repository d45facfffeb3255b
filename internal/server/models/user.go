// Package models defines server-side entities persisted by the repositories.
package models

import "time"

// User is a student (or staff member) identified by an institutional id.
//
// DistributionIDs is derived from distribution ownership. Years maps an
// academic year key ("freshman", "sophomore", ...) to the ordered course
// ids taken or planned in that year.
type User struct {
	ID              string              `json:"_id"`
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	Affiliation     string              `json:"affiliation"`
	School          string              `json:"school"`
	Grade           string              `json:"grade"`
	DistributionIDs []string            `json:"distribution_ids"`
	Years           map[string][]string `json:"years"`
	CreatedAt       time.Time           `json:"created_at"`
}
