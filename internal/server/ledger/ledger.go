// Package ledger computes distribution credit totals. It is pure: callers
// persist the results.
//
// Totals are never clamped. A negative total, or one above the required
// target, is left as is so the upstream inconsistency stays visible.
package ledger

import "github.com/dmitrijs2005/ucredit/internal/server/models"

// Delta is the change a course contributes to a distribution when its taken
// state transitions to becomingTaken.
func Delta(c *models.Course, becomingTaken bool) float64 {
	if becomingTaken {
		return c.Credits
	}
	return -c.Credits
}

// ApplyTakenTransition returns the distribution's new current total.
//
// It is not idempotent: applying the same transition twice counts the
// course twice. Callers must apply it at most once per course and
// distribution for each transition.
func ApplyTakenTransition(d *models.Distribution, c *models.Course, becomingTaken bool) float64 {
	return d.Current + Delta(c, becomingTaken)
}

// Expected is the total a distribution should hold for the given member
// courses: the credits of every taken course.
func Expected(courses []*models.Course) float64 {
	var total float64
	for _, c := range courses {
		if c.Taken {
			total += c.Credits
		}
	}
	return total
}
