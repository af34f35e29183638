// Package alert decides whether a sample's features warrant an alert.
package alert

import "fmt"

// Thresholds are inclusive lower bounds.
type Thresholds struct {
	RedPixels   int
	ChangeScore float64
}

// Decision is the outcome of Decide. Reasons lists each check that fired.
type Decision struct {
	Fired   bool
	Reasons []string
}

// Decide fires when red pixels or the change score reach their threshold.
func Decide(redPixels int, changeScore float64, th Thresholds) Decision {
	var reasons []string
	if redPixels >= th.RedPixels {
		reasons = append(reasons, fmt.Sprintf("red_pixels=%d", redPixels))
	}
	if changeScore >= th.ChangeScore {
		reasons = append(reasons, fmt.Sprintf("change_score=%.3f", changeScore))
	}
	return Decision{Fired: len(reasons) > 0, Reasons: reasons}
}
