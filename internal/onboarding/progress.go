package onboarding

import "math"

// Progress is the derived view over a completed-step set.
type Progress struct {
	IsComplete        bool   `json:"is_complete"`
	Percentage        int    `json:"percentage"`
	NextStep          int    `json:"next_step"` // 0 when complete
	CurrentPhase      string `json:"current_phase"`
	CompletedRequired int    `json:"completed_required"`
	TotalRequired     int    `json:"total_required"`
}

// Compute derives completion state from the completed-step set. current is the
// raw step pointer, used for the phase only while nothing is completed yet.
// Marking a step twice is a no-op: the input is treated as a set.
func Compute(completed []int, current int) Progress {
	set := make(map[int]bool, len(completed))
	for _, s := range completed {
		set[s] = true
	}

	required := RequiredSteps()
	done := 0
	next := 0
	for _, idx := range required {
		if set[idx] {
			done++
		} else if next == 0 {
			next = idx
		}
	}

	pct := 0
	if len(required) > 0 {
		pct = int(math.Round(100 * float64(done) / float64(len(required))))
	}

	highest := 0
	for s := range set {
		if s > highest {
			highest = s
		}
	}
	anchor := highest
	if anchor == 0 {
		anchor = current
	}
	if anchor == 0 {
		anchor = 1
	}

	return Progress{
		IsComplete:        done == len(required),
		Percentage:        pct,
		NextStep:          next,
		CurrentPhase:      PhaseFor(anchor),
		CompletedRequired: done,
		TotalRequired:     len(required),
	}
}
