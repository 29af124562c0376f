package plans

import "time"

// Plan describes a subscription plan and its seat capacity.
// The ID should match the payment provider's price ID so plan change events
// can be mapped without translation.
type Plan struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Seats     int    `yaml:"seats"` // includes the owner
	TrialDays int    `yaml:"trial_days"`
}

// Shareable returns the number of seats the owner can hand out.
func (p Plan) Shareable() int {
	return max(p.Seats-1, 0)
}

// TrialEndsAt calculates when a trial started at startedAt ends.
// Returns nil if the plan has no trial.
func (p Plan) TrialEndsAt(startedAt time.Time) *time.Time {
	if p.TrialDays <= 0 {
		return nil
	}
	end := startedAt.AddDate(0, 0, p.TrialDays).UTC()
	return &end
}
