package usage

import "time"

const (
	defaultPlan  = "Starter"
	defaultLimit = 10
	periodLength = 7 * 24 * time.Hour
)

// Usage is a buyer's deep-report quota snapshot for the current week.
type Usage struct {
	Plan     string    `json:"plan"`
	Limit    int       `json:"limit"`
	Used     int       `json:"used"`
	ResetsAt time.Time `json:"resetsAt"`
}

// Remaining returns how many reports can still be requested this period.
func (u Usage) Remaining() int {
	if u.Used >= u.Limit {
		return 0
	}
	return u.Limit - u.Used
}

// rollover starts a fresh window when the current one has ended at now.
// It reports whether anything changed.
func (u *Usage) rollover(now time.Time) bool {
	if now.Before(u.ResetsAt) {
		return false
	}
	u.Used = 0
	u.ResetsAt = now.Add(periodLength)
	return true
}

func defaultUsage(limit int) Usage {
	if limit <= 0 {
		limit = defaultLimit
	}
	return Usage{
		Plan:     defaultPlan,
		Limit:    limit,
		ResetsAt: time.Now().UTC().Add(periodLength),
	}
}

// Quota is the wire shape of a Usage on /usage and in /me.
type Quota struct {
	Plan      string    `json:"plan"`
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resetsAt"`
}

func (u Usage) Quota() Quota {
	return Quota{Plan: u.Plan, Limit: u.Limit, Used: u.Used, Remaining: u.Remaining(), ResetsAt: u.ResetsAt}
}
