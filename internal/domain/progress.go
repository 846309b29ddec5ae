package domain

// Progress is the shared click counter that unlocks the landing page once
// CurrentClicks reaches TargetClicks.
type Progress struct {
	ID            int64 `json:"id"`
	CurrentClicks int64 `json:"current_clicks"`
	TargetClicks  int64 `json:"target_clicks"`
	IsCompleted   bool  `json:"is_completed"`
}

// Percent returns completion in [0, 100].
func (p Progress) Percent() float64 {
	if p.TargetClicks <= 0 {
		return 0
	}
	pct := float64(p.CurrentClicks) / float64(p.TargetClicks) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
