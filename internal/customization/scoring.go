package customization

var baseFeasibility = map[Level]int{
	Level1: 95,
	Level2: 85,
	Level3: 65,
	Level4: 45,
	Level5: 25,
}

// BaseScore returns the feasibility base rate for a level.
func BaseScore(level Level) int {
	return baseFeasibility[clampLevel(level)]
}

// Penalty returns the score deduction for one constraint of the given severity.
func Penalty(severity Severity) int {
	switch severity {
	case SeverityCritical:
		return 20
	case SeverityHigh:
		return 10
	case SeverityMedium:
		return 5
	case SeverityLow:
		return 2
	default:
		return 0
	}
}

// Score computes the 0..100 feasibility score: level base rate minus constraint penalties.
func Score(level Level, constraints []Constraint) int {
	score := BaseScore(level)
	for _, c := range constraints {
		score -= Penalty(c.Severity)
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
