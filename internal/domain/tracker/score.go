package tracker

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// SCORE CALCULATOR
// ══════════════════════════════════════════════════════════════════════════════

// Scores holds the four platform sub-scores and their aggregate.
type Scores struct {
	LeetCode    float64
	CodeForces  float64
	CodeChef    float64
	AtCoder     float64
	Performance float64
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LeetCodeScore computes the LeetCode sub-score from raw stats.
// Contest problems weigh 10x, practice problems and total solved 1x,
// plus the current contest rating.
func LeetCodeScore(s LeetCodeStats) float64 {
	return float64(s.ContestSolved)*10 +
		float64(s.PracticeSolved)*1 +
		float64(s.TotalSolved)*1 +
		s.CurrentRating*1
}

// CodeForcesScore computes the CodeForces sub-score from raw stats.
func CodeForcesScore(s CodeForcesStats) float64 {
	return float64(s.Contests)*15 +
		float64(s.ProblemsSolved)*2 +
		float64(s.Rating)*1
}

// CodeChefScore computes the CodeChef sub-score from raw stats.
func CodeChefScore(s CodeChefStats) float64 {
	return float64(s.Contests)*12 +
		float64(s.ProblemsSolved)*2 +
		float64(s.Rating)*1
}

// AtCoderScore computes the AtCoder sub-score from raw stats.
func AtCoderScore(s AtCoderStats) float64 {
	return float64(s.Contests)*10 +
		float64(s.ProblemsSolved)*2 +
		float64(s.Rating)*1
}

// CalculateScores derives all sub-scores and the aggregate performance score
// from the tracker's current raw statistics. Pure and deterministic: zero
// inputs yield zero scores, and repeated calls on unchanged stats produce
// identical output.
func CalculateScores(t *Tracker) Scores {
	scores := Scores{
		LeetCode:   LeetCodeScore(t.LeetCode),
		CodeForces: CodeForcesScore(t.CodeForces),
		CodeChef:   CodeChefScore(t.CodeChef),
		AtCoder:    AtCoderScore(t.AtCoder),
	}
	scores.Performance = Round2(scores.LeetCode + scores.CodeForces + scores.CodeChef + scores.AtCoder)
	return scores
}

// ComputeScores recomputes and stores the derived score fields.
// Must be called after any change to the raw statistics blocks.
func (t *Tracker) ComputeScores() {
	scores := CalculateScores(t)
	t.LeetCodeScore = scores.LeetCode
	t.CodeForcesScore = scores.CodeForces
	t.CodeChefScore = scores.CodeChef
	t.AtCoderScore = scores.AtCoder
	t.PerformanceScore = scores.Performance
}
