package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeetCodeScore(t *testing.T) {
	s := LeetCodeStats{
		ContestSolved:  30,
		PracticeSolved: 120,
		TotalSolved:    150,
		CurrentRating:  1650,
	}

	// 30*10 + 120 + 150 + 1650
	assert.Equal(t, 2220.0, LeetCodeScore(s))
}

func TestCodeForcesScore(t *testing.T) {
	s := CodeForcesStats{
		Contests:       20,
		ProblemsSolved: 250,
		Rating:         1050,
	}

	// 20*15 + 250*2 + 1050
	assert.Equal(t, 1850.0, CodeForcesScore(s))
}

func TestCodeChefScore(t *testing.T) {
	s := CodeChefStats{
		Contests:       10,
		ProblemsSolved: 80,
		Rating:         1670,
	}

	// 10*12 + 80*2 + 1670
	assert.Equal(t, 1950.0, CodeChefScore(s))
}

func TestAtCoderScore(t *testing.T) {
	s := AtCoderStats{
		Contests:       15,
		ProblemsSolved: 90,
		Rating:         1200,
	}

	// 15*10 + 90*2 + 1200
	assert.Equal(t, 1530.0, AtCoderScore(s))
}

func TestCalculateScores_ZeroStats(t *testing.T) {
	tr := NewTracker("user1", Usernames{LeetCode: "alice"})
	scores := CalculateScores(tr)

	assert.Equal(t, 0.0, scores.LeetCode)
	assert.Equal(t, 0.0, scores.CodeForces)
	assert.Equal(t, 0.0, scores.CodeChef)
	assert.Equal(t, 0.0, scores.AtCoder)
	assert.Equal(t, 0.0, scores.Performance)
}

func TestCalculateScores_AggregatesAllPlatforms(t *testing.T) {
	tr := NewTracker("user1", Usernames{
		LeetCode:   "alice",
		CodeForces: "alice_cf",
		CodeChef:   "alice_cc",
		AtCoder:    "alice_ac",
	})
	tr.LeetCode = LeetCodeStats{ContestSolved: 5, PracticeSolved: 45, TotalSolved: 50, CurrentRating: 1500}
	tr.CodeForces = CodeForcesStats{Contests: 10, ProblemsSolved: 100, Rating: 1400}
	tr.CodeChef = CodeChefStats{Contests: 4, ProblemsSolved: 30, Rating: 1600}
	tr.AtCoder = AtCoderStats{Contests: 8, ProblemsSolved: 60, Rating: 900}

	scores := CalculateScores(tr)

	assert.Equal(t, 1645.0, scores.LeetCode)
	assert.Equal(t, 1750.0, scores.CodeForces)
	assert.Equal(t, 1708.0, scores.CodeChef)
	assert.Equal(t, 1100.0, scores.AtCoder)
	assert.Equal(t, 6203.0, scores.Performance)
}

func TestCalculateScores_Deterministic(t *testing.T) {
	tr := NewTracker("user1", Usernames{LeetCode: "alice"})
	tr.LeetCode = LeetCodeStats{ContestSolved: 7, PracticeSolved: 13, TotalSolved: 20, CurrentRating: 1234.56}

	first := CalculateScores(tr)
	second := CalculateScores(tr)
	assert.Equal(t, first, second)
}

func TestComputeScores_StoresDerivedFields(t *testing.T) {
	tr := NewTracker("user1", Usernames{CodeForces: "bob"})
	tr.CodeForces = CodeForcesStats{Contests: 2, ProblemsSolved: 10, Rating: 800}

	tr.ComputeScores()

	assert.Equal(t, 850.0, tr.CodeForcesScore)
	assert.Equal(t, 850.0, tr.PerformanceScore)
	assert.Equal(t, 0.0, tr.LeetCodeScore)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.2345))
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, -2.5, Round2(-2.499999999))
}
