package domain

import (
	"math"
	"time"
)

// Rank is a named tier reached by learning a number of words.
type Rank struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

// Ranks lists the tiers in ascending threshold order.
var Ranks = []Rank{
	{Name: "Copper", Threshold: 50},
	{Name: "Bronze", Threshold: 100},
	{Name: "Silver", Threshold: 150},
	{Name: "Gold", Threshold: 200},
	{Name: "Platinum", Threshold: 300},
	{Name: "Diamond", Threshold: 500},
}

// RankFor returns the highest tier whose threshold is at or below learned.
// Below the first threshold the first tier is returned.
func RankFor(learned int) Rank {
	rank := Ranks[0]
	for _, r := range Ranks {
		if learned >= r.Threshold {
			rank = r
		}
	}
	return rank
}

// NextRank returns the tier after current and whether one exists.
func NextRank(learned int) (Rank, bool) {
	for _, r := range Ranks {
		if learned < r.Threshold {
			return r, true
		}
	}
	return Rank{}, false
}

// Accuracy returns the rounded percentage of correct answers, or 0 when
// nothing has been answered.
func Accuracy(stats QuizStats) int {
	if stats.TotalAnswered <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(stats.TotalCorrect) / float64(stats.TotalAnswered)))
}

// ProgressSnapshot is the derived summary shown on the profile screen.
type ProgressSnapshot struct {
	WordsLearned int  `json:"words_learned"`
	Accuracy     int  `json:"accuracy"`
	Rank         Rank `json:"rank"`
}

// DueCount reports how many learned words are due for review at now.
func (s UserState) DueCount(now time.Time) int {
	n := 0
	for _, w := range s.Words {
		if w.IsDue(now) {
			n++
		}
	}
	return n
}

// Progress derives the progress summary of the state.
func (s UserState) Progress() ProgressSnapshot {
	learned := 0
	for _, w := range s.Words {
		if w.IsLearned() {
			learned++
		}
	}
	return ProgressSnapshot{
		WordsLearned: learned,
		Accuracy:     Accuracy(s.QuizStats),
		Rank:         RankFor(learned),
	}
}
