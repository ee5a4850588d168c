// Package models contains shared data models used across the feedback service.
package models

import (
	"fmt"
	"strings"
)

// PassThreshold is the overall score at which an attempt counts as passed.
// Callers compute Passed themselves; the service never re-derives it.
const PassThreshold = 70.0

// ExerciseType identifies the kind of pronunciation exercise. The wire values
// are the tokens sent by the Vocalis clients.
type ExerciseType string

const (
	ExercisePhoneme    ExerciseType = "fonema"
	ExerciseRhythm     ExerciseType = "ritmo"
	ExerciseIntonation ExerciseType = "entonacion"
)

// ValidExerciseTypes lists the accepted wire values in display order.
var ValidExerciseTypes = []ExerciseType{ExercisePhoneme, ExerciseRhythm, ExerciseIntonation}

var exerciseTypeAliases = map[string]ExerciseType{
	"fonema":     ExercisePhoneme,
	"ritmo":      ExerciseRhythm,
	"entonacion": ExerciseIntonation,
	"phoneme":    ExercisePhoneme,
	"rhythm":     ExerciseRhythm,
	"intonation": ExerciseIntonation,
}

// ParseExerciseType normalizes a wire value or English alias. The second
// return value is false for anything outside the fixed set.
func ParseExerciseType(s string) (ExerciseType, bool) {
	t, ok := exerciseTypeAliases[s]
	return t, ok
}

// Aspect is one of the three scored performance dimensions.
type Aspect string

const (
	AspectPronunciation Aspect = "pronunciation"
	AspectFluency       Aspect = "fluency"
	AspectRhythm        Aspect = "rhythm"
)

// ScoreCategory buckets an overall score.
type ScoreCategory string

const (
	CategoryExcellent     ScoreCategory = "excellent"
	CategoryGreat         ScoreCategory = "great"
	CategoryGood          ScoreCategory = "good"
	CategoryNeedsPractice ScoreCategory = "needs_practice"
	CategoryTryAgain      ScoreCategory = "try_again"
)

// AnalysisContext is a validated snapshot of one exercise attempt.
// Build it with NewAnalysisContext; treat the result as read-only.
type AnalysisContext struct {
	AttemptID  string
	UserID     string
	ExerciseID string

	PronunciationScore float64
	FluencyScore       float64
	RhythmScore        float64
	OverallScore       float64

	ExerciseType    ExerciseType
	ExerciseContent string
	DifficultyLevel int
	ReferenceText   string

	UserAge       *int
	AttemptNumber int

	Passed       bool
	StarsEarned  int
	UnlockedNext bool

	WeakAreas         []string
	StrongAreas       []string
	PreviousBestScore *float64
}

// NewAnalysisContext normalizes and validates c. Exercise type aliases are
// mapped to their wire value, a zero AttemptNumber becomes 1, and the area
// slices are copied so the caller cannot mutate the result.
// It returns a *ValidationError describing the first violated invariant.
func NewAnalysisContext(c AnalysisContext) (AnalysisContext, error) {
	if c.AttemptNumber == 0 {
		c.AttemptNumber = 1
	}
	c.WeakAreas = cloneStrings(c.WeakAreas)
	c.StrongAreas = cloneStrings(c.StrongAreas)
	if c.PreviousBestScore != nil {
		v := *c.PreviousBestScore
		c.PreviousBestScore = &v
	}
	if c.UserAge != nil {
		v := *c.UserAge
		c.UserAge = &v
	}

	if err := c.validate(); err != nil {
		return AnalysisContext{}, err
	}
	if t, ok := ParseExerciseType(string(c.ExerciseType)); ok {
		c.ExerciseType = t
	}
	return c, nil
}

func (c AnalysisContext) validate() error {
	scores := []struct {
		field string
		value float64
	}{
		{"pronunciation_score", c.PronunciationScore},
		{"fluency_score", c.FluencyScore},
		{"rhythm_score", c.RhythmScore},
		{"overall_score", c.OverallScore},
	}
	for _, s := range scores {
		if !inScoreRange(s.value) {
			return &ValidationError{Field: s.field, Message: s.field + " debe estar entre 0 y 100"}
		}
	}

	if c.DifficultyLevel < 1 || c.DifficultyLevel > 5 {
		return &ValidationError{Field: "difficulty_level", Message: "difficulty_level debe estar entre 1 y 5"}
	}

	if _, ok := ParseExerciseType(string(c.ExerciseType)); !ok {
		return &ValidationError{
			Field:   "exercise_type",
			Message: fmt.Sprintf("exercise_type debe ser uno de: %s", formatExerciseTypes()),
		}
	}

	if c.StarsEarned < 0 || c.StarsEarned > 3 {
		return &ValidationError{Field: "stars_earned", Message: "stars_earned debe estar entre 0 y 3"}
	}

	if c.AttemptNumber < 1 {
		return &ValidationError{Field: "attempt_number", Message: "attempt_number debe ser mayor o igual a 1"}
	}

	if c.PreviousBestScore != nil && !inScoreRange(*c.PreviousBestScore) {
		return &ValidationError{Field: "previous_best_score", Message: "previous_best_score debe estar entre 0 y 100"}
	}

	return nil
}

// ScoreCategory buckets OverallScore. Lower bounds are inclusive.
func (c AnalysisContext) ScoreCategory() ScoreCategory {
	switch {
	case c.OverallScore >= 90:
		return CategoryExcellent
	case c.OverallScore >= 80:
		return CategoryGreat
	case c.OverallScore >= 70:
		return CategoryGood
	case c.OverallScore >= 50:
		return CategoryNeedsPractice
	default:
		return CategoryTryAgain
	}
}

// WeakestAspect returns the aspect with the lowest score. Ties go to the
// earlier aspect in pronunciation, fluency, rhythm order.
func (c AnalysisContext) WeakestAspect() Aspect {
	aspects := c.aspectScores()
	best := aspects[0]
	for _, a := range aspects[1:] {
		if a.score < best.score {
			best = a
		}
	}
	return best.aspect
}

// StrongestAspect returns the aspect with the highest score, with the same
// tie-break order as WeakestAspect.
func (c AnalysisContext) StrongestAspect() Aspect {
	aspects := c.aspectScores()
	best := aspects[0]
	for _, a := range aspects[1:] {
		if a.score > best.score {
			best = a
		}
	}
	return best.aspect
}

// HasImproved reports whether OverallScore beats PreviousBestScore.
func (c AnalysisContext) HasImproved() bool {
	if c.PreviousBestScore == nil {
		return false
	}
	return c.OverallScore > *c.PreviousBestScore
}

type aspectScore struct {
	aspect Aspect
	score  float64
}

func (c AnalysisContext) aspectScores() [3]aspectScore {
	return [3]aspectScore{
		{AspectPronunciation, c.PronunciationScore},
		{AspectFluency, c.FluencyScore},
		{AspectRhythm, c.RhythmScore},
	}
}

func inScoreRange(v float64) bool {
	return v >= 0 && v <= 100
}

func formatExerciseTypes() string {
	quoted := make([]string, len(ValidExerciseTypes))
	for i, t := range ValidExerciseTypes {
		quoted[i] = "'" + string(t) + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
