package models_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

func validContext() models.AnalysisContext {
	return models.AnalysisContext{
		AttemptID:          "550e8400-e29b-41d4-a716-446655440000",
		UserID:             "123e4567-e89b-12d3-a456-426614174000",
		ExerciseID:         "fonema_r_suave_1",
		PronunciationScore: 85.5,
		FluencyScore:       78.2,
		RhythmScore:        92.0,
		OverallScore:       85.2,
		ExerciseType:       models.ExercisePhoneme,
		ExerciseContent:    "palabras con /r/ suave",
		DifficultyLevel:    2,
		ReferenceText:      "raro, caro, pera, coro",
		Passed:             true,
		StarsEarned:        2,
		UnlockedNext:       true,
	}
}

func ptr[T any](v T) *T { return &v }

func TestNewAnalysisContext_Valid(t *testing.T) {
	c, err := models.NewAnalysisContext(validContext())
	require.NoError(t, err)
	assert.Equal(t, 1, c.AttemptNumber, "zero attempt number defaults to 1")
	assert.NotNil(t, c.WeakAreas)
	assert.NotNil(t, c.StrongAreas)
	assert.Empty(t, c.WeakAreas)
}

func TestNewAnalysisContext_BoundariesInclusive(t *testing.T) {
	in := validContext()
	in.PronunciationScore = 0
	in.FluencyScore = 100
	in.RhythmScore = 0
	in.OverallScore = 100
	in.DifficultyLevel = 5
	in.StarsEarned = 3

	_, err := models.NewAnalysisContext(in)
	require.NoError(t, err)

	in.DifficultyLevel = 1
	in.StarsEarned = 0
	_, err = models.NewAnalysisContext(in)
	require.NoError(t, err)
}

func TestNewAnalysisContext_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *models.AnalysisContext)
		field   string
		message string
	}{
		{"pronunciation above range", func(c *models.AnalysisContext) { c.PronunciationScore = 101 },
			"pronunciation_score", "pronunciation_score debe estar entre 0 y 100"},
		{"fluency negative", func(c *models.AnalysisContext) { c.FluencyScore = -0.1 },
			"fluency_score", "fluency_score debe estar entre 0 y 100"},
		{"rhythm above range", func(c *models.AnalysisContext) { c.RhythmScore = 100.01 },
			"rhythm_score", "rhythm_score debe estar entre 0 y 100"},
		{"overall above range", func(c *models.AnalysisContext) { c.OverallScore = 150 },
			"overall_score", "overall_score debe estar entre 0 y 100"},
		{"difficulty zero", func(c *models.AnalysisContext) { c.DifficultyLevel = 0 },
			"difficulty_level", "difficulty_level debe estar entre 1 y 5"},
		{"difficulty six", func(c *models.AnalysisContext) { c.DifficultyLevel = 6 },
			"difficulty_level", "difficulty_level debe estar entre 1 y 5"},
		{"unknown exercise type", func(c *models.AnalysisContext) { c.ExerciseType = "foo" },
			"exercise_type", "exercise_type debe ser uno de: ['fonema', 'ritmo', 'entonacion']"},
		{"four stars", func(c *models.AnalysisContext) { c.StarsEarned = 4 },
			"stars_earned", "stars_earned debe estar entre 0 y 3"},
		{"negative attempt", func(c *models.AnalysisContext) { c.AttemptNumber = -2 },
			"attempt_number", "attempt_number debe ser mayor o igual a 1"},
		{"previous best above range", func(c *models.AnalysisContext) { c.PreviousBestScore = ptr(120.0) },
			"previous_best_score", "previous_best_score debe estar entre 0 y 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validContext()
			tt.mutate(&in)

			_, err := models.NewAnalysisContext(in)
			require.Error(t, err)

			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestNewAnalysisContext_ScoresCheckedBeforeOtherFields(t *testing.T) {
	in := validContext()
	in.OverallScore = 101
	in.DifficultyLevel = 0
	in.StarsEarned = 9

	_, err := models.NewAnalysisContext(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overall_score")
}

func TestNewAnalysisContext_NormalizesEnglishAlias(t *testing.T) {
	for alias, want := range map[string]models.ExerciseType{
		"phoneme":    models.ExercisePhoneme,
		"rhythm":     models.ExerciseRhythm,
		"intonation": models.ExerciseIntonation,
	} {
		in := validContext()
		in.ExerciseType = models.ExerciseType(alias)
		c, err := models.NewAnalysisContext(in)
		require.NoError(t, err, alias)
		assert.Equal(t, want, c.ExerciseType)
	}
}

func TestNewAnalysisContext_CopiesSlices(t *testing.T) {
	in := validContext()
	in.WeakAreas = []string{"/r/"}
	c, err := models.NewAnalysisContext(in)
	require.NoError(t, err)

	in.WeakAreas[0] = "changed"
	assert.Equal(t, "/r/", c.WeakAreas[0])
}

func TestScoreCategory(t *testing.T) {
	tests := []struct {
		score float64
		want  models.ScoreCategory
	}{
		{100, models.CategoryExcellent},
		{90, models.CategoryExcellent},
		{89.99, models.CategoryGreat},
		{85, models.CategoryGreat},
		{80, models.CategoryGreat},
		{70, models.CategoryGood},
		{69.9, models.CategoryNeedsPractice},
		{55, models.CategoryNeedsPractice},
		{50, models.CategoryNeedsPractice},
		{40, models.CategoryTryAgain},
		{0, models.CategoryTryAgain},
	}
	for _, tt := range tests {
		c := validContext()
		c.OverallScore = tt.score
		assert.Equal(t, tt.want, c.ScoreCategory(), "score %v", tt.score)
	}
}

func TestWeakestAspect(t *testing.T) {
	c := validContext()
	c.PronunciationScore, c.FluencyScore, c.RhythmScore = 40, 70, 60
	assert.Equal(t, models.AspectPronunciation, c.WeakestAspect())

	c.PronunciationScore, c.FluencyScore, c.RhythmScore = 80, 50, 60
	assert.Equal(t, models.AspectFluency, c.WeakestAspect())

	c.PronunciationScore, c.FluencyScore, c.RhythmScore = 80, 70, 10
	assert.Equal(t, models.AspectRhythm, c.WeakestAspect())
}

func TestWeakestAspect_TieBreakOrder(t *testing.T) {
	c := validContext()
	c.PronunciationScore, c.FluencyScore, c.RhythmScore = 40, 40, 40
	assert.Equal(t, models.AspectPronunciation, c.WeakestAspect())

	c.PronunciationScore, c.FluencyScore, c.RhythmScore = 90, 40, 40
	assert.Equal(t, models.AspectFluency, c.WeakestAspect())
}

func TestStrongestAspect(t *testing.T) {
	c := validContext()
	assert.Equal(t, models.AspectRhythm, c.StrongestAspect())

	c.PronunciationScore, c.FluencyScore, c.RhythmScore = 75, 75, 75
	assert.Equal(t, models.AspectPronunciation, c.StrongestAspect())

	c.PronunciationScore, c.FluencyScore, c.RhythmScore = 10, 75, 75
	assert.Equal(t, models.AspectFluency, c.StrongestAspect())
}

func TestHasImproved(t *testing.T) {
	c := validContext()
	c.OverallScore = 85.2
	c.PreviousBestScore = ptr(78.0)
	assert.True(t, c.HasImproved())

	c.PreviousBestScore = ptr(85.2)
	assert.False(t, c.HasImproved(), "equal score is not an improvement")

	c.PreviousBestScore = nil
	c.OverallScore = 100
	assert.False(t, c.HasImproved())
}

func TestParseExerciseType(t *testing.T) {
	got, ok := models.ParseExerciseType("entonacion")
	assert.True(t, ok)
	assert.Equal(t, models.ExerciseIntonation, got)

	_, ok = models.ParseExerciseType("Fonema")
	assert.False(t, ok)
}

func TestGenerationError_Unwrap(t *testing.T) {
	inner := &models.FilteredError{FinishReason: "RECITATION"}
	err := &models.GenerationError{FinishReason: "RECITATION", Err: inner}

	var filtered *models.FilteredError
	require.True(t, errors.As(err, &filtered))
	assert.Contains(t, err.Error(), "RECITATION")
}
