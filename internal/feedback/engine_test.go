package feedback

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

func newContext(t *testing.T, mutate func(c *models.AnalysisContext)) models.AnalysisContext {
	t.Helper()
	in := models.AnalysisContext{
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
	if mutate != nil {
		mutate(&in)
	}
	c, err := models.NewAnalysisContext(in)
	require.NoError(t, err)
	return c
}

func fixedEngine() *Engine {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Engine{now: func() time.Time { return at }}
}

func TestDecide_PassedScenario(t *testing.T) {
	c := newContext(t, nil)
	fb := NewEngine().Decide(c)

	assert.Equal(t, models.TonePositive, fb.Tone)
	require.NotNil(t, fb.Celebration)
	assert.Equal(t, "¡Desbloqueaste el siguiente nivel! 🎉", *fb.Celebration)
	assert.Len(t, fb.Strengths, 2)
	assert.Equal(t, []string{"Puedes seguir mejorando con más práctica"}, fb.AreasToImprove)
	assert.Equal(t, "¡Muy bien! Completaste el ejercicio.", fb.MainMessage)
	assert.Equal(t, "Sigue practicando todos los días para mejorar aún más.", fb.SpecificTip)
	assert.Equal(t, "¡Sigue así! Vas por muy buen camino.", fb.Encouragement)
	assert.Equal(t, DeterministicModel, fb.ModelUsed)
	assert.Equal(t, time.UTC, fb.GeneratedAt.Location())
}

func TestDecide_NotPassedScenario(t *testing.T) {
	c := newContext(t, func(c *models.AnalysisContext) {
		c.PronunciationScore, c.FluencyScore, c.RhythmScore, c.OverallScore = 40, 70, 60, 55
		c.Passed = false
		c.UnlockedNext = false
		c.StarsEarned = 0
	})
	require.Equal(t, models.AspectPronunciation, c.WeakestAspect())

	fb := NewEngine().Decide(c)

	assert.Equal(t, models.ToneMotivational, fb.Tone)
	assert.Nil(t, fb.Celebration)
	require.Len(t, fb.AreasToImprove, 1)
	assert.Contains(t, fb.AreasToImprove[0], "pronunciar")
	assert.Contains(t, fb.SpecificTip, "despacio y claro")
	assert.Equal(t, []string{"Lo importante es que lo intentaste"}, fb.Strengths)
	assert.Equal(t, "¡Buen intento! Sigamos practicando.", fb.MainMessage)
	assert.Equal(t, "¡No te rindas! Cada intento te acerca más a lograrlo.", fb.Encouragement)
}

func TestDecide_PassedHighScores(t *testing.T) {
	for _, score := range []float64{80, 85, 89.99, 90, 95, 100} {
		for _, unlocked := range []bool{true, false} {
			c := newContext(t, func(c *models.AnalysisContext) {
				c.OverallScore = score
				c.UnlockedNext = unlocked
			})
			fb := NewEngine().Decide(c)

			assert.Equal(t, []string{"Hiciste un buen esfuerzo", "Tu pronunciación estuvo muy clara"}, fb.Strengths, "score %v", score)
			assert.Equal(t, unlocked, fb.Celebration != nil, "score %v unlocked %v", score, unlocked)
			if score >= 90 {
				assert.Empty(t, fb.AreasToImprove, "score %v", score)
				assert.NotNil(t, fb.AreasToImprove)
			} else {
				assert.Len(t, fb.AreasToImprove, 1, "score %v", score)
			}
		}
	}
}

func TestDecide_PassedBelowEighty(t *testing.T) {
	c := newContext(t, func(c *models.AnalysisContext) { c.OverallScore = 79.9 })
	fb := NewEngine().Decide(c)
	assert.Equal(t, []string{"Hiciste un buen esfuerzo"}, fb.Strengths)
}

func TestDecide_NotPassedBranchConsistency(t *testing.T) {
	tests := []struct {
		name              string
		p, f, r           float64
		wantArea, wantTip string
	}{
		{"pronunciation weakest", 30, 60, 60,
			"Necesitas trabajar la claridad al pronunciar", "Intenta pronunciar cada sonido más despacio y claro."},
		{"fluency weakest", 60, 30, 60,
			"Necesitas hablar más seguido, sin pausas largas", "Practica diciendo la frase completa de un solo golpe."},
		{"rhythm weakest", 60, 60, 30,
			"Necesitas trabajar el ritmo y la velocidad", "Intenta hablar ni muy rápido ni muy lento, busca un punto medio."},
		{"all tied", 40, 40, 40,
			"Necesitas trabajar la claridad al pronunciar", "Intenta pronunciar cada sonido más despacio y claro."},
		{"fluency and rhythm tied", 90, 40, 40,
			"Necesitas hablar más seguido, sin pausas largas", "Practica diciendo la frase completa de un solo golpe."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newContext(t, func(c *models.AnalysisContext) {
				c.PronunciationScore, c.FluencyScore, c.RhythmScore = tt.p, tt.f, tt.r
				c.OverallScore = 45
				c.Passed = false
				c.UnlockedNext = true
			})
			fb := NewEngine().Decide(c)

			assert.Nil(t, fb.Celebration, "no celebration when not passed, even if unlocked")
			assert.Equal(t, []string{tt.wantArea}, fb.AreasToImprove)
			assert.Equal(t, tt.wantTip, fb.SpecificTip)
		})
	}
}

func TestDecide_Deterministic(t *testing.T) {
	c := newContext(t, nil)
	e := fixedEngine()
	assert.Equal(t, e.Decide(c), e.Decide(c))
}

func TestDecide_NoPerUserInterpolation(t *testing.T) {
	c := newContext(t, func(c *models.AnalysisContext) {
		c.ExerciseContent = "UNIQUE-CONTENT"
		c.ReferenceText = "UNIQUE-REFERENCE"
	})
	fb := NewEngine().Decide(c)

	all := strings.Join(append(append([]string{fb.MainMessage, fb.SpecificTip, fb.Encouragement}, fb.Strengths...), fb.AreasToImprove...), " ")
	assert.NotContains(t, all, "UNIQUE")
	assert.NotContains(t, all, "85")
}
