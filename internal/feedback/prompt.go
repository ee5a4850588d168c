package feedback

import (
	"fmt"
	"strings"

	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// SystemPrompt instructs the completion provider on output shape and style.
const SystemPrompt = `Eres un asistente de terapia de habla para personas de 19 a 55 años.
Genera feedback motivador y específico sobre ejercicios de pronunciación.

Responde SOLO con un objeto JSON válido en este formato:
{
  "main_message": "mensaje motivacional breve",
  "strengths": ["fortaleza 1", "fortaleza 2"],
  "areas_to_improve": ["área a mejorar"],
  "specific_tip": "tip práctico y fácil de seguir",
  "celebration": "mensaje si pasó el ejercicio, o null si no pasó",
  "encouragement": "mensaje final de ánimo"
}

Reglas:
- Empieza siempre con algo positivo
- Sé específico (menciona pronunciación, fluidez o ritmo)
- Usa lenguaje simple y no técnico.
- Da UN tip concreto y accionable
- Si score >= 70: celebra el logro
- NO uses términos técnicos`

var exerciseTypeLabels = map[string]string{
	string(models.ExercisePhoneme):    "Práctica de sonidos (fonemas)",
	string(models.ExerciseRhythm):     "Práctica de ritmo y velocidad",
	string(models.ExerciseIntonation): "Práctica de entonación",
}

var aspectLabels = map[models.Aspect]string{
	models.AspectPronunciation: "Pronunciación",
	models.AspectFluency:       "Fluidez",
	models.AspectRhythm:        "Ritmo",
}

// ExerciseTypeLabel returns the display label for an exercise type.
// Unknown values are returned unchanged.
func ExerciseTypeLabel(t string) string {
	if label, ok := exerciseTypeLabels[t]; ok {
		return label
	}
	return t
}

// AspectLabel returns the display label for an aspect.
func AspectLabel(a models.Aspect) string {
	if label, ok := aspectLabels[a]; ok {
		return label
	}
	return string(a)
}

// BuildUserPrompt renders the per-attempt prompt sent with SystemPrompt.
func BuildUserPrompt(c models.AnalysisContext) string {
	result := "❌ No pasó (necesita 70+)"
	if c.Passed {
		result = "✅ PASÓ (necesitaba 70+)"
	}
	unlock := ""
	if c.UnlockedNext {
		unlock = "🎉 Desbloqueó el siguiente nivel"
	}

	prompt := fmt.Sprintf(`Ejercicio: %s
Tipo: %s
Texto de referencia: "%s"

Scores obtenidos:
- Pronunciación: %.0f/100
- Fluidez: %.0f/100
- Ritmo: %.0f/100
- Score general: %.0f/100

Resultado: %s
%s

Genera feedback motivador en JSON.`,
		c.ExerciseContent,
		ExerciseTypeLabel(string(c.ExerciseType)),
		c.ReferenceText,
		c.PronunciationScore,
		c.FluencyScore,
		c.RhythmScore,
		c.OverallScore,
		result,
		unlock,
	)

	return strings.TrimSpace(prompt)
}

// BuildDetailedPrompt extends BuildUserPrompt with the per-aspect score
// analysis and the progression summary.
func BuildDetailedPrompt(c models.AnalysisContext) string {
	return BuildUserPrompt(c) + "\n\n" + ScoreAnalysis(c) + "\n\n" + ProgressionSummary(c)
}

type band struct {
	min  float64
	text string
}

var aspectBands = map[models.Aspect][]band{
	models.AspectPronunciation: {
		{85, "✅ Pronunciación EXCELENTE - Muy claro y preciso"},
		{75, "✅ Pronunciación BUENA - Claro con algunos detalles a pulir"},
		{65, "⚠️ Pronunciación REGULAR - Necesita practicar claridad"},
		{50, "⚠️ Pronunciación BAJA - Requiere más práctica en sonidos específicos"},
		{0, "❌ Pronunciación MUY BAJA - Enfócate en pronunciar cada sonido despacio"},
	},
	models.AspectFluency: {
		{85, "✅ Fluidez EXCELENTE - Habla muy natural y continua"},
		{75, "✅ Fluidez BUENA - Habla bastante seguido con pocas pausas"},
		{65, "⚠️ Fluidez REGULAR - Hay algunas pausas o cortes"},
		{50, "⚠️ Fluidez BAJA - Muchas pausas, necesita practicar continuidad"},
		{0, "❌ Fluidez MUY BAJA - Habla muy cortado, practica decirlo de corrido"},
	},
	models.AspectRhythm: {
		{85, "✅ Ritmo EXCELENTE - Muy natural y con buena cadencia"},
		{75, "✅ Ritmo BUENO - Natural con algunos detalles menores"},
		{65, "⚠️ Ritmo REGULAR - Necesita trabajar la velocidad o musicalidad"},
		{50, "⚠️ Ritmo BAJO - Muy lento o muy rápido, busca el punto medio"},
		{0, "❌ Ritmo MUY BAJO - Practica la velocidad y el tono"},
	},
}

// ScoreAnalysis describes each aspect score in words.
func ScoreAnalysis(c models.AnalysisContext) string {
	lines := []string{"ANÁLISIS DE SCORES:"}
	scores := []struct {
		aspect models.Aspect
		score  float64
	}{
		{models.AspectPronunciation, c.PronunciationScore},
		{models.AspectFluency, c.FluencyScore},
		{models.AspectRhythm, c.RhythmScore},
	}
	for _, s := range scores {
		for _, b := range aspectBands[s.aspect] {
			if s.score >= b.min {
				lines = append(lines, "- "+b.text)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// ProgressionSummary describes pass state, stars and unlocks.
func ProgressionSummary(c models.AnalysisContext) string {
	lines := []string{"PROGRESIÓN:"}
	if c.Passed {
		lines = append(lines,
			"- ✅ ¡PASÓ EL EJERCICIO! (necesitaba 70+)",
			fmt.Sprintf("- Estrellas ganadas: %d ⭐", c.StarsEarned),
		)
		if c.UnlockedNext {
			lines = append(lines, "- 🎉 ¡Desbloqueó el siguiente nivel!")
		}
	} else {
		lines = append(lines,
			fmt.Sprintf("- ❌ No pasó todavía (necesita 70+, obtuvo %.1f)", c.OverallScore),
			fmt.Sprintf("- Estrellas: %d ⭐", c.StarsEarned),
			"- Intenta de nuevo para desbloquear el siguiente",
		)
	}
	return strings.Join(lines, "\n")
}
