// Package feedback turns a validated AnalysisContext into Feedback, either
// through the deterministic rule table or an external completion provider.
package feedback

import (
	"time"

	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// DeterministicModel labels feedback produced by Engine.
const DeterministicModel = "deterministic-fallback"

// Passed-branch vocabulary.
const (
	passedMessage        = "¡Muy bien! Completaste el ejercicio."
	passedEffort         = "Hiciste un buen esfuerzo"
	passedPronunciation  = "Tu pronunciación estuvo muy clara"
	passedKeepPracticing = "Puedes seguir mejorando con más práctica"
	passedTip            = "Sigue practicando todos los días para mejorar aún más."
	passedCelebration    = "¡Desbloqueaste el siguiente nivel! 🎉"
	passedEncouragement  = "¡Sigue así! Vas por muy buen camino."
)

// Retry-branch vocabulary.
const (
	retryMessage       = "¡Buen intento! Sigamos practicando."
	retryEffort        = "Lo importante es que lo intentaste"
	retryEncouragement = "¡No te rindas! Cada intento te acerca más a lograrlo."
)

type aspectAdvice struct {
	improvement string
	tip         string
}

var adviceByAspect = map[models.Aspect]aspectAdvice{
	models.AspectPronunciation: {
		improvement: "Necesitas trabajar la claridad al pronunciar",
		tip:         "Intenta pronunciar cada sonido más despacio y claro.",
	},
	models.AspectFluency: {
		improvement: "Necesitas hablar más seguido, sin pausas largas",
		tip:         "Practica diciendo la frase completa de un solo golpe.",
	},
	models.AspectRhythm: {
		improvement: "Necesitas trabajar el ritmo y la velocidad",
		tip:         "Intenta hablar ni muy rápido ni muy lento, busca un punto medio.",
	},
}

// Engine maps an AnalysisContext to Feedback with a fixed rule table.
// It is pure apart from the GeneratedAt timestamp and safe for concurrent use.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an Engine stamping feedback with the current UTC time.
func NewEngine() *Engine {
	return &Engine{now: func() time.Time { return time.Now().UTC() }}
}

// Decide never fails for a context built by models.NewAnalysisContext.
func (e *Engine) Decide(c models.AnalysisContext) models.Feedback {
	var fb models.Feedback
	if c.Passed {
		fb = decidePassed(c)
	} else {
		fb = decideRetry(c)
	}
	fb.GeneratedAt = e.now()
	fb.ModelUsed = DeterministicModel
	return fb
}

func decidePassed(c models.AnalysisContext) models.Feedback {
	strengths := []string{passedEffort}
	if c.OverallScore >= 80 {
		strengths = append(strengths, passedPronunciation)
	}

	areas := []string{}
	if c.OverallScore < 90 {
		areas = append(areas, passedKeepPracticing)
	}

	var celebration *string
	if c.UnlockedNext {
		s := passedCelebration
		celebration = &s
	}

	return models.Feedback{
		MainMessage:    passedMessage,
		Strengths:      strengths,
		AreasToImprove: areas,
		SpecificTip:    passedTip,
		Celebration:    celebration,
		Encouragement:  passedEncouragement,
		Tone:           models.TonePositive,
	}
}

func decideRetry(c models.AnalysisContext) models.Feedback {
	advice := adviceByAspect[c.WeakestAspect()]
	return models.Feedback{
		MainMessage:    retryMessage,
		Strengths:      []string{retryEffort},
		AreasToImprove: []string{advice.improvement},
		SpecificTip:    advice.tip,
		Encouragement:  retryEncouragement,
		Tone:           models.ToneMotivational,
	}
}
