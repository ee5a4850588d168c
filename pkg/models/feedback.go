package models

import "time"

// Tone is the emotional register of a piece of feedback.
type Tone string

const (
	TonePositive     Tone = "positive"
	ToneEncouraging  Tone = "encouraging"
	ToneMotivational Tone = "motivational"
)

// Feedback is the generated response for one attempt.
type Feedback struct {
	MainMessage    string    `json:"main_message"`
	Strengths      []string  `json:"strengths"`
	AreasToImprove []string  `json:"areas_to_improve"`
	SpecificTip    string    `json:"specific_tip"`
	Celebration    *string   `json:"celebration"`
	Encouragement  string    `json:"encouragement"`
	Tone           Tone      `json:"tone"`
	GeneratedAt    time.Time `json:"-"`
	ModelUsed      string    `json:"-"`
}
