package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	mw "github.com/vocalis/llm-feedback-service/internal/api/middleware"
	"github.com/vocalis/llm-feedback-service/internal/api/response"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// maxBodyBytes bounds POST /feedback/generate bodies.
const maxBodyBytes = 1 << 20

// Generator defines the interface the handler depends on.
type Generator interface {
	Generate(ctx context.Context, c models.AnalysisContext) (models.Feedback, error)
}

// GenerateRequest is the POST /feedback/generate body. Pointer fields tell a
// missing value apart from a zero one.
type GenerateRequest struct {
	AttemptID  *string `json:"attempt_id" validate:"required"`
	UserID     *string `json:"user_id" validate:"required"`
	ExerciseID *string `json:"exercise_id" validate:"required"`

	PronunciationScore *float64 `json:"pronunciation_score" validate:"required"`
	FluencyScore       *float64 `json:"fluency_score" validate:"required"`
	RhythmScore        *float64 `json:"rhythm_score" validate:"required"`
	OverallScore       *float64 `json:"overall_score" validate:"required"`

	ExerciseType    *string `json:"exercise_type" validate:"required"`
	ExerciseContent *string `json:"exercise_content" validate:"required"`
	DifficultyLevel *int    `json:"difficulty_level" validate:"required"`
	ReferenceText   *string `json:"reference_text" validate:"required"`

	UserAge       *int `json:"user_age"`
	AttemptNumber *int `json:"attempt_number"`

	Passed       *bool `json:"passed" validate:"required"`
	StarsEarned  *int  `json:"stars_earned" validate:"required"`
	UnlockedNext *bool `json:"unlocked_next" validate:"required"`

	PreviousBestScore *float64 `json:"previous_best_score"`
	WeakAreas         []string `json:"weak_areas"`
	StrongAreas       []string `json:"strong_areas"`
}

// Validate checks that every required field is present. The error is a
// *models.ValidationError naming the first missing field.
func (req GenerateRequest) Validate() error {
	if err := validate.Struct(req); err != nil {
		var field string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field = verrs[0].Field()
		}
		return &models.ValidationError{Field: field, Message: validationMessage(err)}
	}
	return nil
}

// AnalysisContext converts a validated request into the domain value. Only
// call it after the required fields were checked.
func (req GenerateRequest) AnalysisContext() (models.AnalysisContext, error) {
	c := models.AnalysisContext{
		AttemptID:          *req.AttemptID,
		UserID:             *req.UserID,
		ExerciseID:         *req.ExerciseID,
		PronunciationScore: *req.PronunciationScore,
		FluencyScore:       *req.FluencyScore,
		RhythmScore:        *req.RhythmScore,
		OverallScore:       *req.OverallScore,
		ExerciseType:       models.ExerciseType(*req.ExerciseType),
		ExerciseContent:    *req.ExerciseContent,
		DifficultyLevel:    *req.DifficultyLevel,
		ReferenceText:      *req.ReferenceText,
		UserAge:            req.UserAge,
		AttemptNumber:      1,
		Passed:             *req.Passed,
		StarsEarned:        *req.StarsEarned,
		UnlockedNext:       *req.UnlockedNext,
		PreviousBestScore:  req.PreviousBestScore,
		WeakAreas:          req.WeakAreas,
		StrongAreas:        req.StrongAreas,
	}
	if req.AttemptNumber != nil {
		if *req.AttemptNumber < 1 {
			return models.AnalysisContext{}, &models.ValidationError{
				Field:   "attempt_number",
				Message: "attempt_number debe ser mayor o igual a 1",
			}
		}
		c.AttemptNumber = *req.AttemptNumber
	}
	return models.NewAnalysisContext(c)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// feedbackResponse is the public shape of models.Feedback.
type feedbackResponse struct {
	MainMessage    string   `json:"main_message"`
	Strengths      []string `json:"strengths"`
	AreasToImprove []string `json:"areas_to_improve"`
	SpecificTip    string   `json:"specific_tip"`
	Celebration    *string  `json:"celebration"`
	Encouragement  string   `json:"encouragement"`
	Tone           string   `json:"tone"`
}

func toFeedbackResponse(f models.Feedback) feedbackResponse {
	areas := f.AreasToImprove
	if areas == nil {
		areas = []string{}
	}
	return feedbackResponse{
		MainMessage:    f.MainMessage,
		Strengths:      f.Strengths,
		AreasToImprove: areas,
		SpecificTip:    f.SpecificTip,
		Celebration:    f.Celebration,
		Encouragement:  f.Encouragement,
		Tone:           string(f.Tone),
	}
}

// NewGenerateHandler returns an http.HandlerFunc for POST /feedback/generate.
func NewGenerateHandler(gen Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.CodeInvalid, "Invalid JSON body")
			return
		}

		if err := req.Validate(); err != nil {
			response.Error(w, http.StatusBadRequest, response.CodeValidation, err.Error())
			return
		}

		actx, err := req.AnalysisContext()
		if err != nil {
			var vErr *models.ValidationError
			if errors.As(err, &vErr) {
				response.Error(w, http.StatusBadRequest, response.CodeValidation, vErr.Message)
				return
			}
			response.Error(w, http.StatusBadRequest, response.CodeInvalid, err.Error())
			return
		}

		fb, err := gen.Generate(r.Context(), actx)
		if err != nil {
			slog.Error("feedback generation failed",
				"request_id", mw.GetRequestID(r),
				"attempt_id", actx.AttemptID,
				"error", err,
			)
			response.Error(w, http.StatusInternalServerError, response.CodeInternal,
				fmt.Sprintf("Error generando feedback: %v", err))
			return
		}

		slog.Info("feedback generated",
			"request_id", mw.GetRequestID(r),
			"attempt_id", actx.AttemptID,
			"user_id", actx.UserID,
			"tone", string(fb.Tone),
			"model", fb.ModelUsed,
		)
		response.JSON(w, toFeedbackResponse(fb))
	}
}

// validationMessage reports the first failing field.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return fe.Field() + " es obligatorio"
		}
		return fmt.Sprintf("%s no es válido", fe.Field())
	}
	return err.Error()
}
