package app

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"quiz-api/internal/domain"
)

const (
	tagChoicesRequired       = "choices_required"
	tagCorrectAnswerRequired = "correct_answer_required"
)

// Validator checks domain documents before they reach a store.
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the quiz/question rules.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterStructValidation(questionTypeRules, domain.Question{})
	return &Validator{validate: v}
}

// questionTypeRules enforces the sub-fields each question type needs.
func questionTypeRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.Question)
	switch q.Type {
	case domain.QuestionTypeMultipleChoice:
		if len(q.Choices) == 0 {
			sl.ReportError(q.Choices, "choices", "Choices", tagChoicesRequired, "")
		}
	case domain.QuestionTypeFreeText:
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", tagCorrectAnswerRequired, "")
		}
	}
}

// Quiz validates a quiz document.
func (v *Validator) Quiz(quiz domain.Quiz) error {
	return v.check(quiz)
}

// Question validates a question document.
func (v *Validator) Question(question domain.Question) error {
	return v.check(question)
}

func (v *Validator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return domain.NewValidationError(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "gte":
		return field + " must not be negative"
	case tagChoicesRequired:
		return "choices array is required for multiple-choice questions"
	case tagCorrectAnswerRequired:
		return "correctAnswer is required for free-text questions"
	default:
		return field + " is invalid"
	}
}
