// Package validation holds the task input rules shared by the CLI form, the
// client-side collection and the backend.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/models"
)

// ErrValidationFailed is matched by every Errors value.
var ErrValidationFailed = errors.New("validation failed")

// Errors maps a field's JSON name to a human-readable message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == ErrValidationFailed
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
	// An empty category is allowed; it falls back to the default.
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return name == "" || models.IsKnownCategory(name)
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return models.Priority(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return models.TaskStatus(fl.Field().String()).Valid()
	})
	return v
}

type requiredFields struct {
	Title   string `json:"title" validate:"required"`
	DueDate string `json:"due_date" validate:"required"`
}

type taskFields struct {
	Title       string `json:"title" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=500"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
	Priority    string `json:"priority" validate:"priority"`
	Category    string `json:"category" validate:"category"`
}

type updateFields struct {
	Title       *string `json:"title" validate:"omitnil,min=2,max=100"`
	Description *string `json:"description" validate:"omitnil,max=500"`
	DueDate     *string `json:"due_date" validate:"omitnil,datetime=2006-01-02"`
	Priority    *string `json:"priority" validate:"omitnil,priority"`
	Category    *string `json:"category" validate:"omitnil,category"`
	Status      *string `json:"status" validate:"omitnil,status"`
}

// Required checks what every insert needs: a title and a due date.
func Required(d dto.CreateTaskDTO) error {
	return check(requiredFields{
		Title:   strings.TrimSpace(d.Title),
		DueDate: strings.TrimSpace(d.DueDate),
	})
}

// Task checks field formats and enums of a new task without looking at the calendar.
func Task(d dto.CreateTaskDTO) error {
	return check(taskFields{
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		DueDate:     d.DueDate,
		Priority:    string(d.Priority),
		Category:    d.Category,
	})
}

// Form runs the full form rules, including that the due date is not before today.
func Form(d dto.CreateTaskDTO, today time.Time) error {
	errs := Errors{}
	if err := Task(d); err != nil {
		var fieldErrs Errors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		errs = fieldErrs
	}
	if _, bad := errs["due_date"]; !bad {
		if msg := notInPast(d.DueDate, today); msg != "" {
			errs["due_date"] = msg
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Update checks only the fields the partial update sets.
func Update(u dto.UpdateTaskDTO) error {
	f := updateFields{
		Description: u.Description,
		DueDate:     u.DueDate,
		Category:    u.Category,
	}
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		f.Title = &t
	}
	if u.Priority != nil {
		p := string(*u.Priority)
		f.Priority = &p
	}
	if u.Status != nil {
		s := string(*u.Status)
		f.Status = &s
	}
	return check(f)
}

// ParseDate parses a YYYY-MM-DD due date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(constants.DateLayout, s, loc)
}

func notInPast(due string, today time.Time) string {
	d, err := ParseDate(due, today.Location())
	if err != nil {
		return "must be a date in YYYY-MM-DD format"
	}
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if d.Before(midnight) {
		return "must not be in the past"
	}
	return ""
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	errs := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		errs[fe.Field()] = message(fe)
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "priority":
		return "must be one of Low, Medium, High"
	case "category":
		return "must be one of " + strings.Join(models.Categories, ", ")
	case "status":
		return "must be open or completed"
	default:
		return "is invalid"
	}
}
