package upload

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/planmarket/planmarket/internal/catalog"
	"github.com/shopspring/decimal"
)

type Step int

const (
	StepBasicInfo Step = iota
	StepSpecifications
	StepDisciplines
	StepFiles
	StepExtras
	StepPricing
	StepCompliance
	StepReview
)

const stepCount = int(StepReview) + 1

var stepNames = [...]string{
	"basic info",
	"specifications",
	"disciplines",
	"files",
	"boq and extras",
	"pricing",
	"compliance",
	"review",
}

func (s Step) String() string {
	if s < 0 || int(s) >= stepCount {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

var (
	ErrLastStep     = errors.New("already at the review step")
	ErrFirstStep    = errors.New("already at the first step")
	ErrStepNotKnown = errors.New("step has not been reached yet")
)

// StepError lists the fields that failed validation on one step.
type StepError struct {
	Step   Step
	Fields []string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: missing or invalid %s", e.Step, strings.Join(e.Fields, ", "))
}

// Wizard walks a Draft through the eight steps. Moving forward validates only
// the current step.
type Wizard struct {
	Draft *Draft

	step     Step
	furthest Step
	validate *validator.Validate
}

func NewWizard(d *Draft) *Wizard {
	if d == nil {
		d = &Draft{}
	}
	return &Wizard{Draft: d, validate: newValidator()}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		d := sl.Current().Interface().(catalog.Disciplines)
		if len(d.Enabled()) == 0 {
			sl.ReportError(d.Architectural, "disciplines", "Disciplines", "min_one", "")
		}
	}, catalog.Disciplines{})
	return v
}

func (w *Wizard) Step() Step     { return w.step }
func (w *Wizard) Furthest() Step { return w.furthest }

// ValidateStep checks the section that belongs to s.
func (w *Wizard) ValidateStep(s Step) error {
	var section interface{}
	switch s {
	case StepBasicInfo:
		section = w.Draft.Basic
	case StepSpecifications:
		section = w.Draft.Specs
	case StepDisciplines:
		section = w.Draft.Disciplines
	case StepFiles:
		section = w.Draft.Files
	case StepExtras:
		section = w.Draft.Extras
	case StepPricing:
		section = w.Draft.Pricing
	case StepCompliance:
		section = w.Draft.Compliance
	case StepReview:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrStepNotKnown, s)
	}

	err := w.validate.Struct(section)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldPath(fe))
	}
	return &StepError{Step: s, Fields: fields}
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Next validates the current step and advances.
func (w *Wizard) Next() error {
	if w.step == StepReview {
		return ErrLastStep
	}
	if err := w.ValidateStep(w.step); err != nil {
		return err
	}
	w.step++
	if w.step > w.furthest {
		w.furthest = w.step
	}
	return nil
}

func (w *Wizard) Back() error {
	if w.step == StepBasicInfo {
		return ErrFirstStep
	}
	w.step--
	return nil
}

// GoTo jumps to a step that has already been visited.
func (w *Wizard) GoTo(s Step) error {
	if s < 0 || s > w.furthest {
		return fmt.Errorf("%w: %s", ErrStepNotKnown, s)
	}
	w.step = s
	return nil
}

// Complete runs every step's validation in order and stops at the first
// failure. It is what the review step checks before submitting.
func (w *Wizard) Complete() error {
	for s := StepBasicInfo; s <= StepReview; s++ {
		if err := w.ValidateStep(s); err != nil {
			return err
		}
	}
	return nil
}
