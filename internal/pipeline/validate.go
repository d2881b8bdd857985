package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report YAML keys rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterStructValidation(validateDefinition, Definition{})
	return v
}

// validateDefinition checks rules that span fields: at least one trigger,
// stages that never move backwards along the step list, and step names
// that stay distinct once slugged.
func validateDefinition(sl validator.StructLevel) {
	def, ok := sl.Current().Interface().(Definition)
	if !ok {
		return
	}

	if def.On.Push == nil && def.On.PullRequest == nil {
		sl.ReportError(def.On, "on", "On", "trigger", "")
	}

	highest := -1
	var highestStage Stage
	for i, step := range def.Steps {
		idx := step.Stage.Index()
		if idx < 0 {
			continue
		}
		if idx < highest {
			sl.ReportError(step.Stage, fmt.Sprintf("steps[%d].stage", i), "Stage", "stage_order", string(highestStage))
			continue
		}
		highest = idx
		highestStage = step.Stage
	}

	slugs := make(map[string]string, len(def.Steps))
	for i, step := range def.Steps {
		if step.Name == "" {
			continue
		}
		slug := Slug(step.Name)
		if first, ok := slugs[slug]; ok && first != step.Name {
			sl.ReportError(step.Name, fmt.Sprintf("steps[%d].name", i), "Name", "slug", first)
			continue
		}
		if _, ok := slugs[slug]; !ok {
			slugs[slug] = step.Name
		}
	}
}

// Validate reports every rule the definition breaks, joined into one error
// wrapping ErrInvalidDefinition.
func (d *Definition) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "min":
		return fmt.Sprintf("%s needs at least %s entry", path, fe.Param())
	case "unique":
		return fmt.Sprintf("%s must have unique names", path)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s, got %q", path, fe.Param(), fe.Value())
	case "trigger":
		return "on must declare push or pull_request"
	case "slug":
		return fmt.Sprintf("%s %q collides with step %q", path, fe.Value(), fe.Param())
	case "stage_order":
		return fmt.Sprintf("%s %q runs after stage %q", path, fe.Value(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", path, fe.Tag())
}
