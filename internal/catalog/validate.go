package catalog

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateQuestion, QuizQuestion{})
	return v
}

func validateQuestion(sl validator.StructLevel) {
	q := sl.Current().Interface().(QuizQuestion)
	if q.Correct >= len(q.Options) {
		sl.ReportError(q.Correct, "Correct", "correct", "correct_in_options", "")
	}
}

func validateModule(m Module) error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid module: %s", strings.Join(msgs, "; "))
}
