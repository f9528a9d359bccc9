package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"taskapp/internal/core/domain"
)

// Validator adapts go-playground/validator to port.Validator. Field names in
// reported errors follow the json tag of the struct field.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]

		if name == "-" || name == "" {
			return strings.ToLower(field.Name)
		}

		return name
	})

	english := en.New()
	uni := ut.New(english, english)

	translator, found := uni.GetTranslator("en")

	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	v := &Validator{validate: validate, translator: translator}
	v.addCustomTranslations()

	return v
}

func (v *Validator) addCustomTranslations() {
	v.register("required", "{0} may not be blank", false)
	v.register("max", "{0} must be at most {1} characters", true)
	v.register("email", "{0} must be a valid email address", false)
}

func (v *Validator) register(tag, text string, withParam bool) {
	v.validate.RegisterTranslation(tag, v.translator, func(ut ut.Translator) error {
		return ut.Add(tag, text, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		params := []string{fe.Field()}

		if withParam {
			params = append(params, fe.Param())
		}

		t, _ := ut.T(tag, params...)
		return t
	})
}

// Validate returns nil or a *domain.ValidationError listing every failed field.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)

	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors

	if !errors.As(err, &fieldErrors) {
		return err
	}

	result := &domain.ValidationError{}

	for _, fe := range fieldErrors {
		result.Add(fe.Field(), fe.Translate(v.translator))
	}

	return result
}
