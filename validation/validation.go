// Package validation checks request payloads and reports field violations.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
)

// Violations maps a field name to a human readable message.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

var (
	passwordTag = "password"
	passwordMin = 8

	customTexts = map[string]map[string]string{
		"en": {passwordTag: "{0} must be at least 8 characters and mix letters and digits"},
		"fr": {passwordTag: "{0} doit contenir au moins 8 caractères, lettres et chiffres"},
	}

	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Validator validates structs and translates failures to en or fr.
type Validator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
}

// New returns a validator with the en and fr translations registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_en, _fr := en.New(), fr.New()
	uni := ut.New(_fr, _fr, _en)

	enT, _ := uni.GetTranslator("en")
	frT, _ := uni.GetTranslator("fr")
	_ = en_translations.RegisterDefaultTranslations(validate, enT)
	_ = fr_translations.RegisterDefaultTranslations(validate, frT)

	// Use JSON (or form) tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = validate.RegisterValidation(passwordTag, passwordValidation)
	for lang, t := range map[string]ut.Translator{"en": enT, "fr": frT} {
		registerCustomTranslation(validate, t, passwordTag, customTexts[lang][passwordTag])
	}

	return &Validator{validate: validate, uni: uni}
}

// registerCustomTranslation registers a translation for a custom validation tag.
func registerCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s and returns its violations in lang, or nil when s is valid.
// Unknown languages use French.
func (v *Validator) Struct(lang string, s any) Violations {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return Violations{"_": err.Error()}
	}
	t, _ := v.uni.FindTranslator(lang, "fr")
	out := make(Violations, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fe.Translate(t)
	}
	return out
}

// Email reports whether s looks like an email address.
func Email(field, value string, v Violations) {
	if !emailRegex.MatchString(strings.TrimSpace(value)) {
		v[field] = "invalid_email"
	}
}

// passwordValidation requires a minimum length and both letters and digits.
func passwordValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len([]rune(s)) < passwordMin {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}
