package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// languageCodePattern accepts ISO 639-1 codes with an optional region, e.g. "es", "en", "pt-BR".
var languageCodePattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2,4})?$`)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("langcode", isLanguageCode); err != nil {
		return nil, nil, fmt.Errorf("failed to register langcode validation: %w", err)
	}
	if err := validate.RegisterTranslation("langcode", trans, func(ut ut.Translator) error {
		return ut.Add("langcode", "{0} must be a language code such as es or pt-BR", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("langcode", strings.TrimPrefix(fe.Namespace(), "Config."))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register langcode translation: %w", err)
	}

	return validate, trans, nil
}

func isLanguageCode(fl validator.FieldLevel) bool {
	return languageCodePattern.MatchString(fl.Field().String())
}
