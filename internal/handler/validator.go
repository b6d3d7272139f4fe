package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/seating"
)

const (
	notBlankTag   = "notblank"
	policyTag     = "seating_policy"
	directionTag  = "seating_direction"
	dateTag       = "iso_date"
	clockTag      = "clock"
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04:05"
	clockLayoutHM = "15:04"
)

// Validator adapts go-playground/validator to echo.Validator.  Field names
// in messages are the JSON names.
type Validator struct {
	v     *validator.Validate
	trans ut.Translator
}

func NewValidator() *Validator {
	v := validator.New()
	_en := en.New()
	trans, _ := ut.New(_en, _en).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation(policyTag, func(fl validator.FieldLevel) bool {
		_, err := seating.ParsePolicy(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation(directionTag, func(fl validator.FieldLevel) bool {
		_, err := seating.ParseDirection(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation(dateTag, func(fl validator.FieldLevel) bool {
		_, err := parseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation(clockTag, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || normaliseClock(s) != ""
	})

	messages := map[string]string{
		notBlankTag:  "{0} cannot be blank",
		policyTag:    "{0} must be sequential, random or custom",
		directionTag: "{0} must be horizontal or vertical",
		dateTag:      "{0} must be a date in YYYY-MM-DD format",
		clockTag:     "{0} must be a time in HH:MM or HH:MM:SS format",
	}
	for tag, msg := range messages {
		_ = v.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error { return ut.Add(tag, msg, true) },
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(fe.Tag(), fe.Field())
				return t
			})
	}
	return &Validator{v: v, trans: trans}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i any) error { return cv.v.Struct(i) }

// Fields translates validation errors to a field -> message map.
func (cv *Validator) Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Translate(cv.trans)
	}
	return out
}

// bindValid binds the request body into dst and validates it.  On failure
// it has already written the 400 response and returns false.
func bindValid(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return validateReq(c, dst)
}

// validateReq validates an already bound request, writing the 400 response
// on failure.
func validateReq(c echo.Context, dst any) (bool, error) {
	if err := c.Validate(dst); err != nil {
		resp := echo.Map{"error": "validation failed"}
		if cv, ok := c.Echo().Validator.(*Validator); ok {
			if fields := cv.Fields(err); fields != nil {
				resp["fields"] = fields
			}
		}
		return false, c.JSON(http.StatusBadRequest, resp)
	}
	return true, nil
}
