package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
)

// Countries the store ships to.
var allowedCountries = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"GB": "United Kingdom",
}

var (
	nameRegex       = regexp.MustCompile(`^[\p{L}][\p{L}' .-]*$`)
	postalCodeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{2,9}$`)
)

func Init() {
	validate = validator.New()

	sanitizer = bluemonday.StrictPolicy()

	registerCustomValidations(validate)

	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerCustomValidations(engine)
	}
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("person_name", validatePersonName)
	v.RegisterValidation("postal_code", validatePostalCode)
	v.RegisterValidation("country_code", validateCountryCode)
}

func validatePersonName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	if name == "" || len(name) > 100 {
		return false
	}
	return nameRegex.MatchString(name)
}

func validatePostalCode(fl validator.FieldLevel) bool {
	return postalCodeRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}

func validateCountryCode(fl validator.FieldLevel) bool {
	_, ok := allowedCountries[strings.ToUpper(strings.TrimSpace(fl.Field().String()))]
	return ok
}

// AllowedCountries returns the country codes the store ships to.
func AllowedCountries() []string {
	codes := make([]string, 0, len(allowedCountries))
	for code := range allowedCountries {
		codes = append(codes, code)
	}
	return codes
}

// Validate runs struct-tag validation and returns the raw validator errors.
func Validate(s interface{}) validator.ValidationErrors {
	if validate == nil {
		Init()
	}
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		return fieldErrs
	}
	return nil
}

// Sanitize strips all markup from user-supplied free text.
func Sanitize(input string) string {
	if sanitizer == nil {
		Init()
	}
	return strings.TrimSpace(sanitizer.Sanitize(input))
}
