package checkout

import (
	"strings"

	"decant-store-backend/pkg/validator"
)

// ShippingDetails is the contact/address record collected on the shipping
// step. Free-text fields are sanitized before the record is stored.
type ShippingDetails struct {
	FirstName  string `json:"first_name" validate:"required,person_name"`
	LastName   string `json:"last_name" validate:"required,person_name"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required,postal_code"`
	Country    string `json:"country" validate:"required,country_code"`
}

var shippingFieldNames = map[string]string{
	"FirstName":  "first_name",
	"LastName":   "last_name",
	"Email":      "email",
	"Phone":      "phone",
	"Address":    "address",
	"City":       "city",
	"State":      "state",
	"PostalCode": "postal_code",
	"Country":    "country",
}

var shippingFieldLabels = map[string]string{
	"first_name":  "First name",
	"last_name":   "Last name",
	"email":       "Email",
	"phone":       "Phone number",
	"address":     "Address",
	"city":        "City",
	"state":       "State",
	"postal_code": "Postal code",
	"country":     "Country",
}

// ValidateShipping checks every field independently and returns a per-field
// error map. An empty map means the record is valid. Invalid input is an
// expected outcome here, never an error return.
func ValidateShipping(details ShippingDetails) map[string]string {
	fieldErrors := make(map[string]string)

	for _, fieldErr := range validator.Validate(details) {
		field, ok := shippingFieldNames[fieldErr.StructField()]
		if !ok {
			field = strings.ToLower(fieldErr.StructField())
		}
		if _, seen := fieldErrors[field]; seen {
			continue
		}
		fieldErrors[field] = shippingFieldMessage(field, fieldErr.Tag())
	}

	return fieldErrors
}

func shippingFieldMessage(field, tag string) string {
	label, ok := shippingFieldLabels[field]
	if !ok {
		label = "Field"
	}

	switch tag {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "person_name":
		return label + " contains invalid characters"
	case "postal_code":
		return "Invalid postal code"
	case "country_code":
		return "Country is not supported"
	default:
		return label + " is invalid"
	}
}

// Sanitize strips markup from free-text fields and normalizes the country
// code. Validation runs on the sanitized record.
func (d ShippingDetails) Sanitize() ShippingDetails {
	return ShippingDetails{
		FirstName:  validator.Sanitize(d.FirstName),
		LastName:   validator.Sanitize(d.LastName),
		Email:      strings.TrimSpace(d.Email),
		Phone:      strings.TrimSpace(d.Phone),
		Address:    validator.Sanitize(d.Address),
		City:       validator.Sanitize(d.City),
		State:      validator.Sanitize(d.State),
		PostalCode: strings.TrimSpace(d.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(d.Country)),
	}
}
