// Package validation checks untrusted payloads at the transport boundary
// against JSON schemas before they reach the auction engine.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// financialProfileSchema describes the financing profile a business submits
// with an application. The engine itself treats the profile as opaque; only
// the boundary shape is enforced here.
var financialProfileSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"requestedAmount": map[string]interface{}{
			"type":    "number",
			"minimum": 1,
		},
		"currency": map[string]interface{}{
			"type":      "string",
			"minLength": 3,
			"maxLength": 3,
		},
		"industry": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"annualRevenue": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
		},
		"yearsInBusiness": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
		},
		"purpose": map[string]interface{}{
			"type": "string",
		},
	},
	"required": []interface{}{"requestedAmount", "industry"},
}

// offerTermsSchema describes the financial terms of a bank offer.
var offerTermsSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"amount": map[string]interface{}{
			"type":    "number",
			"minimum": 1,
		},
		"interestRate": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
		},
		"termMonths": map[string]interface{}{
			"type":    "number",
			"minimum": 1,
		},
		"conditions": map[string]interface{}{
			"type": "string",
		},
	},
	"required": []interface{}{"amount", "interestRate"},
}

// ValidateFinancialProfile validates an application's financing profile.
// Returns a single error naming every failed field.
func ValidateFinancialProfile(profile map[string]interface{}) error {
	return validateAgainst(financialProfileSchema, profile, "financial profile")
}

// ValidateOfferTerms validates a bank offer's terms payload.
func ValidateOfferTerms(terms map[string]interface{}) error {
	return validateAgainst(offerTermsSchema, terms, "offer terms")
}

func validateAgainst(schemaMap, data map[string]interface{}, label string) error {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%s validation failed: %w", label, err)
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}
	return fmt.Errorf("%s invalid: %s", label, strings.Join(messages, "; "))
}
