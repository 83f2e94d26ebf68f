package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFinancialProfile(t *testing.T) {
	err := ValidateFinancialProfile(map[string]interface{}{
		"requestedAmount": 250000,
		"industry":        "logistics",
		"currency":        "EUR",
	})
	assert.NoError(t, err)

	err = ValidateFinancialProfile(map[string]interface{}{
		"industry": "logistics",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requestedAmount")

	err = ValidateFinancialProfile(map[string]interface{}{
		"requestedAmount": -5,
		"industry":        "logistics",
	})
	assert.Error(t, err)
}

func TestValidateOfferTerms(t *testing.T) {
	err := ValidateOfferTerms(map[string]interface{}{
		"amount":       200000,
		"interestRate": 6.25,
		"termMonths":   60,
	})
	assert.NoError(t, err)

	err = ValidateOfferTerms(map[string]interface{}{
		"amount": 200000,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "interestRate")
}
