package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "onboard/pkg/domain-errors"
)

func TestValidateCandidateInput(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := CandidateInput{
		FamilyName:  " Virtanen ",
		GivenName:   "Aino",
		DateOfBirth: "1994-05-17",
		Nationality: "fi, se",
		Email:       "aino@example.com",
		Mobile:      "+358 40 1234567",
	}

	t.Run("accepts and normalises a complete input", func(t *testing.T) {
		info, errs := ValidateCandidateInput(valid, now)
		require.Nil(t, errs)
		assert.Equal(t, "Virtanen", info.FamilyName)
		assert.Equal(t, "FI,SE", info.Nationality)
		assert.Equal(t, "FI", info.PrimaryNationality())
	})

	t.Run("optional fields may be empty", func(t *testing.T) {
		in := valid
		in.Nationality, in.Email, in.Mobile = "", "", ""
		_, errs := ValidateCandidateInput(in, now)
		assert.Nil(t, errs)
	})

	t.Run("each field is validated independently", func(t *testing.T) {
		in := CandidateInput{
			GivenName:   "Aino",
			DateOfBirth: "17.05.1994",
			Nationality: "Finland",
			Email:       "not-an-email",
			Mobile:      "call me",
		}
		_, errs := ValidateCandidateInput(in, now)
		require.NotNil(t, errs)
		assert.Contains(t, errs, "family_name")
		assert.NotContains(t, errs, "given_name")
		assert.Contains(t, errs, "date_of_birth")
		assert.Contains(t, errs, "nationality")
		assert.Contains(t, errs, "email")
		assert.Contains(t, errs, "mobile")
	})

	t.Run("rejects a birth date in the future", func(t *testing.T) {
		in := valid
		in.DateOfBirth = "2030-01-01"
		_, errs := ValidateCandidateInput(in, now)
		assert.Contains(t, errs, "date_of_birth")
	})

	t.Run("NewCandidateInfo returns a validation error", func(t *testing.T) {
		_, err := NewCandidateInfo(CandidateInput{}, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "family_name")
	})
}
