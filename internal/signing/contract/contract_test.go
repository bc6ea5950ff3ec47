package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmodels "onboard/internal/application/models"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/testutil"
)

func TestRender(t *testing.T) {
	app, err := appmodels.NewApplication("app-1", "vac-7", testutil.FixedNow)
	require.NoError(t, err)

	t.Run("requires candidate info", func(t *testing.T) {
		_, err := NewRenderer().Render(testutil.Context(), app)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("renders candidate and employer", func(t *testing.T) {
		app.Candidate = &appmodels.CandidateInfo{FamilyName: "Virtanen", GivenName: "Aino", DateOfBirth: "1990-04-12", Nationality: "FI"}
		draft, err := NewRenderer(WithEmployer("Baltic Lines"), WithDocumentType("crew_contract")).Render(testutil.Context(), app)
		require.NoError(t, err)

		body := string(draft.Content)
		assert.Contains(t, body, "Employer:    Baltic Lines")
		assert.Contains(t, body, "Employee:    Aino Virtanen")
		assert.Contains(t, body, "Nationality: FI")
		assert.Contains(t, body, "Date:        2026-03-02")
		assert.Equal(t, "crew_contract", draft.DocumentType)
		assert.Equal(t, ContentType, draft.ContentType)

		again, err := NewRenderer(WithEmployer("Baltic Lines")).Render(testutil.Context(), app)
		require.NoError(t, err)
		assert.Equal(t, draft.Content, again.Content)
	})
}
