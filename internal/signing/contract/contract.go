// Package contract renders the employment contract a candidate signs.
package contract

import (
	"bytes"
	"context"
	"text/template"
	"time"

	appmodels "onboard/internal/application/models"
	"onboard/internal/signing/models"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/requestcontext"
)

const (
	DefaultDocumentType = "employment_contract"
	Label               = "Employment contract"
	ContentType         = "text/plain; charset=utf-8"
)

var contractTemplate = template.Must(template.New("contract").Parse(`EMPLOYMENT CONTRACT

Employer:    {{.Employer}}
Employee:    {{.GivenName}} {{.FamilyName}}
Born:        {{.DateOfBirth}}
{{- if .Nationality}}
Nationality: {{.Nationality}}
{{- end}}
Vacancy:     {{.VacancyID}}
Application: {{.ApplicationID}}
Date:        {{.Date}}

The employee accepts the position described by the vacancy above under the
employer's standard terms of employment for seafarers. This contract is
signed with a qualified electronic signature.
`))

type contractData struct {
	Employer      string
	GivenName     string
	FamilyName    string
	DateOfBirth   string
	Nationality   string
	VacancyID     string
	ApplicationID string
	Date          string
}

// Renderer turns an application into the document to sign.
type Renderer struct {
	employer     string
	documentType string
}

type Option func(*Renderer)

func WithEmployer(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.employer = name
		}
	}
}

func WithDocumentType(t string) Option {
	return func(r *Renderer) {
		if t != "" {
			r.documentType = t
		}
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{employer: appmodels.EmployerName, documentType: DefaultDocumentType}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render requires verified candidate info. The contract date is the request
// time, so re-rendering on the same day yields identical bytes.
func (r *Renderer) Render(ctx context.Context, app *appmodels.Application) (models.Draft, error) {
	if app.Candidate == nil || !app.Candidate.Complete() {
		return models.Draft{}, dErrors.New(dErrors.CodeInvariantViolation, "contract requires verified candidate info")
	}
	data := contractData{
		Employer:      r.employer,
		GivenName:     app.Candidate.GivenName,
		FamilyName:    app.Candidate.FamilyName,
		DateOfBirth:   app.Candidate.DateOfBirth,
		Nationality:   app.Candidate.Nationality,
		VacancyID:     app.VacancyID,
		ApplicationID: app.ID,
		Date:          requestcontext.Now(ctx).Format(time.DateOnly),
	}
	var buf bytes.Buffer
	if err := contractTemplate.Execute(&buf, data); err != nil {
		return models.Draft{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render contract")
	}
	return models.Draft{
		DocumentType: r.documentType,
		Label:        Label,
		ContentType:  ContentType,
		Content:      buf.Bytes(),
	}, nil
}
