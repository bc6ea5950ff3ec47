// Package credentials defines the closed set of credential kinds handled by the
// workflow and the wire namespaces that identify them.
package credentials

import (
	"strings"

	dErrors "onboard/pkg/domain-errors"
)

// Type is a credential kind. The set is closed; per-kind behaviour is resolved
// through lookup tables keyed by Type rather than switches scattered around.
type Type string

const (
	TypePID          Type = "PID"
	TypeDiploma      Type = "DIPLOMA"
	TypeSeafarer     Type = "SEAFARER"
	TypeTaxResidency Type = "TAXRESIDENCY"
	TypeEmployee     Type = "EMPLOYEE"
	TypeNone         Type = "NONE"
)

// Format is the wire encoding a credential is presented in.
type Format string

const (
	FormatMdoc  Format = "mso_mdoc"
	FormatSDJWT Format = "dc+sd-jwt"
)

// Wire namespaces. Dot notation is used by mdoc credentials, URN notation by
// SD-JWT credentials (where it is the vct value).
const (
	NamespacePID          = "eu.europa.ec.eudi.pid.1"
	NamespaceDiploma      = "urn:eu.europa.ec.eudi:diploma:1"
	NamespaceSeafarer     = "eu.europa.ec.eudi.seafarer.1"
	NamespaceTaxResidency = "urn:eu.europa.ec.eudi:tax_residency:1"
)

type descriptor struct {
	namespace string
	format    Format
}

var requestable = map[Type]descriptor{
	TypePID:          {namespace: NamespacePID, format: FormatMdoc},
	TypeDiploma:      {namespace: NamespaceDiploma, format: FormatSDJWT},
	TypeSeafarer:     {namespace: NamespaceSeafarer, format: FormatMdoc},
	TypeTaxResidency: {namespace: NamespaceTaxResidency, format: FormatSDJWT},
}

var byNamespace = func() map[string]Type {
	m := make(map[string]Type, len(requestable))
	for t, d := range requestable {
		m[d.namespace] = t
	}
	return m
}()

// ParseType parses a credential type name, case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return TypeNone, dErrors.New(dErrors.CodeInvalidInput, "unknown credential type: "+s)
	}
	return t, nil
}

// Valid reports whether t is a member of the closed set.
func (t Type) Valid() bool {
	switch t {
	case TypePID, TypeDiploma, TypeSeafarer, TypeTaxResidency, TypeEmployee, TypeNone:
		return true
	}
	return false
}

// IsQualification reports whether t is proven after identity verification.
func (t Type) IsQualification() bool {
	return t == TypeDiploma || t == TypeSeafarer || t == TypeTaxResidency
}

// Requestable reports whether t can be requested from a wallet presentation.
func (t Type) Requestable() bool {
	_, ok := requestable[t]
	return ok
}

func (t Type) String() string { return string(t) }

// Namespace returns the wire namespace for a requestable type.
func (t Type) Namespace() (string, bool) {
	d, ok := requestable[t]
	return d.namespace, ok
}

// Format returns the wire format for a requestable type.
func (t Type) Format() (Format, bool) {
	d, ok := requestable[t]
	return d.format, ok
}

// TypeForNamespace maps a decoded namespace (mdoc namespace or SD-JWT vct) to a
// credential type. Unknown namespaces report false.
func TypeForNamespace(ns string) (Type, bool) {
	t, ok := byNamespace[ns]
	return t, ok
}
