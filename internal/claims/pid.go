package claims

import (
	"fmt"
	"strings"
)

// PID holds the person identification fields used to build a candidate.
type PID struct {
	FamilyName  string
	GivenName   string
	BirthDate   string
	Nationality string
	Email       string
	Mobile      string
}

// NormalizePID flattens the PID shapes wallets produce: birth_date may be a
// string or {"value": ...}; nationality may be a string, a list of strings, or
// a list of {"country_code": ...}. Multiple nationalities are comma-joined.
func NormalizePID(c Claims) PID {
	return PID{
		FamilyName:  stringClaim(c["family_name"]),
		GivenName:   stringClaim(c["given_name"]),
		BirthDate:   birthDate(c["birth_date"]),
		Nationality: nationality(c["nationality"]),
		Email:       stringClaim(c["email_address"]),
		Mobile:      stringClaim(c["mobile_phone_number"]),
	}
}

func stringClaim(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func birthDate(v any) string {
	if m, ok := v.(map[string]any); ok {
		return stringClaim(m["value"])
	}
	return stringClaim(v)
}

func nationality(v any) string {
	var codes []string
	add := func(s string) {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			codes = append(codes, s)
		}
	}
	switch val := v.(type) {
	case string:
		for _, part := range strings.Split(val, ",") {
			add(part)
		}
	case []any:
		for _, entry := range val {
			switch e := entry.(type) {
			case string:
				add(e)
			case map[string]any:
				add(stringClaim(e["country_code"]))
			}
		}
	case map[string]any:
		add(stringClaim(val["country_code"]))
	}
	return strings.Join(codes, ",")
}
