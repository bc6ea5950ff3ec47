package claims

import (
	"encoding/json"
	"strings"

	dErrors "onboard/pkg/domain-errors"
)

// decodeSDJWT decodes `<issuer-jwt>~<disclosure>~...~[<kb-jwt>]`. The issuer
// payload is the base claim set; each disclosure `[salt, name, value]` adds
// name=value unless the payload already carries name. The namespace is the
// payload's vct. The digest bookkeeping (`_sd`, `_sd_alg`) is not a claim and
// is dropped.
func decodeSDJWT(raw string) (string, Claims, error) {
	parts := strings.Split(raw, "~")
	payload, err := DecodeJWTPayload(parts[0])
	if err != nil {
		return "", nil, err
	}
	vct, _ := payload["vct"].(string)
	if vct == "" {
		return "", nil, dErrors.New(dErrors.CodeInvalidInput, "sd-jwt payload has no vct")
	}

	claims := Claims{}
	for k, v := range payload {
		if !isDigestField(k) {
			claims[k] = v
		}
	}
	disclosed := Claims{}
	for _, part := range parts[1:] {
		// Empty trailing segment, or the key-binding JWT.
		if part == "" || strings.Contains(part, ".") {
			continue
		}
		name, value, ok, err := decodeDisclosure(part)
		if err != nil {
			return "", nil, err
		}
		if ok && !isDigestField(name) {
			disclosed[name] = value
		}
	}
	for name, value := range disclosed {
		if _, present := claims[name]; !present {
			claims[name] = value
		}
	}
	return vct, claims, nil
}

func isDigestField(name string) bool {
	return name == "_sd" || name == "_sd_alg"
}

// decodeDisclosure returns the claim carried by an object-property disclosure.
// Array-element disclosures (two entries) report ok=false.
func decodeDisclosure(segment string) (string, any, bool, error) {
	raw, err := segmentParser.DecodeSegment(segment)
	if err != nil {
		return "", nil, false, dErrors.Wrap(err, dErrors.CodeInvalidInput, "disclosure is not base64url")
	}
	var arr []any
	if err := json.Unmarshal(raw, &arr); err != nil {
		return "", nil, false, dErrors.Wrap(err, dErrors.CodeInvalidInput, "disclosure is not a JSON array")
	}
	switch len(arr) {
	case 2:
		return "", nil, false, nil
	case 3:
		name, ok := arr[1].(string)
		if !ok || name == "" {
			return "", nil, false, dErrors.New(dErrors.CodeInvalidInput, "disclosure claim name must be a string")
		}
		return name, arr[2], true, nil
	default:
		return "", nil, false, dErrors.New(dErrors.CodeInvalidInput, "disclosure must have 2 or 3 elements")
	}
}
