package claims

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "onboard/pkg/domain-errors"
)

var segmentParser = jwt.NewParser()

// DecodeJWTPayload decodes the payload segment of a compact JWT without
// verifying its signature.
func DecodeJWTPayload(token string) (map[string]any, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "token is not a compact JWT")
	}
	return decodeJSONSegment(parts[1])
}

func decodeJSONSegment(segment string) (map[string]any, error) {
	raw, err := segmentParser.DecodeSegment(segment)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "segment is not base64url")
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "segment is not a JSON object")
	}
	if out == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "segment is empty")
	}
	return out, nil
}
