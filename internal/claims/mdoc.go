package claims

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	dErrors "onboard/pkg/domain-errors"
)

// encodedCBORTag marks an embedded CBOR data item (RFC 8949 §3.4.5.1).
const encodedCBORTag = 24

var decMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		MaxNestedLevels: 64,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

type deviceResponse struct {
	Version   string         `cbor:"version"`
	Documents []mdocDocument `cbor:"documents"`
	Status    uint64         `cbor:"status"`
}

type mdocDocument struct {
	DocType      string       `cbor:"docType"`
	IssuerSigned issuerSigned `cbor:"issuerSigned"`
}

type issuerSigned struct {
	NameSpaces map[string][]cbor.RawMessage `cbor:"nameSpaces"`
}

type issuerSignedItem struct {
	DigestID          uint64 `cbor:"digestID"`
	Random            []byte `cbor:"random"`
	ElementIdentifier string `cbor:"elementIdentifier"`
	ElementValue      any    `cbor:"elementValue"`
}

// decodeMdoc decodes a DeviceResponse given as hex or base64(url) text and
// returns the issuer-signed elements of every document keyed by namespace.
func decodeMdoc(raw string) (Presentation, error) {
	resp, err := parseDeviceResponse(raw)
	if err != nil {
		return nil, err
	}
	out := Presentation{}
	for _, doc := range resp.Documents {
		for ns, items := range doc.IssuerSigned.NameSpaces {
			c, ok := out[ns]
			if !ok {
				c = Claims{}
				out[ns] = c
			}
			for _, rawItem := range items {
				item, err := decodeIssuerSignedItem(rawItem)
				if err != nil {
					return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput,
						fmt.Sprintf("invalid issuer-signed item in namespace %s", ns))
				}
				c[item.ElementIdentifier] = normalizeCBOR(item.ElementValue)
			}
		}
	}
	if len(out) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "device response has no namespaces")
	}
	return out, nil
}

func parseDeviceResponse(raw string) (*deviceResponse, error) {
	for _, data := range binaryCandidates(raw) {
		var resp deviceResponse
		if err := decMode.Unmarshal(data, &resp); err != nil {
			continue
		}
		if len(resp.Documents) > 0 {
			return &resp, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeInvalidInput, "presentation is neither an SD-JWT nor a device response")
}

// binaryCandidates returns every plausible byte decoding of raw, hex first.
func binaryCandidates(raw string) [][]byte {
	raw = strings.TrimSpace(raw)
	var out [][]byte
	if len(raw)%2 == 0 {
		if b, err := hex.DecodeString(raw); err == nil {
			out = append(out, b)
		}
	}
	unpadded := strings.TrimRight(raw, "=")
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.RawStdEncoding} {
		if b, err := enc.DecodeString(unpadded); err == nil {
			out = append(out, b)
		}
	}
	return out
}

// decodeIssuerSignedItem unwraps a tag-24 item (or a bare byte string holding
// the encoded item) and decodes the inner map.
func decodeIssuerSignedItem(raw cbor.RawMessage) (*issuerSignedItem, error) {
	inner := []byte(raw)
	var tagged cbor.RawTag
	if err := decMode.Unmarshal(raw, &tagged); err == nil {
		if tagged.Number != encodedCBORTag {
			return nil, fmt.Errorf("unexpected tag %d", tagged.Number)
		}
		var b []byte
		if err := decMode.Unmarshal(tagged.Content, &b); err != nil {
			return nil, err
		}
		inner = b
	} else {
		var b []byte
		if err := decMode.Unmarshal(raw, &b); err == nil {
			inner = b
		}
	}
	var item issuerSignedItem
	if err := decMode.Unmarshal(inner, &item); err != nil {
		return nil, err
	}
	if item.ElementIdentifier == "" {
		return nil, fmt.Errorf("missing elementIdentifier")
	}
	return &item, nil
}

// normalizeCBOR converts decoded CBOR values into JSON-friendly shapes: string
// map keys, dates as strings, byte strings as base64.
func normalizeCBOR(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[fmt.Sprint(k)] = normalizeCBOR(inner)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalizeCBOR(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeCBOR(inner)
		}
		return out
	case cbor.Tag:
		return normalizeCBOR(val.Content)
	case time.Time:
		utc := val.UTC()
		if utc.Hour() == 0 && utc.Minute() == 0 && utc.Second() == 0 && utc.Nanosecond() == 0 {
			return utc.Format(time.DateOnly)
		}
		return utc.Format(time.RFC3339)
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	default:
		return v
	}
}
