// Package claims decodes wallet presentations into claim maps keyed by
// credential namespace. It performs no signature checks: the verification
// backend has already validated the presentation.
package claims

import (
	"log/slog"
	"strings"

	dErrors "onboard/pkg/domain-errors"
)

// Claims is the decoded claim set of one credential.
type Claims map[string]any

// Presentation maps a credential namespace to its claims.
type Presentation map[string]Claims

// Result is the merged outcome of decoding every entry of a wallet response.
type Result struct {
	Namespaces Presentation
	Decoded    int
	Skipped    int
}

// jwtPrefix is the base64url encoding of `{"`, the start of every JWT header.
const jwtPrefix = "eyJ"

// Decoder turns raw presentation strings into claims.
type Decoder struct {
	logger *slog.Logger
}

type Option func(*Decoder)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		d.logger = logger
	}
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Decode decodes a single presentation, choosing the SD-JWT or mdoc path by
// sniffing the input.
func (d *Decoder) Decode(raw string) (Presentation, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "empty presentation")
	}
	if strings.HasPrefix(raw, jwtPrefix) {
		ns, claims, err := decodeSDJWT(raw)
		if err != nil {
			return nil, err
		}
		return Presentation{ns: claims}, nil
	}
	return decodeMdoc(raw)
}

// DecodeAll decodes every entry independently. A malformed entry is logged and
// skipped; its siblings are still merged into the result.
func (d *Decoder) DecodeAll(entries []string) Result {
	result := Result{Namespaces: Presentation{}}
	for i, entry := range entries {
		p, err := d.Decode(entry)
		if err != nil {
			result.Skipped++
			d.logger.Warn("skipping undecodable presentation entry",
				"index", i,
				"error", err,
			)
			continue
		}
		result.Decoded++
		for ns, c := range p {
			existing, ok := result.Namespaces[ns]
			if !ok {
				existing = Claims{}
				result.Namespaces[ns] = existing
			}
			for k, v := range c {
				existing[k] = v
			}
		}
	}
	return result
}
