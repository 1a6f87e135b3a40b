package fingerprint

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedOutput reports fpcalc output that does not carry a usable fingerprint.
var ErrMalformedOutput = errors.New("malformed fpcalc output")

type fpcalcOutput struct {
	Duration    *float64 `json:"duration"`
	Fingerprint string   `json:"fingerprint"`
}

// ParseOutput decodes the JSON fpcalc prints with -json. The duration is
// truncated to whole seconds.
func ParseOutput(stdout []byte) (Result, error) {
	var out fpcalcOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return None(), fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	fingerprint := strings.TrimSpace(out.Fingerprint)
	if fingerprint == "" {
		return None(), fmt.Errorf("%w: missing fingerprint", ErrMalformedOutput)
	}
	if out.Duration == nil {
		return None(), fmt.Errorf("%w: missing duration", ErrMalformedOutput)
	}
	duration := int(*out.Duration)
	if duration <= 0 {
		return None(), fmt.Errorf("%w: duration %v", ErrMalformedOutput, *out.Duration)
	}
	return FromFingerprint(fingerprint, duration), nil
}
