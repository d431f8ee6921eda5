package model

import (
	"strings"
)

// NoVariant is the variant tag used when no condition is overridden.
const NoVariant = "none"

// Bias is the session-level track flow applied to analysis.
type Bias string

// Known biases. BiasNone means the user never picked one.
const (
	BiasNone    Bias = ""
	BiasLead    Bias = "lead"
	BiasCloser  Bias = "closer"
	BiasInside  Bias = "inside"
	BiasOutside Bias = "outside"
	BiasNeutral Bias = "neutral"
)

// ParseBias validates a bias name. The empty string maps to BiasNone.
func ParseBias(s string) (Bias, bool) {
	switch b := Bias(strings.ToLower(strings.TrimSpace(s))); b {
	case BiasNone, BiasLead, BiasCloser, BiasInside, BiasOutside, BiasNeutral:
		return b, true
	default:
		return BiasNone, false
	}
}

// Override replaces an Event's weather or track condition for one analysis.
type Override struct {
	Weather string `json:"weather,omitempty"`
	Track   string `json:"track,omitempty"`
}

// IsZero reports whether nothing is overridden.
func (o Override) IsZero() bool {
	return strings.TrimSpace(o.Weather) == "" && strings.TrimSpace(o.Track) == ""
}

// Variant is every condition that changes an analysis without changing the
// Event itself.
type Variant struct {
	Bias     Bias
	Override Override
}

// Tag renders the variant for use in a fingerprint.
func (v Variant) Tag() string {
	tag := string(v.Bias)
	if tag == "" {
		tag = NoVariant
	}
	if w := strings.TrimSpace(v.Override.Weather); w != "" {
		tag += "+w=" + w
	}
	if t := strings.TrimSpace(v.Override.Track); t != "" {
		tag += "+t=" + t
	}
	return tag
}

// Fingerprint is the result cache key of an Event under a Variant.
func Fingerprint(e Event, v Variant) string {
	return e.Key() + "-" + v.Tag()
}
