// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"fmt"
	"strings"
)

// Type classifies the kind of knowledge a memory holds
type Type string

// Memory types
const (
	TypeConvention   Type = "convention"
	TypeArchitecture Type = "architecture"
	TypeGotcha       Type = "gotcha"
	TypeAPI          Type = "api"
	TypeLearning     Type = "learning"
	TypePreference   Type = "preference"
)

// AllTypes lists every memory type in display order
var AllTypes = []Type{
	TypeConvention,
	TypeArchitecture,
	TypeGotcha,
	TypeAPI,
	TypeLearning,
	TypePreference,
}

// Confidence is the reliability level of a memory. It drives ranking
// and pruning eligibility.
type Confidence string

// Confidence levels
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AllConfidences lists confidence levels from strongest to weakest
var AllConfidences = []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow}

// Rank returns the sort key for the confidence level, lower ranks first
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 0
	case ConfidenceMedium:
		return 1
	default:
		return 2
	}
}

// Symbol returns the marker used in rendered context blocks
func (c Confidence) Symbol() string {
	switch c {
	case ConfidenceHigh:
		return "★"
	case ConfidenceMedium:
		return "◐"
	default:
		return "○"
	}
}

// Scope is where a stored memory applies
type Scope string

// Scopes
const (
	ScopeProject Scope = "project"
	ScopeGlobal  Scope = "global"
)

// AllScopes lists the stored scopes
var AllScopes = []Scope{ScopeProject, ScopeGlobal}

// Tier selects scopes on read. TierBoth exists only for reads; on write
// it resolves to project scope.
type Tier string

// Tiers
const (
	TierProject Tier = "project"
	TierGlobal  Tier = "global"
	TierBoth    Tier = "both"
)

// Scope resolves the tier to the scope a new memory is written with
func (t Tier) Scope() Scope {
	if t == TierGlobal {
		return ScopeGlobal
	}
	return ScopeProject
}

// ValidationError reports a value that is not a member of a closed set
type ValidationError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Invalid %s: %s. Must be one of: %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// ParseType parses a memory type, ignoring case
func ParseType(s string) (Type, error) {
	v := normalize(s)
	for _, t := range AllTypes {
		if string(t) == v {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "memory type", Value: s, Allowed: names(AllTypes)}
}

// ParseConfidence parses a confidence level, ignoring case
func ParseConfidence(s string) (Confidence, error) {
	v := normalize(s)
	for _, c := range AllConfidences {
		if string(c) == v {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "confidence level", Value: s, Allowed: names(AllConfidences)}
}

// ParseScope parses a stored scope, ignoring case
func ParseScope(s string) (Scope, error) {
	v := normalize(s)
	for _, sc := range AllScopes {
		if string(sc) == v {
			return sc, nil
		}
	}
	return "", &ValidationError{Field: "scope", Value: s, Allowed: names(AllScopes)}
}

// ParseTier parses a read tier, ignoring case
func ParseTier(s string) (Tier, error) {
	tiers := []Tier{TierProject, TierGlobal, TierBoth}
	v := normalize(s)
	for _, t := range tiers {
		if string(t) == v {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "tier", Value: s, Allowed: names(tiers)}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
