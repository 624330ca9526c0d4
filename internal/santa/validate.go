package santa

import (
	"fmt"
	"regexp"
)

const (
	// DefaultIdentifierPattern accepts a VK screen name, an id<digits> reference or a vk.com link to either.
	DefaultIdentifierPattern = `^(?:(?:https?://)?(?:www\.|m\.)?vk\.com/)?@?(?:id\d+|[A-Za-z][A-Za-z0-9_.]{2,31})$`
	// DefaultTrackingPattern accepts an S10 international code in either letter case, a 14-digit domestic code or a 10-digit courier code.
	DefaultTrackingPattern = `^(?:(?i:[a-z]{2})\d{9}(?i:[a-z]{2})|\d{14}|\d{10})$`
)

// Validator checks user input against the configured format rules.
type Validator struct {
	identifier *regexp.Regexp
	tracking   *regexp.Regexp
}

// NewValidator compiles the patterns; empty patterns fall back to the defaults.
func NewValidator(identifierPattern, trackingPattern string) (*Validator, error) {
	if identifierPattern == "" {
		identifierPattern = DefaultIdentifierPattern
	}
	if trackingPattern == "" {
		trackingPattern = DefaultTrackingPattern
	}
	id, err := regexp.Compile(identifierPattern)
	if err != nil {
		return nil, fmt.Errorf("compile identifier pattern: %w", err)
	}
	tr, err := regexp.Compile(trackingPattern)
	if err != nil {
		return nil, fmt.Errorf("compile tracking pattern: %w", err)
	}
	return &Validator{identifier: id, tracking: tr}, nil
}

// DefaultValidator uses the built-in patterns.
func DefaultValidator() *Validator {
	v, _ := NewValidator("", "")
	return v
}

// Identifier reports whether s looks like an external identifier.
func (v *Validator) Identifier(s string) bool {
	return v.identifier.MatchString(s)
}

// Tracking reports whether s looks like a shipment tracking code.
func (v *Validator) Tracking(s string) bool {
	return v.tracking.MatchString(s)
}
