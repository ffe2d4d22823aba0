package agentdef

import (
	"fmt"
	"regexp"
)

const (
	minIdentifierLen = 3
	maxIdentifierLen = 50
)

var identifierPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateIdentifier checks that id is lowercase [a-z0-9-], 3 to 50
// characters long, and neither starts nor ends with a hyphen.
func ValidateIdentifier(id string) error {
	if len(id) < minIdentifierLen || len(id) > maxIdentifierLen {
		return fmt.Errorf("%w: %q must be %d-%d characters", ErrInvalidIdentifier, id, minIdentifierLen, maxIdentifierLen)
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("%w: %q must match %s", ErrInvalidIdentifier, id, identifierPattern)
	}
	return nil
}
