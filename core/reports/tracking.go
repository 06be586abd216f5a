package reports

import (
	"strings"

	"github.com/gofrs/uuid/v5"
)

const trackingCodeLen = 12

// NewTrackingCode returns the first 12 hex digits of a random UUID, upper-cased.
func NewTrackingCode() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return strings.ToUpper(hex[:trackingCodeLen]), nil
}

func ValidTrackingCode(code string) bool {
	if len(code) != trackingCodeLen {
		return false
	}
	for _, r := range code {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}
