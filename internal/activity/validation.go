package activity

import (
	"errors"
	"fmt"

	"github.com/leadreach/leadreach/internal/model"
)

const (
	maxUsernameLength = 200
	maxTerms          = 50
)

// ValidatePayload checks the fields the activity_events table constrains.
func ValidatePayload(p Payload) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.Username == "" {
		return errors.New("username is required")
	}
	if len(p.Username) > maxUsernameLength {
		return errors.New("username too long")
	}
	switch model.ActivityKind(p.Kind) {
	case model.ActivityLogin, model.ActivityDiscover, model.ActivityExport:
	default:
		return fmt.Errorf("unknown kind %q", p.Kind)
	}
	if p.Count < 0 {
		return errors.New("count must not be negative")
	}
	if len(p.Keywords) > maxTerms || len(p.Cities) > maxTerms {
		return errors.New("too many search terms")
	}
	if p.OccurredAt <= 0 {
		return errors.New("occurred_at must be set")
	}
	return nil
}
