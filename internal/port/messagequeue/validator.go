package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Strob0t/PropertyHub/internal/domain/tenant"
)

// ErrInvalidMessage marks a payload that can never be processed.
var ErrInvalidMessage = errors.New("invalid message")

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: invalid JSON on subject %s", ErrInvalidMessage, subject)
	}

	switch subject {
	case SubjectTenantChanged:
		var ev tenant.ChangeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("%w: schema validation failed for %s: %v", ErrInvalidMessage, subject, err)
		}
		if ev.ID <= 0 {
			return fmt.Errorf("%w: %s: id must be positive", ErrInvalidMessage, subject)
		}
		if !tenant.ValidKey(ev.Key) {
			return fmt.Errorf("%w: %s: invalid tenant key %q", ErrInvalidMessage, subject, ev.Key)
		}
	}
	return nil
}
