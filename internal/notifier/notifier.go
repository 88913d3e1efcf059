package notifier

import (
	"context"
	"fmt"

	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/models"
)

// Backend delivers reminders and reports whether it is allowed to.
type Backend interface {
	Name() string
	Deliver(ctx context.Context, r models.PendingReminder) error
	Permission(ctx context.Context) models.PermissionStatus
	RequestPermission(ctx context.Context) (bool, error)
}

// FromSettings builds the backend selected in settings. topicARN overrides
// the stored SNS topic when non-empty.
func FromSettings(ctx context.Context, s models.Settings, topicARN, region string) (Backend, error) {
	switch s.NotifierBackend {
	case constants.NotifierTray, "":
		return NewTray(), nil
	case constants.NotifierSNS:
		if topicARN == "" {
			topicARN = s.SNSTopicARN
		}
		return NewSNS(ctx, topicARN, region)
	default:
		return nil, fmt.Errorf("unknown notifier backend %q", s.NotifierBackend)
	}
}

func message(r models.PendingReminder) string {
	if r.Reminder.Body != "" {
		return r.Reminder.Body
	}
	return fmt.Sprintf("Remember to take pills this %s", r.Reminder.Period)
}
