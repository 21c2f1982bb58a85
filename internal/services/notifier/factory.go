package notifier

import (
	"fmt"

	"github.com/NordCoder/checkin/internal/domain/reminder"
)

// Deps carries the collaborators a provider may need. Only the ones used by the
// selected provider must be set.
type Deps struct {
	Email      EmailConfig
	Mail       MailSender
	Recipients RecipientLookup
	Publisher  ProtoPublisher
	Template   string
}

func New(name string, d Deps) (reminder.Provider, error) {
	switch name {
	case "", ProviderNoop:
		return Noop{}, nil
	case ProviderEmail:
		if d.Recipients == nil {
			return nil, fmt.Errorf("notifier %q: recipient lookup is required", name)
		}
		mail := d.Mail
		if mail == nil {
			mail = NewDialer(d.Email)
		}
		return NewEmail(d.Email, mail, d.Recipients, nil), nil
	case ProviderKafka:
		if d.Publisher == nil {
			return nil, fmt.Errorf("notifier %q: publisher is required", name)
		}
		return NewKafka(d.Publisher, d.Template), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", name)
	}
}
