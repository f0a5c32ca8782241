package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Message is one notification.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers a message to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Dispatcher sends to every configured notifier. Delivery failures are
// logged and never returned: a migration result does not depend on them.
type Dispatcher struct {
	notifiers []Notifier
	log       *logrus.Entry
}

func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	d := &Dispatcher{log: logrus.WithField("component", "notify")}
	for _, n := range notifiers {
		if n != nil {
			d.notifiers = append(d.notifiers, n)
		}
	}
	return d
}

func (d *Dispatcher) Len() int { return len(d.notifiers) }

// Send delivers msg to each notifier in turn and reports how many succeeded.
func (d *Dispatcher) Send(ctx context.Context, msg Message) int {
	sent := 0
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			d.log.WithError(err).WithField("notifier", n.Name()).Warn("Notification failed")
			continue
		}
		sent++
		d.log.WithField("notifier", n.Name()).Debug("Notification sent")
	}
	return sent
}
