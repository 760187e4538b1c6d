package natsreport

import (
	"github.com/nats-io/nats.go"
)

// New creates a NATS reporter that publishes call events to the given
// subject.
func New(nc *nats.Conn, subject string) *natsReporter {
	return &natsReporter{
		nc:      nc,
		subject: subject,
	}
}
