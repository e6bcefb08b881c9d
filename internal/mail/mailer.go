// Package mail composes the access email and hands it to a transport.
package mail

import (
	"context"
	"fmt"
	"net/mail"
)

type Message struct {
	From    string
	To      string
	Subject string
	Text    string
}

// Sender delivers one message; implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// FromHeader renders `"Name" <addr>`.
func FromHeader(name, addr string) string {
	a := mail.Address{Name: name, Address: addr}
	return a.String()
}

func (m Message) validate() error {
	if m.From == "" || m.To == "" {
		return fmt.Errorf("mail: from and to are required")
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("mail: invalid recipient: %w", err)
	}
	return nil
}
