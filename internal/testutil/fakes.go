package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/mdappsolutions/bellasjob-api/internal/mail"
	"github.com/mdappsolutions/bellasjob-api/internal/models"
)

// FakeGateway answers FetchTransaction from a map keyed by notification code.
type FakeGateway struct {
	mu    sync.Mutex
	txs   map[string]models.Transaction
	Err   error
	Calls []string
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{txs: map[string]models.Transaction{}}
}

func (g *FakeGateway) Set(code string, tx models.Transaction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.txs[code] = tx
}

func (g *FakeGateway) FetchTransaction(_ context.Context, code string) (models.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, code)
	if g.Err != nil {
		return models.Transaction{}, g.Err
	}
	tx, ok := g.txs[code]
	if !ok {
		return models.Transaction{}, errNoTransaction
	}
	return tx, nil
}

var errNoTransaction = errors.New("no transaction")

// RecordingMailer keeps every message it is asked to send.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	Err  error
}

func (m *RecordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *RecordingMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}
