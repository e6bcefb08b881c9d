package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdappsolutions/bellasjob-api/internal/auth"
	"github.com/mdappsolutions/bellasjob-api/internal/logger"
	"github.com/mdappsolutions/bellasjob-api/internal/models"
	"github.com/mdappsolutions/bellasjob-api/internal/testutil"
)

type fixture struct {
	gateway   *testutil.FakeGateway
	accounts  *testutil.InMemoryAccounts
	users     *testutil.InMemoryUsers
	logs      *testutil.InMemoryLogs
	processed *testutil.InMemoryProcessed
	mailer    *testutil.RecordingMailer
	tokens    *auth.TokenManager
	acctSvc   *AccountService
	svc       *NotificationService
}

func newFixture(t *testing.T, includePassword bool) *fixture {
	t.Helper()
	f := &fixture{
		gateway:   testutil.NewFakeGateway(),
		accounts:  testutil.NewInMemoryAccounts(),
		users:     testutil.NewInMemoryUsers(),
		logs:      testutil.NewInMemoryLogs(),
		processed: testutil.NewInMemoryProcessed(),
		mailer:    &testutil.RecordingMailer{},
		tokens:    auth.NewTokenManager("test-secret", "bellasjob-api", time.Hour),
	}
	f.acctSvc = NewAccountService(f.accounts, f.tokens, "https://bellasjob.app")
	f.svc = NewNotificationService(f.gateway, f.acctSvc, f.users, f.logs, f.processed, f.mailer, NotificationOptions{
		From:            `"MD App Solutions" <noreply@example.com>`,
		LoginURL:        "https://bellasjob.app",
		IncludePassword: includePassword,
		SetupTTL:        time.Hour,
	}, logger.Discard())
	return f
}

func paidTx(status models.TransactionStatus) models.Transaction {
	return models.Transaction{
		Code:        "TX1",
		Reference:   "ref1",
		Status:      status,
		GrossAmount: decimal.RequireFromString("50.00"),
		Sender:      models.Sender{Email: "buyer@example.com"},
	}
}

func setupToken(t *testing.T, text string) string {
	t.Helper()
	i := strings.Index(text, "/account/setup?token=")
	require.GreaterOrEqual(t, i, 0, "no setup link in %q", text)
	link := strings.Fields(text[i:])[0]
	u, err := url.Parse("https://x" + link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestHandleConfirmedCreatesUserAndSendsEmail(t *testing.T) {
	f := newFixture(t, false)
	f.gateway.Set("ABC123", paidTx(models.StatusPaid))

	res, err := f.svc.Handle(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotEmpty(t, res.User)
	assert.Empty(t, res.Status)

	acc, err := f.accounts.GetByEmail(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, res.User, acc.ID)
	assert.NotEmpty(t, acc.PasswordHash)

	u, err := f.users.GetByID(context.Background(), res.User)
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", u.Email)
	assert.Equal(t, models.StatusPaid, u.PagSeguro.Status)
	assert.Equal(t, "ref1", u.PagSeguro.Reference)
	assert.Equal(t, "TX1", u.PagSeguro.TransactionCode)
	assert.Equal(t, "50.00", u.PagSeguro.GrossAmount)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "buyer@example.com", sent[0].To)
	assert.Equal(t, `"MD App Solutions" <noreply@example.com>`, sent[0].From)
	assert.Contains(t, sent[0].Text, "https://bellasjob.app")
	assert.Contains(t, sent[0].Text, "Login: buyer@example.com")
	assert.NotContains(t, sent[0].Text, "Senha:")
	assert.NotEmpty(t, setupToken(t, sent[0].Text))

	assert.Empty(t, f.logs.Entries())
}

func TestHandleAvailableIsConfirmed(t *testing.T) {
	f := newFixture(t, false)
	f.gateway.Set("N4", paidTx(models.StatusAvailable))

	res, err := f.svc.Handle(context.Background(), "N4")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, f.accounts.Count())
	assert.Len(t, f.mailer.Sent(), 1)
}

func TestHandleIncludesPasswordForNewAccount(t *testing.T) {
	f := newFixture(t, true)
	f.gateway.Set("ABC123", paidTx(models.StatusPaid))

	_, err := f.svc.Handle(context.Background(), "ABC123")
	require.NoError(t, err)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	i := strings.Index(sent[0].Text, "Senha: ")
	require.GreaterOrEqual(t, i, 0)
	password := strings.Fields(sent[0].Text[i+len("Senha: "):])[0]

	acc, err := f.accounts.GetByEmail(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	assert.NoError(t, auth.VerifyPassword(password, acc.PasswordHash))
}

func TestHandleExistingAccountKeepsPassword(t *testing.T) {
	f := newFixture(t, true)
	hash, err := auth.HashPassword("original-password")
	require.NoError(t, err)
	existing, _, err := f.accounts.Create(context.Background(), "buyer@example.com", hash)
	require.NoError(t, err)
	f.gateway.Set("ABC123", paidTx(models.StatusPaid))

	res, err := f.svc.Handle(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.User)

	acc, err := f.accounts.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.NoError(t, auth.VerifyPassword("original-password", acc.PasswordHash))

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.NotContains(t, sent[0].Text, "Senha:", "an existing account must not receive a password it cannot use")
}

func TestHandleRepeatedNotificationIsIdempotent(t *testing.T) {
	f := newFixture(t, false)
	f.gateway.Set("ABC123", paidTx(models.StatusPaid))

	first, err := f.svc.Handle(context.Background(), "ABC123")
	require.NoError(t, err)
	second, err := f.svc.Handle(context.Background(), "ABC123")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.accounts.Count())
	assert.Equal(t, 1, f.users.Count())
	assert.Len(t, f.mailer.Sent(), 1)
}

func TestHandleStatusChangeUpdatesSameUser(t *testing.T) {
	f := newFixture(t, false)
	f.gateway.Set("N3", paidTx(models.StatusPaid))
	tx4 := paidTx(models.StatusAvailable)
	tx4.Reference = ""
	f.gateway.Set("N4", tx4)

	r3, err := f.svc.Handle(context.Background(), "N3")
	require.NoError(t, err)
	r4, err := f.svc.Handle(context.Background(), "N4")
	require.NoError(t, err)

	assert.Equal(t, r3.User, r4.User)
	assert.Equal(t, 1, f.users.Count())
	u, err := f.users.GetByID(context.Background(), r4.User)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, u.PagSeguro.Status)
	assert.Empty(t, u.PagSeguro.Reference)
	assert.Len(t, f.mailer.Sent(), 2)
}

func TestHandleUnconfirmedWritesLog(t *testing.T) {
	for _, status := range []models.TransactionStatus{models.StatusAwaitingPayment, models.StatusCancelled, "42"} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, false)
			f.gateway.Set("N1", paidTx(status))

			res, err := f.svc.Handle(context.Background(), "N1")
			require.NoError(t, err)
			assert.Equal(t, Result{Success: false, Status: string(status)}, res)

			entries := f.logs.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, "N1", entries[0].NotificationCode)
			assert.Equal(t, status, entries[0].Status)
			assert.False(t, entries[0].ReceivedAt.IsZero())

			assert.Equal(t, 0, f.accounts.Count())
			assert.Equal(t, 0, f.users.Count())
			assert.Empty(t, f.mailer.Sent())
		})
	}
}

func TestHandleGatewayFailureWritesNothing(t *testing.T) {
	f := newFixture(t, false)
	f.gateway.Err = errors.New("connection refused")

	_, err := f.svc.Handle(context.Background(), "ABC123")
	assert.ErrorIs(t, err, ErrGatewayResponse)

	// unknown code: fake answers with no transaction
	f.gateway.Err = nil
	_, err = f.svc.Handle(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrGatewayResponse)

	assert.Empty(t, f.logs.Entries())
	assert.Equal(t, 0, f.accounts.Count())
	assert.Empty(t, f.mailer.Sent())
}

func TestHandleLookupFailureIsFatal(t *testing.T) {
	f := newFixture(t, false)
	boom := errors.New("identity provider unavailable")
	f.accounts.LookupFn = func(string) error { return boom }
	f.gateway.Set("ABC123", paidTx(models.StatusPaid))

	_, err := f.svc.Handle(context.Background(), "ABC123")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrGatewayResponse)
	assert.Equal(t, 0, f.accounts.Count())
	assert.Empty(t, f.mailer.Sent())
}

func TestHandleMissingSenderEmail(t *testing.T) {
	f := newFixture(t, false)
	tx := paidTx(models.StatusPaid)
	tx.Sender.Email = ""
	f.gateway.Set("ABC123", tx)

	_, err := f.svc.Handle(context.Background(), "ABC123")
	assert.ErrorIs(t, err, ErrMissingSenderEmail)
}

func TestHandleMailFailureLeavesUserWithoutProcessedMark(t *testing.T) {
	f := newFixture(t, false)
	f.mailer.Err = errors.New("smtp down")
	f.gateway.Set("ABC123", paidTx(models.StatusPaid))

	_, err := f.svc.Handle(context.Background(), "ABC123")
	require.Error(t, err)
	assert.Equal(t, 1, f.accounts.Count())
	assert.Equal(t, 1, f.users.Count())

	// the gateway retries; now the mail goes through against the same account
	f.mailer.Err = nil
	res, err := f.svc.Handle(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, f.accounts.Count())
	assert.Len(t, f.mailer.Sent(), 1)
}

func TestCompleteSetupIsSingleUse(t *testing.T) {
	f := newFixture(t, false)
	f.gateway.Set("ABC123", paidTx(models.StatusPaid))
	res, err := f.svc.Handle(context.Background(), "ABC123")
	require.NoError(t, err)

	token := setupToken(t, f.mailer.Sent()[0].Text)

	require.ErrorIs(t, f.acctSvc.CompleteSetup(context.Background(), token, "short"), ErrWeakPassword)
	require.NoError(t, f.acctSvc.CompleteSetup(context.Background(), token, "a-new-password"))
	assert.ErrorIs(t, f.acctSvc.CompleteSetup(context.Background(), token, "another-password"), ErrSetupTokenUsed)

	acc, err := f.accounts.GetByID(context.Background(), res.User)
	require.NoError(t, err)
	assert.NoError(t, auth.VerifyPassword("a-new-password", acc.PasswordHash))
	assert.Nil(t, acc.SetupTokenID)

	assert.ErrorIs(t, f.acctSvc.CompleteSetup(context.Background(), "garbage", "a-new-password"), auth.ErrInvalidToken)
}

func TestNewerSetupLinkSupersedesOlder(t *testing.T) {
	f := newFixture(t, false)
	acc, _, err := f.acctSvc.Ensure(context.Background(), "buyer@example.com", "initial-password")
	require.NoError(t, err)

	first, err := f.acctSvc.SetupLink(context.Background(), acc)
	require.NoError(t, err)
	second, err := f.acctSvc.SetupLink(context.Background(), acc)
	require.NoError(t, err)

	assert.ErrorIs(t, f.acctSvc.CompleteSetup(context.Background(), setupToken(t, first), "a-new-password"), ErrSetupTokenUsed)
	assert.NoError(t, f.acctSvc.CompleteSetup(context.Background(), setupToken(t, second), "a-new-password"))
}
