package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mdappsolutions/bellasjob-api/internal/models"
	repo "github.com/mdappsolutions/bellasjob-api/internal/repository"
)

// InMemoryAccounts mirrors the accounts table, including the unique email.
type InMemoryAccounts struct {
	mu       sync.Mutex
	byID     map[string]*models.Account
	byEmail  map[string]string
	LookupFn func(email string) error // optional injected lookup failure
}

func NewInMemoryAccounts() *InMemoryAccounts {
	return &InMemoryAccounts{byID: map[string]*models.Account{}, byEmail: map[string]string{}}
}

func (r *InMemoryAccounts) GetByEmail(_ context.Context, email string) (models.Account, error) {
	if r.LookupFn != nil {
		if err := r.LookupFn(email); err != nil {
			return models.Account{}, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return models.Account{}, repo.ErrNotFound
	}
	return *r.byID[id], nil
}

func (r *InMemoryAccounts) GetByID(_ context.Context, id string) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return models.Account{}, repo.ErrNotFound
	}
	return *a, nil
}

func (r *InMemoryAccounts) Create(_ context.Context, email, hash string) (models.Account, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byEmail[email]; ok {
		return *r.byID[id], false, nil
	}
	now := time.Now()
	a := &models.Account{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}
	r.byID[a.ID] = a
	r.byEmail[email] = a.ID
	return *a, true, nil
}

func (r *InMemoryAccounts) SetSetupToken(_ context.Context, id, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.SetupTokenID = &tokenID
	a.UpdatedAt = time.Now()
	return nil
}

func (r *InMemoryAccounts) ConsumeSetupToken(_ context.Context, id, tokenID, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok || a.SetupTokenID == nil || *a.SetupTokenID != tokenID {
		return false, nil
	}
	a.PasswordHash = hash
	a.SetupTokenID = nil
	a.UpdatedAt = time.Now()
	return true, nil
}

func (r *InMemoryAccounts) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// InMemoryUsers applies the same shallow merge as the jsonb || upsert.
type InMemoryUsers struct {
	mu    sync.Mutex
	users map[string]models.UserRecord
}

func NewInMemoryUsers() *InMemoryUsers {
	return &InMemoryUsers{users: map[string]models.UserRecord{}}
}

func (r *InMemoryUsers) Upsert(_ context.Context, u models.UserRecord) (models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if cur, ok := r.users[u.UserID]; ok {
		cur.Email = u.Email
		cur.PagSeguro = u.PagSeguro
		cur.UpdatedAt = now
		r.users[u.UserID] = cur
		return cur, nil
	}
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.UserID] = u
	return u, nil
}

func (r *InMemoryUsers) GetByID(_ context.Context, id string) (models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return models.UserRecord{}, repo.ErrNotFound
	}
	return u, nil
}

func (r *InMemoryUsers) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type InMemoryLogs struct {
	mu      sync.Mutex
	entries []models.NotificationLog
}

func NewInMemoryLogs() *InMemoryLogs { return &InMemoryLogs{} }

func (r *InMemoryLogs) Append(_ context.Context, l models.NotificationLog) (models.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.ReceivedAt = time.Now()
	r.entries = append(r.entries, l)
	return l, nil
}

func (r *InMemoryLogs) Entries() []models.NotificationLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.NotificationLog(nil), r.entries...)
}

type InMemoryProcessed struct {
	mu   sync.Mutex
	done map[string]models.ProcessedNotification
}

func NewInMemoryProcessed() *InMemoryProcessed {
	return &InMemoryProcessed{done: map[string]models.ProcessedNotification{}}
}

func processedKey(code string, status models.TransactionStatus) string {
	return code + "|" + string(status)
}

func (r *InMemoryProcessed) Get(_ context.Context, code string, status models.TransactionStatus) (models.ProcessedNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.done[processedKey(code, status)]
	if !ok {
		return models.ProcessedNotification{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *InMemoryProcessed) Mark(_ context.Context, p models.ProcessedNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := processedKey(p.TransactionCode, p.Status)
	if _, ok := r.done[k]; ok {
		return nil
	}
	p.ProcessedAt = time.Now()
	r.done[k] = p
	return nil
}
