//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"hostilerust-bot/internal/domain"
	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/adapter"
	"hostilerust-bot/internal/domain/ports/repository"
)

// =============================
// Repositories (in-memory)
// =============================

// memUserRepo is a small in-memory implementation used by unit tests.
// All methods ignore the opaque tx handle, mirroring the NoTX path.
type memUserRepo struct {
	mu      sync.RWMutex
	store   map[int64]*model.User // by TelegramID, insertion iteration via order
	order   []int64
	history *memIssuanceRepo // backs ListNeverIssued; nil means "nobody issued"
	saveErr error            // used by tests to simulate save failures

	FindByTelegramIDFunc func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[int64]*model.User)}
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[u.TelegramID]; !ok {
		m.order = append(m.order, u.TelegramID)
	}
	cp := *u
	m.store[u.TelegramID] = &cp
	return nil
}

func (m *memUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if m.FindByTelegramIDFunc != nil {
		return m.FindByTelegramIDFunc(ctx, tx, tgID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.User, 0, len(m.order))
	for _, tg := range m.order {
		cp := *m.store[tg]
		out = append(out, &cp)
	}
	if offset > 0 && offset < len(out) {
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memUserRepo) ListNeverIssued(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var counts map[string]int
	if m.history != nil {
		counts, _ = m.history.CountByUser(ctx, tx)
	}
	out := make([]*model.User, 0, len(m.order))
	for _, tg := range m.order {
		u := m.store[tg]
		if counts[u.ID] > 0 {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *memUserRepo) SetLastIssuedAt(ctx context.Context, tx repository.Tx, userID string, issuedAt, notAfter time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.ID != userID {
			continue
		}
		if u.LastIssuedAt != nil && u.LastIssuedAt.After(notAfter) {
			return false, nil
		}
		ts := issuedAt
		u.LastIssuedAt = &ts
		return true, nil
	}
	return false, domain.ErrNotFound
}

// mustUser inserts a user directly into the store and returns it.
func mustUser(repo *memUserRepo, tgID int64, firstName, username string) *model.User {
	u, err := model.NewUser("", tgID, firstName, username)
	if err != nil {
		panic(err)
	}
	if err := repo.Save(context.Background(), repository.NoTX, u); err != nil {
		panic(err)
	}
	return u
}

// setLastIssued overwrites a user's stamp in place, bypassing the CAS guard.
func setLastIssued(repo *memUserRepo, tgID int64, at time.Time) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	ts := at
	repo.store[tgID].LastIssuedAt = &ts
}

// ---- Promo pool ----

type memPromoRepo struct {
	mu    sync.RWMutex
	store map[string]*model.PromoCode // by code string
	order []string
}

func newMemPromoRepo() *memPromoRepo {
	return &memPromoRepo{store: make(map[string]*model.PromoCode)}
}

var _ repository.PromoCodeRepository = (*memPromoRepo)(nil)

func (m *memPromoRepo) Add(ctx context.Context, tx repository.Tx, code *model.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *code
	m.store[code.Code] = &cp
	m.order = append(m.order, code.Code)
	return nil
}

func (m *memPromoRepo) RemoveByCode(ctx context.Context, tx repository.Tx, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[code]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, code)
	for i, c := range m.order {
		if c == code {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memPromoRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.PromoCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.PromoCode, 0, len(m.order))
	for _, c := range m.order {
		cp := *m.store[c]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPromoRepo) PurgeCreatedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	kept := m.order[:0]
	for _, c := range m.order {
		if m.store[c].CreatedAt.Before(cutoff) {
			delete(m.store, c)
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.order = kept
	return n, nil
}

func (m *memPromoRepo) PickRandom(ctx context.Context, tx repository.Tx) (*model.PromoCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return nil, domain.ErrPoolExhausted
	}
	cp := *m.store[m.order[0]]
	return &cp, nil
}

// backdate rewrites a pool entry's creation time so expiry tests can age it.
func backdate(repo *memPromoRepo, code string, createdAt time.Time) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.store[code].CreatedAt = createdAt
}

// ---- Issuance ledger ----

type memIssuanceRepo struct {
	mu      sync.RWMutex
	records []*model.IssuanceRecord // append order
}

func newMemIssuanceRepo() *memIssuanceRepo {
	return &memIssuanceRepo{}
}

var _ repository.IssuanceRepository = (*memIssuanceRepo)(nil)

func (m *memIssuanceRepo) Append(ctx context.Context, tx repository.Tx, rec *model.IssuanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *memIssuanceRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.IssuanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.IssuanceRecord, 0)
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			cp := *m.records[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memIssuanceRepo) CountAll(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *memIssuanceRepo) CountByUser(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for _, r := range m.records {
		out[r.UserID]++
	}
	return out, nil
}

// ---- Tickets ----

type memTicketRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Ticket
	order   []string
	saveErr error // used by tests to simulate save failures
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{store: make(map[string]*model.Ticket)}
}

var _ repository.TicketRepository = (*memTicketRepo)(nil)

func (m *memTicketRepo) Save(ctx context.Context, tx repository.Tx, t *model.Ticket) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *memTicketRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTicketRepo) ListOpen(ctx context.Context, tx repository.Tx) ([]*model.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Ticket, 0)
	for _, id := range m.order {
		if m.store[id].Status == model.TicketOpen {
			cp := *m.store[id]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// =============================
// Infrastructure doubles
// =============================

// ---- Transaction manager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately with NoTX unless a test installs a
// custom WithTxFunc to exercise transactional behavior.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Locker (implements redis.Locker port) ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrRateLimited
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

// hold marks a key as locked by somebody else.
func (l *MockLocker) hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = "held-elsewhere"
}

// ---- Telegram bot ----

type sentMessage struct {
	TelegramID int64
	Text       string
}

type MockTelegramBot struct {
	mu   sync.Mutex
	Sent []sentMessage

	SendMessageFunc func(ctx context.Context, telegramID int64, text string) error
	SendButtonsFunc func(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, telegramID int64, text string) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, telegramID, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{TelegramID: telegramID, Text: text})
	return nil
}

func (m *MockTelegramBot) SendButtons(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	if m.SendButtonsFunc != nil {
		return m.SendButtonsFunc(ctx, telegramID, text, rows)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{TelegramID: telegramID, Text: text})
	return nil
}

func (m *MockTelegramBot) sentTo(tgID int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, 0)
	for _, s := range m.Sent {
		if s.TelegramID == tgID {
			out = append(out, s)
		}
	}
	return out
}

// ---- Redis client (backs the rate limiter in ticket tests) ----

type memRedis struct {
	mu       sync.Mutex
	counters map[string]int64
	expiry   map[string]time.Time
}

func newMemRedis() *memRedis {
	return &memRedis{counters: map[string]int64{}, expiry: map[string]time.Time{}}
}

func (r *memRedis) Ping(ctx context.Context) error { return nil }

func (r *memRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (r *memRedis) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("redis: nil")
}

func (r *memRedis) Incr(ctx context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if exp, ok := r.expiry[key]; ok && time.Now().After(exp) {
		delete(r.counters, key)
		delete(r.expiry, key)
	}
	r.counters[key]++
	return r.counters[key], nil
}

func (r *memRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expiry[key] = time.Now().Add(expiration)
	return nil
}

func (r *memRedis) Del(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.counters, k)
		delete(r.expiry, k)
	}
	return nil
}

func (r *memRedis) Close() error { return nil }

// expireNow forces a key's window to be over.
func (r *memRedis) expireNow(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expiry[key] = time.Now().Add(-time.Second)
}

// =============================
// Helpers
// =============================

// recordFor builds one issuance record for seeding the ledger.
func recordFor(userID, code string) *model.IssuanceRecord {
	return model.NewIssuanceRecord(userID, code, time.Now())
}

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
