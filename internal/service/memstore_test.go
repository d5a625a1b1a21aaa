package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fsdevblog/groph-trader/internal/domain"
	"github.com/fsdevblog/groph-trader/internal/repository/repoargs"
	"github.com/fsdevblog/groph-trader/pkg/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore хранилище в памяти с семантикой unit of work: изменения внутри Do откатываются, если fn или коммит
// вернули ошибку. Операции выполняются строго последовательно.
type memStore struct {
	mu           sync.Mutex
	users        map[int64]domain.User
	transactions []domain.Transaction
	nextUserID   int64
	nextTransID  int64

	// внедряемые сбои.
	failCreate error
	failCommit error
}

type memState struct {
	Users        map[int64]domain.User
	Transactions []domain.Transaction
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]domain.User)}
}

func (m *memStore) addUser(cash decimal.Decimal) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUserID++
	m.users[m.nextUserID] = domain.User{
		ID:       m.nextUserID,
		Username: fmt.Sprintf("user%d", m.nextUserID),
		Cash:     cash,
	}
	return m.nextUserID
}

// state возвращает копию текущего состояния.
func (m *memStore) state() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *memStore) snapshot() memState {
	users := make(map[int64]domain.User, len(m.users))
	for id, u := range m.users {
		users[id] = u
	}
	return memState{Users: users, Transactions: slices.Clone(m.transactions)}
}

func (m *memStore) restore(s memState) {
	m.users = s.Users
	m.transactions = s.Transactions
}

type memUOW struct {
	store *memStore
}

func (u *memUOW) Register(_ uow.RepositoryName, _ uow.RepositoryFactory) error {
	return nil
}

func (u *memUOW) Do(ctx context.Context, fn func(context.Context, uow.TX) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	before := u.store.snapshot()
	err := fn(ctx, &memTX{store: u.store})
	if err == nil {
		err = u.store.failCommit
	}
	if err != nil {
		u.store.restore(before)
		return err
	}
	return nil
}

func (u *memUOW) DoReadOnly(ctx context.Context, fn func(context.Context, uow.TX) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	before := u.store.snapshot()
	defer u.store.restore(before)
	return fn(ctx, &memTX{store: u.store})
}

func (u *memUOW) GetRepository(name uow.RepositoryName) (uow.Repository, error) {
	return memRepository(u.store, name, true)
}

type memTX struct {
	store *memStore
}

func (t *memTX) Get(name uow.RepositoryName) (uow.Repository, error) {
	return memRepository(t.store, name, false)
}

func memRepository(store *memStore, name uow.RepositoryName, locking bool) (uow.Repository, error) {
	switch repoargs.RepositoryName(name) {
	case repoargs.UserRepoName:
		return &memUserRepo{store: store, locking: locking}, nil
	case repoargs.TransactionRepoName:
		return &memTransRepo{store: store, locking: locking}, nil
	default:
		return nil, uow.ErrRepositoryNotRegistered
	}
}

// memUserRepo вне транзакции (locking) сам захватывает мьютекс хранилища.
type memUserRepo struct {
	store   *memStore
	locking bool
}

func (r *memUserRepo) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memUserRepo) CreateUser(_ context.Context, user repoargs.CreateUser) (*domain.User, error) {
	defer r.lock()()
	for _, u := range r.store.users {
		if u.Username == user.Username {
			return nil, domain.ErrDuplicateKey
		}
	}
	r.store.nextUserID++
	created := domain.User{
		ID:       r.store.nextUserID,
		Username: user.Username,
		Password: user.Password,
		Cash:     user.Cash,
	}
	r.store.users[created.ID] = created
	return &created, nil
}

func (r *memUserRepo) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	defer r.lock()()
	for _, u := range r.store.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *memUserRepo) UpdatePassword(_ context.Context, userID int64, encryptedPassword string) error {
	defer r.lock()()
	u, ok := r.store.users[userID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	u.Password = encryptedPassword
	r.store.users[userID] = u
	return nil
}

func (r *memUserRepo) GetCash(_ context.Context, userID int64) (decimal.Decimal, error) {
	defer r.lock()()
	u, ok := r.store.users[userID]
	if !ok {
		return decimal.Zero, domain.ErrRecordNotFound
	}
	return u.Cash, nil
}

func (r *memUserRepo) LockCash(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return r.GetCash(ctx, userID)
}

func (r *memUserRepo) AddCash(_ context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	defer r.lock()()
	u, ok := r.store.users[userID]
	if !ok {
		return decimal.Zero, domain.ErrRecordNotFound
	}
	cash := u.Cash.Add(delta)
	if cash.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: users_cash_non_negative", domain.ErrConstraintViolation)
	}
	u.Cash = cash
	r.store.users[userID] = u
	return cash, nil
}

type memTransRepo struct {
	store   *memStore
	locking bool
}

func (r *memTransRepo) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memTransRepo) Create(_ context.Context, t repoargs.TransactionCreate) (*domain.Transaction, error) {
	defer r.lock()()
	if r.store.failCreate != nil {
		return nil, r.store.failCreate
	}
	for _, existing := range r.store.transactions {
		if existing.OperationID == t.OperationID {
			return nil, domain.ErrDuplicateKey
		}
	}
	r.store.nextTransID++
	created := domain.Transaction{
		ID:          r.store.nextTransID,
		CreatedAt:   time.Now(),
		UserID:      t.UserID,
		OperationID: t.OperationID,
		Kind:        t.Kind,
		Symbol:      t.Symbol,
		Shares:      t.Shares,
		SharePrice:  t.SharePrice,
		Amount:      t.Amount,
	}
	r.store.transactions = append(r.store.transactions, created)
	return &created, nil
}

func (r *memTransRepo) FindByOperationID(_ context.Context, operationID uuid.UUID) (*domain.Transaction, error) {
	defer r.lock()()
	for _, t := range r.store.transactions {
		if t.OperationID == operationID {
			return &t, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *memTransRepo) GetByUserID(_ context.Context, userID int64) ([]domain.Transaction, error) {
	defer r.lock()()
	result := make([]domain.Transaction, 0)
	for _, t := range r.store.transactions {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (r *memTransRepo) SumShares(_ context.Context, userID int64, symbol string) (int64, error) {
	defer r.lock()()
	var sum int64
	for _, t := range r.store.transactions {
		if t.UserID == userID && t.Symbol == symbol {
			sum += t.Shares
		}
	}
	return sum, nil
}

func (r *memTransRepo) GetPositions(_ context.Context, userID int64) ([]domain.Position, error) {
	defer r.lock()()
	sums := make(map[string]int64)
	for _, t := range r.store.transactions {
		if t.UserID == userID && t.Symbol != "" {
			sums[t.Symbol] += t.Shares
		}
	}
	positions := make([]domain.Position, 0, len(sums))
	for symbol, shares := range sums {
		if shares != 0 {
			positions = append(positions, domain.Position{Symbol: symbol, Shares: shares})
		}
	}
	slices.SortFunc(positions, func(a, b domain.Position) int {
		switch {
		case a.Symbol < b.Symbol:
			return -1
		case a.Symbol > b.Symbol:
			return 1
		}
		return 0
	})
	return positions, nil
}

// fakeQuotes котировки с фиксированными ценами. Тикер из unavailable отвечает domain.ErrQuoteUnavailable,
// неизвестный тикер - domain.ErrInvalidSymbol.
type fakeQuotes struct {
	mu          sync.Mutex
	prices      map[string]decimal.Decimal
	unavailable map[string]bool
	calls       int
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		prices:      make(map[string]decimal.Decimal),
		unavailable: make(map[string]bool),
	}
}

func (f *fakeQuotes) setPrice(symbol string, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = decimal.RequireFromString(price)
}

func (f *fakeQuotes) setUnavailable(symbol string, unavailable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unavailable[symbol] = unavailable
}

func (f *fakeQuotes) Lookup(_ context.Context, symbol string) (*domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.unavailable[symbol] {
		return nil, fmt.Errorf("lookup %s: %w", symbol, domain.ErrQuoteUnavailable)
	}
	price, ok := f.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("lookup %s: %w", symbol, domain.ErrInvalidSymbol)
	}
	return &domain.Quote{Symbol: symbol, Name: symbol + " Inc.", Price: price}, nil
}

func (f *fakeQuotes) LookupMany(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	quotes := make(map[string]domain.Quote, len(symbols))
	for _, symbol := range symbols {
		q, err := f.Lookup(ctx, symbol)
		if err != nil {
			return nil, err
		}
		quotes[symbol] = *q
	}
	return quotes, nil
}
