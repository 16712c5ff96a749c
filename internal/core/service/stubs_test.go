package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory credential store
// ---------------------------------------------------------------------------

// memStore mirrors the relational store: unique normalized usernames and
// emails, and all-or-nothing transactions.
type memStore struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	accounts    map[string]*domain.Account
	roles       map[string]string
	assignments map[string][]string

	assignErr error // if set, AssignRole returns this error
	findErr   error // if set, FindByUsername returns this error
}

func newMemStore() *memStore {
	return &memStore{
		accounts:    make(map[string]*domain.Account),
		roles:       make(map[string]string),
		assignments: make(map[string][]string),
	}
}

func (s *memStore) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	key := domain.Normalize(username)
	for _, a := range s.accounts {
		if a.NormalizedUsername == key {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *memStore) FindByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *memStore) List(_ context.Context) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		clone := *a
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NormalizedUsername < out[j].NormalizedUsername })
	return out, nil
}

func (s *memStore) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.NormalizedUsername == account.NormalizedUsername {
			return nil, domain.ErrDuplicateUsername
		}
		if a.NormalizedEmail == account.NormalizedEmail {
			return nil, domain.ErrDuplicateEmail
		}
	}
	clone := *account
	s.accounts[account.ID] = &clone
	out := clone
	return &out, nil
}

func (s *memStore) RolesOf(_ context.Context, accountID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roles := append([]string(nil), s.assignments[accountID]...)
	sort.SliceStable(roles, func(i, j int) bool { return domain.RoleRank(roles[i]) < domain.RoleRank(roles[j]) })
	return roles, nil
}

func (s *memStore) AssignRole(_ context.Context, accountID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assignErr != nil {
		return s.assignErr
	}
	if _, ok := s.accounts[accountID]; !ok {
		return domain.ErrAccountNotFound
	}
	if _, ok := s.roles[domain.Normalize(role)]; !ok {
		return domain.ErrRoleNotFound
	}
	for _, r := range s.assignments[accountID] {
		if r == role {
			return nil
		}
	}
	s.assignments[accountID] = append(s.assignments[accountID], role)
	return nil
}

func (s *memStore) RoleExists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.roles[domain.Normalize(name)]
	return ok, nil
}

func (s *memStore) CreateRole(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[domain.Normalize(name)]; !ok {
		s.roles[domain.Normalize(name)] = name
	}
	return nil
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx ports.CredentialStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	accounts    map[string]*domain.Account
	roles       map[string]string
	assignments map[string][]string
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		accounts:    make(map[string]*domain.Account, len(s.accounts)),
		roles:       make(map[string]string, len(s.roles)),
		assignments: make(map[string][]string, len(s.assignments)),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.roles {
		snap.roles[k] = v
	}
	for k, v := range s.assignments {
		snap.assignments[k] = append([]string(nil), v...)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.roles = snap.roles
	s.assignments = snap.assignments
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// ---------------------------------------------------------------------------
// Security stubs
// ---------------------------------------------------------------------------

type fakeHasher struct {
	mu          sync.Mutex
	verifyCalls int
}

func (h *fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *fakeHasher) Verify(password, digest string) (bool, error) {
	h.mu.Lock()
	h.verifyCalls++
	h.mu.Unlock()
	if !strings.HasPrefix(digest, "hashed:") {
		return false, errors.New("malformed digest")
	}
	return digest == "hashed:"+password, nil
}

type fakeIssuer struct {
	lastRole string
	err      error
}

func (i *fakeIssuer) Issue(accountID, username, role string) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	i.lastRole = role
	return "token:" + accountID + ":" + role, nil
}

type captureRecorder struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *captureRecorder) Record(e domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *captureRecorder) last() domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return domain.AuditEvent{}
	}
	return r.events[len(r.events)-1]
}

// ---------------------------------------------------------------------------
// In-memory catalog repositories
// ---------------------------------------------------------------------------

type stubCategoryRepo struct {
	byID   map[int64]*domain.Category
	nextID int64
	err    error
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{byID: make(map[int64]*domain.Category)}
}

func (r *stubCategoryRepo) List(_ context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range r.byID {
		clone := *c
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id int64) (*domain.Category, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCategoryRepo) Exists(_ context.Context, id int64) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.byID[id]
	return ok, nil
}

func (r *stubCategoryRepo) Create(_ context.Context, c *domain.Category) error {
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Name, c.Name) {
			return domain.ErrDuplicateCategory
		}
	}
	r.nextID++
	c.ID = r.nextID
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubCategoryRepo) Update(_ context.Context, c *domain.Category) error {
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubCategoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubMovieRepo struct {
	byID       map[int64]*domain.Movie
	nextID     int64
	lastFilter ports.ListMoviesFilter
}

func newStubMovieRepo() *stubMovieRepo {
	return &stubMovieRepo{byID: make(map[int64]*domain.Movie)}
}

// List applies the same filters and ordering as the SQL repository.
func (r *stubMovieRepo) List(_ context.Context, f ports.ListMoviesFilter) ([]*domain.Movie, int64, error) {
	r.lastFilter = f
	var matched []*domain.Movie
	term := strings.ToLower(f.Search)
	for _, m := range r.byID {
		if f.CategoryID != 0 && m.CategoryID != f.CategoryID {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(m.Name), term) &&
			!strings.Contains(strings.ToLower(m.Description), term) {
			continue
		}
		clone := *m
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := int64(len(matched))
	if f.Page > 0 && f.PageSize > 0 {
		start := (f.Page - 1) * f.PageSize
		if start >= len(matched) {
			return []*domain.Movie{}, total, nil
		}
		end := start + f.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *stubMovieRepo) FindByID(_ context.Context, id int64) (*domain.Movie, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrMovieNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *stubMovieRepo) Create(_ context.Context, m *domain.Movie) error {
	r.nextID++
	m.ID = r.nextID
	clone := *m
	r.byID[m.ID] = &clone
	return nil
}

func (r *stubMovieRepo) Update(_ context.Context, m *domain.Movie) error {
	if _, ok := r.byID[m.ID]; !ok {
		return domain.ErrMovieNotFound
	}
	clone := *m
	r.byID[m.ID] = &clone
	return nil
}

func (r *stubMovieRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrMovieNotFound
	}
	delete(r.byID, id)
	return nil
}
