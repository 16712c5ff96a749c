package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
	"github.com/peliculas/catalog-api/internal/infrastructure/security"
)

type accountFixture struct {
	store  *memStore
	hasher *fakeHasher
	issuer *fakeIssuer
	audit  *captureRecorder
	svc    *AccountService
}

func newAccountFixture() *accountFixture {
	f := &accountFixture{
		store:  newMemStore(),
		hasher: &fakeHasher{},
		issuer: &fakeIssuer{},
		audit:  &captureRecorder{},
	}
	roles := NewRoleProvisioner(f.store, discardLogger)
	f.svc = NewAccountService(f.store, roles, f.hasher, f.issuer, f.audit, discardLogger)
	return f
}

func aliceInput() ports.RegisterInput {
	return ports.RegisterInput{
		Username:    "alice",
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Password:    "Secr3t!",
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAccountService_Register_Success(t *testing.T) {
	f := newAccountFixture()

	acc, err := f.svc.Register(context.Background(), aliceInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.ID == "" {
		t.Error("ID must be assigned")
	}
	if acc.Username != "alice" || acc.Email != "alice@example.com" || acc.DisplayName != "Alice" {
		t.Errorf("unexpected public account: %+v", acc)
	}

	stored, err := f.store.FindByID(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("account not persisted: %v", err)
	}
	if stored.PasswordHash == "Secr3t!" || stored.PasswordHash == "" {
		t.Errorf("password must be stored hashed, got %q", stored.PasswordHash)
	}
	if stored.NormalizedUsername != "ALICE" || stored.NormalizedEmail != "ALICE@EXAMPLE.COM" {
		t.Errorf("normalized keys wrong: %q %q", stored.NormalizedUsername, stored.NormalizedEmail)
	}

	roles, _ := f.store.RolesOf(context.Background(), acc.ID)
	if len(roles) != 1 || roles[0] != domain.RoleRegistered {
		t.Errorf("expected [%s], got %v", domain.RoleRegistered, roles)
	}

	ev := f.audit.last()
	if ev.Kind != domain.AuditRegistration || ev.Outcome != domain.OutcomeSuccess || ev.AccountID != acc.ID {
		t.Errorf("unexpected audit event: %+v", ev)
	}
}

func TestAccountService_Register_CreatesMissingRole(t *testing.T) {
	f := newAccountFixture()

	if _, err := f.svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, _ := f.store.RoleExists(context.Background(), domain.RoleRegistered)
	if !ok {
		t.Error("Registered role must be created on first registration")
	}
}

func TestAccountService_Register_DefaultsDisplayName(t *testing.T) {
	f := newAccountFixture()
	in := aliceInput()
	in.DisplayName = "  "

	acc, err := f.svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.DisplayName != "alice" {
		t.Errorf("expected display name to default to username, got %q", acc.DisplayName)
	}
}

func TestAccountService_Register_InvalidInput(t *testing.T) {
	cases := map[string]func(*ports.RegisterInput){
		"blank username": func(in *ports.RegisterInput) { in.Username = "   " },
		"blank email":    func(in *ports.RegisterInput) { in.Email = "" },
		"blank password": func(in *ports.RegisterInput) { in.Password = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newAccountFixture()
			in := aliceInput()
			mutate(&in)

			_, err := f.svc.Register(context.Background(), in)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if f.store.count() != 0 {
				t.Error("nothing must be persisted")
			}
		})
	}
}

func TestAccountService_Register_DuplicateUsername(t *testing.T) {
	f := newAccountFixture()
	if _, err := f.svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	in := aliceInput()
	in.Username = "ALICE"
	in.Email = "other@example.com"
	_, err := f.svc.Register(context.Background(), in)
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if f.store.count() != 1 {
		t.Errorf("account count must be unchanged, got %d", f.store.count())
	}
	if ev := f.audit.last(); ev.Outcome != domain.OutcomeFailure || ev.Reason != "duplicate_username" {
		t.Errorf("unexpected audit event: %+v", ev)
	}
}

func TestAccountService_Register_DuplicateEmail(t *testing.T) {
	f := newAccountFixture()
	if _, err := f.svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	in := aliceInput()
	in.Username = "alice2"
	in.Email = "Alice@Example.com"
	_, err := f.svc.Register(context.Background(), in)
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if f.store.count() != 1 {
		t.Errorf("account count must be unchanged, got %d", f.store.count())
	}
}

func TestAccountService_Register_RoleFailureRollsBack(t *testing.T) {
	f := newAccountFixture()
	f.store.assignErr = errors.New("connection reset")

	_, err := f.svc.Register(context.Background(), aliceInput())
	if !errors.Is(err, domain.ErrRegistrationFailed) {
		t.Fatalf("expected ErrRegistrationFailed, got %v", err)
	}
	if f.store.count() != 0 {
		t.Error("a failed role assignment must not leave an account behind")
	}
}

func TestAccountService_Register_LookupFailure(t *testing.T) {
	f := newAccountFixture()
	f.store.findErr = errors.New("db down")

	_, err := f.svc.Register(context.Background(), aliceInput())
	if !errors.Is(err, domain.ErrRegistrationFailed) {
		t.Fatalf("expected ErrRegistrationFailed, got %v", err)
	}
}

func TestAccountService_Register_OverlongPasswordIsInvalidInput(t *testing.T) {
	f := newAccountFixture()
	roles := NewRoleProvisioner(f.store, discardLogger)
	svc := NewAccountService(f.store, roles, security.NewBcryptHasher(bcrypt.MinCost), f.issuer, f.audit, discardLogger)

	in := aliceInput()
	in.Password = strings.Repeat("x", 100)

	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if errors.Is(err, domain.ErrRegistrationFailed) {
		t.Errorf("client input error must not surface as a registration failure: %v", err)
	}
	if f.store.count() != 0 {
		t.Error("no account may be created")
	}
	if got := f.audit.last(); got.Reason != "invalid_password" {
		t.Errorf("expected audit reason invalid_password, got %q", got.Reason)
	}
}

func TestAccountService_Register_ConcurrentSameUsername(t *testing.T) {
	f := newAccountFixture()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Register(context.Background(), ports.RegisterInput{
				Username: "bob",
				Email:    "bob" + string(rune('a'+i)) + "@example.com",
				Password: "pw",
			})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateUsername):
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != n-1 {
		t.Errorf("expected exactly one winner, got ok=%d dup=%d", ok, dup)
	}
	if f.store.count() != 1 {
		t.Errorf("expected 1 stored account, got %d", f.store.count())
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAccountService_Login_Success(t *testing.T) {
	f := newAccountFixture()
	acc, _ := f.svc.Register(context.Background(), aliceInput())

	res, err := f.svc.Login(context.Background(), "alice", "Secr3t!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token != "token:"+acc.ID+":"+domain.RoleRegistered {
		t.Errorf("unexpected token: %q", res.Token)
	}
	if res.Account == nil || res.Account.ID != acc.ID {
		t.Errorf("login must return the public account, got %+v", res.Account)
	}
	if ev := f.audit.last(); ev.Kind != domain.AuditLogin || ev.Outcome != domain.OutcomeSuccess {
		t.Errorf("unexpected audit event: %+v", ev)
	}
}

func TestAccountService_Login_UsernameIsCaseInsensitive(t *testing.T) {
	f := newAccountFixture()
	_, _ = f.svc.Register(context.Background(), aliceInput())

	if _, err := f.svc.Login(context.Background(), "ALICE", "Secr3t!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAccountService_Login_WrongPassword(t *testing.T) {
	f := newAccountFixture()
	_, _ = f.svc.Register(context.Background(), aliceInput())

	_, err := f.svc.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if ev := f.audit.last(); ev.Reason != "bad_password" {
		t.Errorf("unexpected audit reason %q", ev.Reason)
	}
}

func TestAccountService_Login_UnknownUserIsIndistinguishable(t *testing.T) {
	f := newAccountFixture()
	_, _ = f.svc.Register(context.Background(), aliceInput())

	_, errUnknown := f.svc.Login(context.Background(), "mallory", "Secr3t!")
	_, errWrong := f.svc.Login(context.Background(), "alice", "nope")

	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) || !errors.Is(errWrong, domain.ErrInvalidCredentials) {
		t.Fatalf("both failures must be ErrInvalidCredentials: %v / %v", errUnknown, errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("messages differ: %q vs %q", errUnknown, errWrong)
	}
	if f.hasher.verifyCalls != 2 {
		t.Errorf("unknown usernames must still run a verification, got %d verify calls", f.hasher.verifyCalls)
	}
}

func TestAccountService_Login_MissingCredentials(t *testing.T) {
	f := newAccountFixture()

	_, err := f.svc.Login(context.Background(), "", "")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountService_Login_NoRole(t *testing.T) {
	f := newAccountFixture()
	_, _ = f.store.Create(context.Background(), &domain.Account{
		ID:                 "orphan-1",
		Username:           "orphan",
		NormalizedUsername: "ORPHAN",
		Email:              "orphan@example.com",
		NormalizedEmail:    "ORPHAN@EXAMPLE.COM",
		PasswordHash:       "hashed:pw",
		CreatedAt:          time.Now(),
	})

	_, err := f.svc.Login(context.Background(), "orphan", "pw")
	if !errors.Is(err, domain.ErrNoRoleAssigned) {
		t.Fatalf("expected ErrNoRoleAssigned, got %v", err)
	}
	if f.issuer.lastRole != "" {
		t.Error("no token may be issued for an account without role")
	}
}

func TestAccountService_Login_PicksMostPrivilegedRole(t *testing.T) {
	f := newAccountFixture()
	acc, _ := f.svc.Register(context.Background(), aliceInput())
	if err := f.svc.GrantRole(context.Background(), acc.ID, "admin"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	if _, err := f.svc.Login(context.Background(), "alice", "Secr3t!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.issuer.lastRole != domain.RoleAdmin {
		t.Errorf("expected %q, got %q", domain.RoleAdmin, f.issuer.lastRole)
	}
}

func TestAccountService_Login_IssuerError(t *testing.T) {
	f := newAccountFixture()
	_, _ = f.svc.Register(context.Background(), aliceInput())
	f.issuer.err = errors.New("signing failed")

	res, err := f.svc.Login(context.Background(), "alice", "Secr3t!")
	if err == nil || res != nil {
		t.Fatalf("expected error and no result, got %v / %+v", err, res)
	}
}

// ---------------------------------------------------------------------------
// Admin operations and queries
// ---------------------------------------------------------------------------

func TestAccountService_GrantRole_UnknownRole(t *testing.T) {
	f := newAccountFixture()
	acc, _ := f.svc.Register(context.Background(), aliceInput())

	err := f.svc.GrantRole(context.Background(), acc.ID, "Superuser")
	if !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestAccountService_GrantRole_UnknownAccount(t *testing.T) {
	f := newAccountFixture()

	err := f.svc.GrantRole(context.Background(), "missing", domain.RoleAdmin)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_SeedAdmin(t *testing.T) {
	f := newAccountFixture()
	seed := ports.AdminSeed{Username: "root", Email: "root@example.com", Password: "toor"}

	if err := f.svc.SeedAdmin(context.Background(), seed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.SeedAdmin(context.Background(), seed); err != nil {
		t.Fatalf("second seed must be a no-op, got %v", err)
	}
	if f.store.count() != 1 {
		t.Errorf("expected 1 account, got %d", f.store.count())
	}

	if _, err := f.svc.Login(context.Background(), "root", "toor"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if f.issuer.lastRole != domain.RoleAdmin {
		t.Errorf("seeded account must log in as Admin, got %q", f.issuer.lastRole)
	}
}

func TestAccountService_SeedAdmin_SkippedWithoutUsername(t *testing.T) {
	f := newAccountFixture()

	if err := f.svc.SeedAdmin(context.Background(), ports.AdminSeed{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.store.count() != 0 {
		t.Error("no account may be created without a configured username")
	}
}

func TestAccountService_SeedAdmin_RequiresPassword(t *testing.T) {
	f := newAccountFixture()

	err := f.svc.SeedAdmin(context.Background(), ports.AdminSeed{Username: "root"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAccountService_ListAndGet(t *testing.T) {
	f := newAccountFixture()
	for _, name := range []string{"zoe", "bob", "alice"} {
		_, err := f.svc.Register(context.Background(), ports.RegisterInput{
			Username: name, Email: name + "@example.com", Password: "pw",
		})
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	list, err := f.svc.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, a := range list {
		names = append(names, a.Username)
	}
	if strings.Join(names, ",") != "alice,bob,zoe" {
		t.Errorf("expected accounts ordered by username, got %v", names)
	}

	got, err := f.svc.GetAccount(context.Background(), list[1].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Username != "bob" {
		t.Errorf("expected bob, got %q", got.Username)
	}

	if _, err := f.svc.GetAccount(context.Background(), "nope"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_RecordsRequestMeta(t *testing.T) {
	f := newAccountFixture()
	ctx := ports.WithRequestMeta(context.Background(), ports.RequestMeta{RemoteIP: "10.0.0.1", RequestID: "req-1"})

	_, _ = f.svc.Login(ctx, "ghost", "pw")

	ev := f.audit.last()
	if ev.RemoteIP != "10.0.0.1" || ev.RequestID != "req-1" {
		t.Errorf("request metadata not propagated: %+v", ev)
	}
}

func TestAccountService_NilRecorder(t *testing.T) {
	store := newMemStore()
	svc := NewAccountService(store, NewRoleProvisioner(store, discardLogger), &fakeHasher{}, &fakeIssuer{}, nil, discardLogger)

	if _, err := svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
