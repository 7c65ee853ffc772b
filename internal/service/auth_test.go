package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	pkgcrypto "github.com/and161185/clinic-keeper/internal/crypto"
	"github.com/and161185/clinic-keeper/internal/errs"
	"github.com/and161185/clinic-keeper/internal/limiter"
	"github.com/and161185/clinic-keeper/internal/model"
	"github.com/and161185/clinic-keeper/internal/repository/kvrepo"
	"github.com/and161185/clinic-keeper/internal/session"
	"github.com/and161185/clinic-keeper/internal/storage"
	"github.com/and161185/clinic-keeper/internal/storage/storagetest"
)

var testHasher = pkgcrypto.NewHasher(pkgcrypto.Params{Time: 1, Memory: 1024})

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, time.Minute, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

type fakeSessions struct {
	cur     *session.Record
	saveErr error
}

var _ SessionStore = (*fakeSessions)(nil)

func (f *fakeSessions) Save(_ context.Context, u model.User) (session.Record, error) {
	if f.saveErr != nil {
		return session.Record{}, f.saveErr
	}
	rec := session.Record{User: u.Public(), Token: "tok-" + u.ID, ExpiresAt: time.Now().Add(time.Hour)}
	f.cur = &rec
	return rec, nil
}
func (f *fakeSessions) Current(context.Context) (session.Record, bool, error) {
	if f.cur == nil {
		return session.Record{}, false, nil
	}
	return *f.cur, true, nil
}
func (f *fakeSessions) Clear(context.Context) error {
	f.cur = nil
	return nil
}

type authFixture struct {
	svc  *AuthServiceImpl
	kv   *storagetest.Flaky
	lim  *fakeLimiter
	sess *fakeSessions
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	kv := storagetest.NewFlaky()
	repo := kvrepo.NewSet(kv, kvrepo.Deps{})
	lim := &fakeLimiter{allowOK: true}
	sess := &fakeSessions{}
	return &authFixture{
		svc:  NewAuthService(repo.Users, sess, testHasher, lim, nil, nil),
		kv:   kv,
		lim:  lim,
		sess: sess,
	}
}

func TestAuth_EnsureDefaultUser(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	created, err := f.svc.EnsureDefaultUser(ctx)
	if err != nil || !created {
		t.Fatalf("EnsureDefaultUser: created=%v err=%v", created, err)
	}
	created, err = f.svc.EnsureDefaultUser(ctx)
	if err != nil || created {
		t.Fatalf("second EnsureDefaultUser must be a no-op: created=%v err=%v", created, err)
	}

	raw, _, _ := f.kv.Get(ctx, storage.KeyUsers)
	if bytes.Contains(raw, []byte(DefaultPassword)) {
		t.Fatalf("password stored in plaintext: %s", raw)
	}

	_, ok, err := f.svc.Login(ctx, DefaultUsername, DefaultPassword, "127.0.0.1")
	if err != nil || !ok {
		t.Fatalf("default login: ok=%v err=%v", ok, err)
	}
}

func TestAuth_Register_Basics(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, " ", "x"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on empty username, got %v", err)
	}

	u, err := f.svc.Register(ctx, "alice", "pwd")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == "" || u.PasswordHash != nil {
		t.Fatalf("bad registered user: %+v", u)
	}

	if _, err := f.svc.Register(ctx, "alice", "pwd2"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}

	f.kv.FailSet(storage.KeyUsers, 1)
	if _, err := f.svc.Register(ctx, "bob", "pwd"); !errors.Is(err, errs.ErrStorageWrite) {
		t.Fatalf("want propagated storage error, got %v", err)
	}
}

func TestAuth_Login_RateLimiterAndCreds(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, "alice", "correct")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	f.lim.allowErr = errors.New("lim-err")
	if _, _, err := f.svc.Login(ctx, "alice", "correct", "1.2.3.4"); err == nil {
		t.Fatalf("want limiter error propagate")
	}
	f.lim.allowErr = nil

	f.lim.allowOK = false
	if _, _, err := f.svc.Login(ctx, "alice", "correct", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
	f.lim.allowOK = true

	if _, ok, err := f.svc.Login(ctx, "nope", "x", ""); err != nil || ok {
		t.Fatalf("unknown user: ok=%v err=%v", ok, err)
	}
	if _, ok, err := f.svc.Login(ctx, "Alice", "correct", ""); err != nil || ok {
		t.Fatalf("username match must be exact: ok=%v err=%v", ok, err)
	}

	f.lim.failBlocked = true
	if _, _, err := f.svc.Login(ctx, "alice", "wrong", ""); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited on blocked after failure, got %v", err)
	}
	f.lim.failBlocked = false

	if _, ok, err := f.svc.Login(ctx, "alice", "wrong", ""); err != nil || ok {
		t.Fatalf("wrong password: ok=%v err=%v", ok, err)
	}
	if f.sess.cur != nil {
		t.Fatalf("failed logins must not create a session")
	}

	rec, ok, err := f.svc.Login(ctx, "alice", "correct", "127.0.0.1")
	if err != nil || !ok {
		t.Fatalf("Login success: ok=%v err=%v", ok, err)
	}
	if rec.User.ID != u.ID || rec.User.PasswordHash != nil {
		t.Fatalf("bad session user: %+v", rec.User)
	}
	if f.lim.successCalls == 0 {
		t.Fatalf("expected Success() to be called")
	}

	cur, ok, err := f.svc.CurrentUser(ctx)
	if err != nil || !ok || cur.Username != "alice" {
		t.Fatalf("CurrentUser: %+v ok=%v err=%v", cur, ok, err)
	}
	if err := f.svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok, _ := f.svc.CurrentUser(ctx); ok {
		t.Fatalf("session must be cleared on logout")
	}
}

func TestAuth_Login_SessionSaveError(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, "bob", "p"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	f.sess.saveErr = errs.ErrStorageWrite
	if _, ok, err := f.svc.Login(ctx, "bob", "p", ""); !errors.Is(err, errs.ErrStorageWrite) || ok {
		t.Fatalf("want storage error, got ok=%v err=%v", ok, err)
	}
}

func TestAuth_ChangePassword(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, "carol", "old")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := f.svc.ChangePassword(ctx, u.ID, "bad", "new"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if err := f.svc.ChangePassword(ctx, "ghost", "old", "new"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := f.svc.ChangePassword(ctx, u.ID, "old", ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if err := f.svc.ChangePassword(ctx, u.ID, "old", "new"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, ok, _ := f.svc.Login(ctx, "carol", "old", ""); ok {
		t.Fatalf("old password must stop working")
	}
	if _, ok, err := f.svc.Login(ctx, "carol", "new", ""); !ok || err != nil {
		t.Fatalf("new password: ok=%v err=%v", ok, err)
	}
}

func TestAuth_WithRealLimiterLocksOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := kvrepo.NewSet(storagetest.NewFlaky(), kvrepo.Deps{})
	svc := NewAuthService(repo.Users, &fakeSessions{}, testHasher, limiter.NewMemory(time.Minute, 2, time.Minute), nil, nil)
	if _, err := svc.Register(ctx, "dan", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "dan", "x", "ip"); err != nil {
		t.Fatalf("first failure: %v", err)
	}
	if _, _, err := svc.Login(ctx, "dan", "x", "ip"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("second failure must lock: %v", err)
	}
	if _, _, err := svc.Login(ctx, "dan", "pw", "ip"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("correct password while locked: %v", err)
	}
}
