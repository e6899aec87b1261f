package session

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/logger"
	"feedengage/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	probes      []bool
	probeCalls  int
	loginCalls  int
	loginResult models.LoginResult
	loginErr    error
	loginDelay  time.Duration
	gotCreds    models.Credentials
}

func (f *fakeDriver) ProbeLiveness(ctx context.Context) bool {
	i := f.probeCalls
	f.probeCalls++
	if i < len(f.probes) {
		return f.probes[i]
	}
	return false
}

func (f *fakeDriver) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	f.loginCalls++
	f.gotCreds = creds
	if f.loginDelay > 0 {
		select {
		case <-time.After(f.loginDelay):
		case <-ctx.Done():
			return models.LoginResult{}, ctx.Err()
		}
	}
	return f.loginResult, f.loginErr
}

var testCreds = models.Credentials{Username: "ada@example.com", Password: "hunter2"}

func newGuard(d *fakeDriver, cfg Config) *Guard {
	return NewGuard(d, testCreds, cfg, logger.NewNopLogger())
}

func TestEnsureValidAlreadyLive(t *testing.T) {
	d := &fakeDriver{probes: []bool{true}}
	g := newGuard(d, Config{})

	recovered, err := g.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.False(t, recovered)
	assert.Equal(t, models.SessionValid, g.State())
	assert.Equal(t, 0, d.loginCalls)
}

func TestEnsureValidRecovers(t *testing.T) {
	d := &fakeDriver{probes: []bool{false, true}, loginResult: models.LoginResult{Success: true}}
	g := newGuard(d, Config{})

	recovered, err := g.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.True(t, recovered)
	assert.Equal(t, models.SessionValid, g.State())
	assert.Equal(t, 1, d.loginCalls)
	assert.Equal(t, testCreds, d.gotCreds)
}

func TestEnsureValidFailures(t *testing.T) {
	tests := []struct {
		name     string
		driver   *fakeDriver
		wantType errs.ErrorType
	}{
		{
			name:     "rejected credentials",
			driver:   &fakeDriver{loginResult: models.LoginResult{Success: false, Message: "wrong password"}},
			wantType: errs.ErrorTypeAuth,
		},
		{
			name:     "rate limited banner",
			driver:   &fakeDriver{loginResult: models.LoginResult{RateLimited: true}},
			wantType: errs.ErrorTypeRecoveryExhausted,
		},
		{
			name:     "still dead after login",
			driver:   &fakeDriver{probes: []bool{false, false}, loginResult: models.LoginResult{Success: true}},
			wantType: errs.ErrorTypeRecoveryExhausted,
		},
		{
			name:     "login error",
			driver:   &fakeDriver{loginErr: errors.New("element not found")},
			wantType: errs.ErrorTypeRecoveryExhausted,
		},
		{
			name:     "typed auth error from driver",
			driver:   &fakeDriver{loginErr: errs.AuthenticationFailure("challenge page")},
			wantType: errs.ErrorTypeAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGuard(tt.driver, Config{})
			recovered, err := g.EnsureValid(context.Background())

			require.Error(t, err)
			assert.False(t, recovered)
			assert.Equal(t, tt.wantType, errs.TypeOf(err))
			assert.True(t, errs.IsFatal(errs.TypeOf(err)))
			assert.Equal(t, models.SessionInvalid, g.State())
			assert.Equal(t, 1, tt.driver.loginCalls, "exactly one login attempt")
		})
	}
}

func TestEnsureValidLoginTimeout(t *testing.T) {
	d := &fakeDriver{loginDelay: time.Second}
	g := newGuard(d, Config{LoginTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := g.EnsureValid(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, errs.ErrorTypeRecoveryExhausted, errs.TypeOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnsureValidLoginSurvivesCancellation(t *testing.T) {
	d := &fakeDriver{probes: []bool{false, true}, loginResult: models.LoginResult{Success: true}, loginDelay: 30 * time.Millisecond}
	g := newGuard(d, Config{LoginTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	recovered, err := g.EnsureValid(ctx)
	require.NoError(t, err)
	assert.True(t, recovered)
}

func TestEnsureValidCancelledBeforeStart(t *testing.T) {
	d := &fakeDriver{probes: []bool{true}}
	g := newGuard(d, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.EnsureValid(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, d.probeCalls)
}

func TestInvalidate(t *testing.T) {
	d := &fakeDriver{probes: []bool{true, true}}
	g := newGuard(d, Config{})

	_, err := g.EnsureValid(context.Background())
	require.NoError(t, err)

	g.Invalidate("login wall shown")
	assert.Equal(t, models.SessionInvalid, g.State())

	recovered, err := g.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.False(t, recovered)
	assert.Equal(t, models.SessionValid, g.State())
}

func TestSettle(t *testing.T) {
	g := newGuard(&fakeDriver{}, Config{SettleDelay: 10 * time.Millisecond})
	start := time.Now()
	require.NoError(t, g.Settle(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	g = newGuard(&fakeDriver{}, Config{SettleDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Settle(ctx), context.Canceled)
}
