package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newAuthority(t *testing.T, secret string, clock *fakeClock) *Authority {
	t.Helper()
	a, err := NewAuthority([]byte(secret), time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return a
}

var alice = models.Principal{ID: 42, Login: "alice", Role: models.RoleAdmin}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	a := newAuthority(t, "super-secret", clock)

	tok, err := a.Issue(alice)
	require.NoError(t, err)

	clock.t = clock.t.Add(59 * time.Minute)
	claims, err := a.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Login)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, &alice, claims.Principal())
}

func TestVerify_Expired_NoLeeway(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	a := newAuthority(t, "secret", clock)

	tok, err := a.Issue(alice)
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour)
	_, err = a.Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	tok, err := newAuthority(t, "right-secret", clock).Issue(alice)
	require.NoError(t, err)

	_, err = newAuthority(t, "wrong-secret", clock).Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenSignature)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	a := newAuthority(t, "k", &fakeClock{t: time.Now()})
	for _, in := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := a.Verify(in)
		assert.ErrorIs(t, err, common.ErrTokenMalformed, "input %q", in)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	a := newAuthority(t, "k", clock)
	tok, err := a.Issue(models.Principal{ID: 1, Login: "bob", Role: models.RoleUser})
	require.NoError(t, err)

	other, err := a.Issue(alice)
	require.NoError(t, err)

	// header and signature of the first token with the payload of the second
	p1 := strings.Split(tok, ".")
	p2 := strings.Split(other, ".")
	forged := p1[0] + "." + p2[1] + "." + p1[2]

	_, err = a.Verify(forged)
	assert.ErrorIs(t, err, common.ErrTokenSignature)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	a := newAuthority(t, "k", clock)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))},
		UserID:           1,
		Role:             models.RoleAdmin,
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = a.Verify(hs512)
	assert.ErrorIs(t, err, common.ErrTokenSignature)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.Verify(none)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_MissingExpiryOrSubject(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	a := newAuthority(t, "k", clock)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = a.Verify(noExp)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = a.Verify(noID)
	assert.ErrorIs(t, err, common.ErrTokenMalformed)
}

func TestNewAuthority_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewAuthority(nil, time.Hour)
	assert.Error(t, err)

	_, err = NewAuthority([]byte("k"), 0)
	assert.Error(t, err)
}
