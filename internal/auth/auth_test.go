package auth

import (
	"context"
	"testing"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/apperr"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/models"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, exp, err := m.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, _, err := m.Issue("user-1")
	require.NoError(t, err)

	other := NewJWTManager("other-secret", time.Hour)
	_, err = other.Verify(token)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = m.Verify("")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = m.Verify("not.a.jwt")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Verify(token)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, "token expired", apperr.PublicMessage(err))
}

func TestJWTRejectsNoneAlg(t *testing.T) {
	claims := Claims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Hour).Verify(token)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestParseBearerToken(t *testing.T) {
	tok, err := ParseBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = ParseBearerToken("bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic abc", "abc"} {
		_, err := ParseBearerToken(h)
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated, h)
	}
}

func newTestService(t *testing.T) (*Service, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	svc := NewService(store, NewJWTManager("secret", time.Hour), zaptest.NewLogger(t))
	svc.cost = bcrypt.MinCost
	return svc, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "Ada@Example.com", Password: "hunter22", Role: models.RoleInvestor})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "ada@example.com", sess.User.Email)
	assert.Equal(t, models.RoleInvestor, sess.User.Role)

	id, err := svc.tokens.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, id)

	login, err := svc.Login(ctx, "ADA@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, login.User.ID)

	me, err := svc.Me(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, me.InvestorProfile)
	assert.Nil(t, me.EntrepreneurProfile)
}

func TestRegisterErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	in := RegisterInput{Name: "Bo", Email: "bo@example.com", Password: "secret1", Role: models.RoleEntrepreneur}
	_, err := svc.Register(ctx, in)
	require.NoError(t, err)

	_, err = svc.Register(ctx, in)
	require.ErrorIs(t, err, apperr.ErrConflict)

	bad := in
	bad.Role = "banker"
	_, err = svc.Register(ctx, bad)
	require.ErrorIs(t, err, apperr.ErrValidation)

	bad = in
	bad.Password = "123"
	_, err = svc.Register(ctx, bad)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "Cy", Email: "cy@example.com", Password: "secret1", Role: models.RoleInvestor})
	require.NoError(t, err)

	_, wrongPass := svc.Login(ctx, "cy@example.com", "nope")
	_, noUser := svc.Login(ctx, "ghost@example.com", "secret1")
	require.ErrorIs(t, wrongPass, apperr.ErrUnauthenticated)
	require.ErrorIs(t, noUser, apperr.ErrUnauthenticated)
	assert.Equal(t, apperr.PublicMessage(wrongPass), apperr.PublicMessage(noUser))

	_, err = svc.Login(ctx, "", "")
	require.ErrorIs(t, err, apperr.ErrValidation)
}
