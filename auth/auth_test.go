package auth

import (
	"testing"
	"time"

	courerrors "courier/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestTokenManager_IssueAndVerify(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager(testSecret, time.Hour)
	userID := uuid.New()

	token, err := tokens.Issue(userID)
	req.NoError(err)
	req.NotEmpty(token)

	got, err := tokens.Verify(token)
	req.NoError(err)
	req.Equal(userID, got)
}

func TestTokenManager_Expired(t *testing.T) {
	req := require.New(t)
	// Negative validity: the token is born expired.
	tokens := NewTokenManager(testSecret, -time.Minute)

	token, err := tokens.Issue(uuid.New())
	req.NoError(err)

	_, err = tokens.Verify(token)
	req.ErrorIs(err, courerrors.ErrTokenExpired)
}

func TestTokenManager_Invalid(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager(testSecret, time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, err := tokens.Verify("not-a-token")
		req.ErrorIs(err, courerrors.ErrInvalidToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewTokenManager("a-different-secret", time.Hour)
		token, err := other.Issue(uuid.New())
		req.NoError(err)

		_, err = tokens.Verify(token)
		req.ErrorIs(err, courerrors.ErrInvalidToken)
	})
}

func TestHashAndComparePassword(t *testing.T) {
	req := require.New(t)
	password := "Sup3r-Secret-Passw0rd!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.NotEqual(password, hash)

	t.Run("correct password matches", func(t *testing.T) {
		match, err := ComparePassword(password, hash)
		req.NoError(err)
		req.True(match)
	})

	t.Run("wrong password does not match", func(t *testing.T) {
		match, err := ComparePassword("WrongPassword123!", hash)
		req.NoError(err)
		req.False(match)
	})

	t.Run("two hashes of the same password differ by salt", func(t *testing.T) {
		other, err := HashPassword(password)
		req.NoError(err)
		req.NotEqual(hash, other)
	})

	t.Run("malformed hash is an error", func(t *testing.T) {
		_, err := ComparePassword(password, "not-an-encoded-hash")
		req.Error(err)
	})
}

func TestValidateRegister(t *testing.T) {
	req := require.New(t)

	valid := RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r-Secret-Passw0rd!",
	}

	t.Run("valid request passes", func(t *testing.T) {
		req.NoError(ValidateRegister(valid))
	})

	t.Run("short username fails with the field code, not the password one", func(t *testing.T) {
		r := valid
		r.Username = "al"
		err := ValidateRegister(r)
		req.ErrorIs(err, courerrors.ErrValidation)
		req.NotErrorIs(err, courerrors.ErrInvalidPassword)
	})

	t.Run("bad email fails with the field code, not the password one", func(t *testing.T) {
		r := valid
		r.Email = "not-an-email"
		err := ValidateRegister(r)
		req.ErrorIs(err, courerrors.ErrValidation)
		req.NotErrorIs(err, courerrors.ErrInvalidPassword)
	})

	t.Run("short password fails", func(t *testing.T) {
		r := valid
		r.Password = "Sh0rt!"
		req.ErrorIs(ValidateRegister(r), courerrors.ErrInvalidPassword)
	})

	t.Run("long but simple password fails complexity", func(t *testing.T) {
		r := valid
		r.Password = "alllowercasewithoutdigits"
		req.ErrorIs(ValidateRegister(r), courerrors.ErrInvalidPassword)
	})
}
