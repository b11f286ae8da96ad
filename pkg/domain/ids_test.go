package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "aidgate/pkg/domain-errors"
)

func TestParseAccountID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAccountID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		accountID, err := ParseAccountID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(valid), accountID)
		assert.False(t, accountID.IsZero())
	})

	t.Run("zero value reports IsZero", func(t *testing.T) {
		assert.True(t, AccountID{}.IsZero())
	})
}

func TestParseCounterIDs(t *testing.T) {
	cases := []struct {
		name  string
		parse func(string) (uint64, error)
	}{
		{"identity", func(s string) (uint64, error) {
			v, err := ParseIdentityID(s)
			return uint64(v), err
		}},
		{"proposal", func(s string) (uint64, error) {
			v, err := ParseProposalID(s)
			return uint64(v), err
		}},
		{"distribution", func(s string) (uint64, error) {
			v, err := ParseDistributionID(s)
			return uint64(v), err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.parse("")
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

			_, err = tc.parse("abc")
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

			_, err = tc.parse("-1")
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

			// Numbering starts at 1; zero is never a valid reference.
			_, err = tc.parse("0")
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

			v, err := tc.parse("42")
			require.NoError(t, err)
			assert.Equal(t, uint64(42), v)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	account := AccountID(uuid.New())
	parsed, err := ParseAccountID(account.String())
	require.NoError(t, err)
	assert.Equal(t, account, parsed)

	identityID, err := ParseIdentityID(IdentityID(7).String())
	require.NoError(t, err)
	assert.Equal(t, IdentityID(7), identityID)
}
