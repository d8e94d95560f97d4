package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlocked/internal/ledger"
	"landlocked/internal/txn"
	dErrors "landlocked/pkg/domain-errors"
)

var result = &txn.Result{
	Hash:        "9f2c1e",
	Signer:      ledger.Address{0xAB},
	Instruction: txn.InstructionAuthorizeEscrow,
	Commit:      &ledger.Commit{Height: 42, Root: ledger.Hash{0x01, 0x02}},
}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-signing-key", "landlocked-test", time.Hour)

	token, err := issuer.Issue(result)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "9f2c1e", claims.TxHash)
	assert.Equal(t, "authorize_escrow", claims.Instruction)
	assert.Equal(t, uint64(42), claims.Height)
	assert.Equal(t, result.Commit.Root.String(), claims.Root)
	assert.Equal(t, result.Signer.String(), claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyRejects(t *testing.T) {
	issuer := NewIssuer("test-signing-key", "landlocked-test", time.Hour)
	token, err := issuer.Issue(result)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not-a-receipt")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
	t.Run("other key", func(t *testing.T) {
		_, err := NewIssuer("another-key", "landlocked-test", time.Hour).Verify(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
	t.Run("other issuer", func(t *testing.T) {
		_, err := NewIssuer("test-signing-key", "someone-else", time.Hour).Verify(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
	t.Run("expired", func(t *testing.T) {
		later := NewIssuer("test-signing-key", "landlocked-test", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})
}

func TestZeroTTLNeverExpires(t *testing.T) {
	issuer := NewIssuer("k", "landlocked-test", 0)
	token, err := issuer.Issue(result)
	require.NoError(t, err)
	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}
