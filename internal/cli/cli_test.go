package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landlocked/internal/ledger/keys"
	"landlocked/internal/txn"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestKeygenPrintsMatchingIdentity(t *testing.T) {
	out, err := execute(t, "keygen")
	require.NoError(t, err)

	fields := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		name, value, ok := strings.Cut(line, ":")
		require.True(t, ok, line)
		fields[name] = strings.TrimSpace(value)
	}
	key, err := keys.FromHex(fields["private_key"])
	require.NoError(t, err)
	assert.Equal(t, key.Identity().String(), fields["identity"])
}

func TestSignProducesVerifiableEnvelope(t *testing.T) {
	key, err := keys.Generate()
	require.NoError(t, err)

	out, err := execute(t, "sign", string(txn.InstructionMarkTitleForSale),
		"--key", key.Hex(),
		"--accounts", `{"title_deed":"ab"}`,
		"--args", `{"price":500}`,
		"--valid-for", "30m",
	)
	require.NoError(t, err)

	var tx txn.Transaction
	require.NoError(t, json.Unmarshal([]byte(out), &tx))
	signer, err := tx.Verify()
	require.NoError(t, err)
	assert.Equal(t, key.Identity(), signer)
	assert.JSONEq(t, `{"price":500}`, string(tx.Args))
	assert.InDelta(t, time.Now().Add(30*time.Minute).Unix(), tx.ExpiresAt, 5)
}

func TestSignRejectsBadInput(t *testing.T) {
	key, err := keys.Generate()
	require.NoError(t, err)

	_, err = execute(t, "sign", "confirm_admin_account", "--key", "", "--accounts", "{}", "--args", "")
	assert.ErrorContains(t, err, "--key is required")

	_, err = execute(t, "sign", "confirm_admin_account", "--key", key.Hex(), "--accounts", "{", "--args", "")
	assert.ErrorContains(t, err, "--accounts must be valid JSON")

	_, err = execute(t, "sign", "confirm_admin_account", "--key", key.Hex(), "--accounts", "{}", "--args", "", "--valid-for", "0s")
	assert.ErrorContains(t, err, "--valid-for must be positive")
}

func TestMigrateNeedsDSN(t *testing.T) {
	t.Setenv("LANDLOCKED_POSTGRES_DSN", "")
	_, err := execute(t, "migrate")
	assert.ErrorContains(t, err, "postgres.dsn")
}
