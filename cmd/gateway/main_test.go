package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/m2mgate/pkg/cryptox"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashSecret(t *testing.T) {
	out, err := run(t, "", "hash-secret", "order-secret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	require.True(t, cryptox.IsSecretHash(hash))
	require.NoError(t, cryptox.VerifySecret("order-secret", hash))
}

func TestHashSecret_FromStdin(t *testing.T) {
	out, err := run(t, "piped-secret\n", "hash-secret")
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifySecret("piped-secret", strings.TrimSpace(out)))

	_, err = run(t, "\n", "hash-secret")
	require.Error(t, err)
}

func TestGenSecret(t *testing.T) {
	out, err := run(t, "", "gen-secret", "--hash")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Len(t, lines[0], 43)
	require.NoError(t, cryptox.VerifySecret(lines[0], lines[1]))
}

func TestToken_RequiresCredentials(t *testing.T) {
	t.Setenv("M2M_CLIENT_SECRET", "")
	_, err := run(t, "", "token", "--client-id", "order-service")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--client-id")
}
