package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "crmbridge "))
}

func TestKeysGenerateCommand(t *testing.T) {
	out, err := execute(t, "keys", "generate")
	require.NoError(t, err)

	assert.Contains(t, out, "CRMBRIDGE_ADMIN_PUBLIC_KEY=")
	assert.Contains(t, out, "CRMBRIDGE_STORE_ENCRYPTION_KEY=")
	assert.Contains(t, out, "ADMIN_PRIVATE_KEY=")
}

func TestConfigSetAndShow(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "crmbridge.yaml")

	require.NoError(t, os.WriteFile(configFile, []byte(`
store:
  backend: file
  file_path: `+filepath.Join(dir, "settings.json")+`
  encryption_key: test-secret
`), 0600))

	_, err := execute(t, "--config", configFile, "config", "set",
		"--instance-url", "https://acme.my.salesforce.com/",
		"--client-id", "id",
		"--client-secret", "secret",
	)
	require.NoError(t, err)

	out, err := execute(t, "--config", configFile, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "Bridge is configured")
	assert.Contains(t, out, "https://acme.my.salesforce.com\n")
	assert.NotContains(t, out, "secret")

	_, err = execute(t, "--config", configFile, "config", "set", "--client-secret", "rotated")
	require.NoError(t, err)

	out, err = execute(t, "--config", configFile, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Client ID: id")
}

func TestConfigSetRejectsIncompleteConnection(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "crmbridge.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("store:\n  backend: memory\n"), 0600))

	_, err := execute(t, "--config", configFile, "config", "set", "--client-id", "id")
	assert.ErrorContains(t, err, "instanceUrl")
}
