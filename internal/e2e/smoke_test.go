package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeConfigFixture(home))

	stdout, stderr, err := runArbor(t, binaryPath, home, "keys", "register", "--device", "c0ffee")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "device 00c0ffee registered")

	stdout, stderr, err = runArbor(t, binaryPath, home, "keys", "list", "--json")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "\"device_id\": \"00c0ffee\"")

	stdout, stderr, err = runArbor(t, binaryPath, home, "score", "--seed", "0xc0ffee", "--temperature", "22", "--acoustic", "4", "--json")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "\"status\"")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "arbor-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/arbor")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build arbor binary: %s", string(output))
	return binaryPath
}

func runArbor(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeConfigFixture(home string) error {
	configDir := filepath.Join(home, ".arbor")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	config := `[keys]
backend = "toml"
passphrase = "smoke-test-passphrase"

[transport]
timeout = "2s"

[log]
level = "warn"
format = "json"
`

	return os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(config), 0o600)
}
