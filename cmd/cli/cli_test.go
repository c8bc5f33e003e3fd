package cli

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/paytrust/internal/application/dto"
	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/internal/domain/models"
	"github.com/turtacn/paytrust/internal/infrastructure/audit"
	"github.com/turtacn/paytrust/internal/infrastructure/persistence"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/logger"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// squash collapses tabwriter padding so assertions do not depend on column widths.
func squash(out string) string {
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

func writeKeyPair(t *testing.T) (privatePath, publicPath string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	dir := t.TempDir()
	privatePath = filepath.Join(dir, "private.pem")
	publicPath = filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(privatePath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(publicPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}), 0o600))
	return privatePath, publicPath
}

func TestSignAndVerifyAsymmetric(t *testing.T) {
	privatePath, publicPath := writeKeyPair(t)
	const ts = "2024-01-02T15:04:05+07:00"

	out, err := run(t, "sign", "asymmetric", "--private-key", "@"+privatePath, "--client-key", "partner-a", "--timestamp", ts)
	require.NoError(t, err)
	var signed dto.SignatureResponse
	require.NoError(t, json.Unmarshal([]byte(out), &signed))
	assert.Equal(t, "partner-a|"+ts, signed.StringToSign)

	out, err = run(t, "verify", "asymmetric", "--public-key", "@"+publicPath,
		"--client-key", "partner-a", "--timestamp", ts, "--signature", signed.Signature)
	require.NoError(t, err)
	assert.JSONEq(t, `{"responseCode":"2007300","responseMessage":"Successful"}`, out)

	out, err = run(t, "verify", "asymmetric", "--public-key", "@"+publicPath,
		"--client-key", "partner-b", "--timestamp", ts, "--signature", signed.Signature)
	require.Error(t, err)
	assert.Contains(t, out, `"responseCode": "4017300"`)
	assert.Contains(t, out, `"responseMessage": "Unauthorized. Signature"`)
}

func TestSignAndVerifySymmetric(t *testing.T) {
	common := []string{
		"--secret", "partner-a-client-secret",
		"--method", "POST",
		"--path", "/v1.0/transfer-intrabank",
		"--token", "token-123",
		"--timestamp", "2024-01-02T15:04:05+07:00",
	}

	out, err := run(t, append([]string{"sign", "symmetric", "--body", `{"amount": {"value": "10000.00"}}`}, common...)...)
	require.NoError(t, err)
	var signed dto.SignatureResponse
	require.NoError(t, json.Unmarshal([]byte(out), &signed))
	assert.True(t, strings.HasPrefix(signed.StringToSign, "POST:/v1.0/transfer-intrabank:token-123:"))

	out, err = run(t, append([]string{"verify", "symmetric", "--body", `{"amount":{"value":"10000.00"}}`, "--signature", signed.Signature}, common...)...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"responseCode":"2009900","responseMessage":"Successful"}`, out)

	out, err = run(t, append([]string{"verify", "symmetric", "--body", `{"amount":{"value":"99999.00"}}`, "--signature", signed.Signature}, common...)...)
	require.Error(t, err)
	assert.Contains(t, out, "Unauthorized. Verify Client Secret Fail.")
}

func TestSign_MissingFlags(t *testing.T) {
	_, err := run(t, "sign", "asymmetric", "--client-key", "partner-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--private-key is required")
}

func TestCodeCommands(t *testing.T) {
	out, err := run(t, "code", "encode", "unauthorized", "--service-code", "73", "--detail", "Signature")
	require.NoError(t, err)
	assert.Equal(t, "4017300\tUnauthorized. Signature\n", out)

	out, err = run(t, "code", "decode", "4030714")
	require.NoError(t, err)
	out = squash(out)
	assert.Contains(t, out, "status 403")
	assert.Contains(t, out, "service 07")
	assert.Contains(t, out, "case 14")
	assert.Contains(t, out, "kind InsufficientFunds")
	assert.Contains(t, out, "category business")

	out, err = run(t, "code", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "5000001")
	assert.Contains(t, out, "InternalServerError")

	_, err = run(t, "code", "encode", "NoSuchKind")
	assert.Error(t, err)
	_, err = run(t, "code", "decode", "12345")
	assert.Error(t, err)
}

func TestEnvelopeCommands(t *testing.T) {
	out, err := run(t, "envelope", "render", "InvalidMandatoryField", "--service-code", "24", "--detail", "partnerReferenceNo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"responseCode":"4002402","responseMessage":"Invalid Mandatory Field partnerReferenceNo"}`, out)

	out, err = run(t, "envelope", "parse", `{"responseCode":"2001700","responseMessage":"Successful","referenceNo":"2020102977770000000009"}`)
	require.NoError(t, err)
	out = squash(out)
	assert.Contains(t, out, "outcome success")
	assert.Contains(t, out, `payload.referenceNo "2020102977770000000009"`)

	out, err = run(t, "envelope", "parse", `{"responseCode":"4011700","responseMessage":"Invalid Token (B2B)"}`)
	require.NoError(t, err)
	out = squash(out)
	assert.Contains(t, out, "outcome system error")
	assert.Contains(t, out, "kind InvalidTokenB2B")

	_, err = run(t, "envelope", "parse", `{"responseCode":"4011700"}`)
	assert.Error(t, err)
}

func TestCredentialCheck_ConfigSource(t *testing.T) {
	_, publicPath := writeKeyPair(t)
	publicPEM, err := os.ReadFile(publicPath)
	require.NoError(t, err)

	var indented strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(string(publicPEM)), "\n") {
		indented.WriteString("          " + line + "\n")
	}
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
log:
  level: error
signing:
  credential_source: config
  clients:
    - client_key: partner-a
      client_secret: partner-a-client-secret
      public_key_pem: |
`+indented.String()+`
    - client_key: partner-b
      client_secret: partner-b-client-secret
`), 0o600))

	out, err := run(t, "--config", cfgPath, "credential", "check", "partner-a")
	require.NoError(t, err)
	out = squash(out)
	assert.Contains(t, out, "asymmetric ok")
	assert.Contains(t, out, "symmetric ok")

	out, err = run(t, "--config", cfgPath, "credential", "check", "partner-b")
	require.NoError(t, err)
	assert.Contains(t, squash(out), "asymmetric not registered")

	_, err = run(t, "--config", cfgPath, "credential", "check", "stranger")
	assert.Error(t, err)
}

func TestCredentialPut_RequiresVault(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: error\n"), 0o600))

	_, err := run(t, "--config", cfgPath, "credential", "put", "--client-key", "partner-a", "--secret", "s3cret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault is not enabled")
}

func TestAuditList_ChecksSeals(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "audit.db")
	ctx := context.Background()

	db, err := persistence.OpenDatabase(ctx, &config.DatabaseConfig{Enabled: true, Driver: "sqlite", SQLitePath: dbPath}, logger.NewNoopLogger())
	require.NoError(t, err)
	store, err := audit.NewGormAuditService(db)
	require.NoError(t, err)
	sealer, err := audit.NewSealer("seal-key")
	require.NoError(t, err)

	for i, code := range []string{"2007300", "4017300"} {
		event := *models.NewAuditEvent(constants.EventTypeSignatureVerified, constants.AuditResultSuccess, "").
			WithClient("partner-a", constants.SchemeAsymmetric).
			WithOutcome(code, "")
		event.Timestamp = time.Date(2024, 1, 2, 8, 0, i, 0, time.UTC)
		event.Seal, err = sealer.SignAuditEvent(event)
		require.NoError(t, err)
		if i == 1 {
			event.Result = constants.AuditResultFailure
		}
		require.NoError(t, store.LogEvent(ctx, event))
	}
	require.NoError(t, persistence.CloseDatabase(db))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
log:
  level: error
database:
  enabled: true
  driver: sqlite
  sqlite_path: `+dbPath+`
audit:
  seal_key: seal-key
`), 0o600))

	out, err := run(t, "--config", cfgPath, "audit", "list", "partner-a")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(squash(out)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "4017300")
	assert.Contains(t, lines[1], "TAMPERED")
	assert.Contains(t, lines[2], "2007300")
	assert.True(t, strings.HasSuffix(lines[2], " ok"))
}
