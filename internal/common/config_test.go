package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "sqlite://invoice-extract.db", cfg.Database.URL)
	assert.Equal(t, ":8080", cfg.Server.GRPCAddr)
	assert.Equal(t, "\n", cfg.OCR.LineEnd)
	assert.Equal(t, 4, cfg.Extract.Workers)
	assert.Equal(t, "{}.csv", cfg.Output.FileTemplate)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_URL", ":memory:")
	t.Setenv("WORKERS", "8")
	t.Setenv("PROCESS_TIMEOUT", "15s")
	t.Setenv("OCR_NORMALIZE", "true")
	t.Setenv("VENDOR_LABELS", "ORG, NORP ,")
	t.Setenv("OUT_FILE", "result_{}.csv")
	t.Setenv("MAX_TOKENS", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, ":memory:", cfg.Database.URL)
	assert.Equal(t, 8, cfg.Extract.Workers)
	assert.Equal(t, 15*time.Second, cfg.Extract.ProcessTimeout)
	assert.True(t, cfg.OCR.Normalize)
	assert.Equal(t, []string{"ORG", "NORP"}, cfg.Extract.VendorLabels)
	assert.Equal(t, 0, cfg.Extract.MaxTokens, "unparsable values fall back to the default")
	assert.Equal(t, "result_inv1.json.csv", cfg.Output.FileName("inv1.json"))
}

// unsetEnv clears keys for the test and restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDotEnv(t *testing.T) {
	unsetEnv(t, "OUT_FILE", "OUT_DIR", "NER_HEURISTIC")
	t.Setenv("DB_URL", ":memory:")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	env := "# invoice settings\nOUT_FILE=dotenv_{}.csv\nOUT_DIR=" + dir + "\nDB_URL=sqlite://ignored.db\nNER_HEURISTIC=true\n"
	require.NoError(t, os.WriteFile(path, []byte(env), 0o644))

	require.NoError(t, LoadDotEnv(path))
	cfg := LoadConfig()

	assert.Equal(t, "dotenv_{}.csv", cfg.Output.FileTemplate)
	assert.Equal(t, dir, cfg.Output.Dir)
	assert.True(t, cfg.Extract.NERHeuristic)
	assert.Equal(t, ":memory:", cfg.Database.URL, "the process environment wins over .env")
	require.NoError(t, cfg.Validate())
}

func TestLoadDotEnvMissingOrUnreadable(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "absent.env")))

	err := LoadDotEnv(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing db", func(c *Config) { c.Database.URL = "" }},
		{"missing addr", func(c *Config) { c.Server.GRPCAddr = "" }},
		{"no workers", func(c *Config) { c.Extract.Workers = 0 }},
		{"negative max tokens", func(c *Config) { c.Extract.MaxTokens = -1 }},
		{"empty template", func(c *Config) { c.Output.FileTemplate = "" }},
		{"template without placeholder", func(c *Config) { c.Output.FileTemplate = "out.csv" }},
		{"template with directory", func(c *Config) { c.Output.FileTemplate = "out/{}.csv" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfig))

			var appErr *AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "CONFIG_ERROR", appErr.Code)
		})
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("text", "  ", Required).
		Field("job_id", "nope", UUID).
		Field("format", "pdf", OneOf("json", "txt")).
		Field("note", "abcdef", MaxLen(3))

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 4)
	assert.ErrorIs(t, v.Error(), ErrInvalidInput)
	assert.Contains(t, v.ErrorMessage(), "must be a valid UUID")

	ok := NewValidator().
		Field("text", "INVOICE # 1", Required).
		Field("format", "JSON", OneOf("json", "txt"))
	assert.False(t, ok.HasErrors())
	assert.NoError(t, ValidateAndReturnError(ok))
}
