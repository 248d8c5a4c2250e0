package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no medinfo.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, 20, cfg.HTTP.TimeoutSecs)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, "medinfo-cli/1.0", cfg.HTTP.UserAgent)
	assert.Equal(t, "https://api.fda.gov", cfg.OpenFDA.BaseURL)
	assert.Equal(t, "https://rxnav.nlm.nih.gov", cfg.RxNav.BaseURL)
	assert.Equal(t, "https://pubchem.ncbi.nlm.nih.gov", cfg.PubChem.BaseURL)
	assert.Equal(t, "https://dailymed.nlm.nih.gov", cfg.DailyMed.BaseURL)
	assert.Equal(t, "https://connect.medlineplus.gov", cfg.MedlinePlus.BaseURL)
	assert.Equal(t, 30, cfg.Datasets.OrangeBook.MaxAgeDays)
	assert.Equal(t, 30, cfg.Datasets.PurpleBook.MaxAgeDays)
	assert.Equal(t, 18, cfg.Datasets.PurpleBook.MaxMonthsBack)
	assert.Equal(t, 90, cfg.Datasets.NIOSH.MaxAgeDays)
	assert.Equal(t, "local", cfg.OCR.Provider)
	assert.Equal(t, "pdftotext", cfg.OCR.PdfToTextPath)
	assert.Equal(t, 10, cfg.Lookup.CandidatesMax)
	assert.Equal(t, 5, cfg.Lookup.RecallsMax)
	assert.Equal(t, 20, cfg.Lookup.InteractionsMax)
	assert.Equal(t, 50, cfg.Lookup.NIOSHMax)
	assert.Equal(t, 20, cfg.Lookup.KeywordHitsMax)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
cache:
  dir: /var/cache/medinfo
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  concurrency: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medinfo.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/medinfo", cfg.Cache.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	// Defaults still apply for unset values
	assert.Equal(t, "https://api.fda.gov", cfg.OpenFDA.BaseURL)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644))

	t.Setenv("MEDINFO_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
openfda:
  key: from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medinfo.yaml"), []byte(yaml), 0644))

	t.Setenv("MEDINFO_OPENFDA_KEY", "from-env")
	t.Setenv("MEDINFO_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "from-env", cfg.OpenFDA.Key)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("MEDINFO_SERVER_PORT", "3000")
	t.Setenv("MEDINFO_CACHE_DIR", "/tmp/medinfo-cache")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/tmp/medinfo-cache", cfg.Cache.Dir)
}

func TestCacheDirExplicit(t *testing.T) {
	cfg := &Config{}
	cfg.Cache.Dir = "/data/medinfo"

	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/data/medinfo", dir)
}

func TestCacheDirDefault(t *testing.T) {
	cfg := &Config{}

	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "medinfo", filepath.Base(dir))
}

func TestStorePathDefaultsUnderCacheDir(t *testing.T) {
	cfg := &Config{}
	cfg.Cache.Dir = "/data/medinfo"

	path, err := cfg.StorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/medinfo", "medinfo.db"), path)

	cfg.Store.Path = "/elsewhere/med.db"
	path, err = cfg.StorePath()
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/med.db", path)
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Batch.Concurrency = 4
	cfg.HTTP.TimeoutSecs = 20
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.Concurrency = 0
	err := cfg.Validate("batch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency must be between 1 and 32")

	cfg.Batch.Concurrency = 33
	err = cfg.Validate("batch")
	assert.Error(t, err)

	cfg.Batch.Concurrency = 32
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
