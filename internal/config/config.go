package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	OpenFDA     OpenFDAConfig     `yaml:"openfda" mapstructure:"openfda"`
	RxNav       RxNavConfig       `yaml:"rxnav" mapstructure:"rxnav"`
	PubChem     PubChemConfig     `yaml:"pubchem" mapstructure:"pubchem"`
	DailyMed    DailyMedConfig    `yaml:"dailymed" mapstructure:"dailymed"`
	MedlinePlus MedlinePlusConfig `yaml:"medlineplus" mapstructure:"medlineplus"`
	REMS        REMSConfig        `yaml:"rems" mapstructure:"rems"`
	Datasets    DatasetsConfig    `yaml:"datasets" mapstructure:"datasets"`
	OCR         OCRConfig         `yaml:"ocr" mapstructure:"ocr"`
	Lookup      LookupConfig      `yaml:"lookup" mapstructure:"lookup"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the local lookup-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig configures the on-disk dataset cache.
type CacheConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// HTTPConfig configures the shared HTTP client behavior.
type HTTPConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// OpenFDAConfig holds openFDA API settings.
type OpenFDAConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// RxNavConfig holds RxNav/RxNorm API settings.
type RxNavConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PubChemConfig holds PubChem PUG REST settings.
type PubChemConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// DailyMedConfig holds DailyMed web service settings.
type DailyMedConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// MedlinePlusConfig holds MedlinePlus Connect settings.
type MedlinePlusConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// REMSConfig holds REMS@FDA lookup settings.
type REMSConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	InfoURL     string `yaml:"info_url" mapstructure:"info_url"`
}

// DatasetsConfig configures the bulk dataset ingestors.
type DatasetsConfig struct {
	OrangeBook OrangeBookConfig `yaml:"orangebook" mapstructure:"orangebook"`
	PurpleBook PurpleBookConfig `yaml:"purplebook" mapstructure:"purplebook"`
	NIOSH      NIOSHConfig      `yaml:"niosh" mapstructure:"niosh"`
}

// OrangeBookConfig configures the FDA Orange Book products download.
type OrangeBookConfig struct {
	URL        string `yaml:"url" mapstructure:"url"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// PurpleBookConfig configures the FDA Purple Book monthly CSV download.
type PurpleBookConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	MaxAgeDays    int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	MaxMonthsBack int    `yaml:"max_months_back" mapstructure:"max_months_back"`
}

// NIOSHConfig configures the NIOSH hazardous drug list download.
type NIOSHConfig struct {
	DocURL     string `yaml:"doc_url" mapstructure:"doc_url"`
	PDFURL     string `yaml:"pdf_url" mapstructure:"pdf_url"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// LookupConfig holds default result caps for the lookup command.
type LookupConfig struct {
	CandidatesMax   int `yaml:"candidates_max" mapstructure:"candidates_max"`
	RecallsMax      int `yaml:"recalls_max" mapstructure:"recalls_max"`
	ShortagesMax    int `yaml:"shortages_max" mapstructure:"shortages_max"`
	FAERSMax        int `yaml:"faers_max" mapstructure:"faers_max"`
	RxClassMax      int `yaml:"rxclass_max" mapstructure:"rxclass_max"`
	InteractionsMax int `yaml:"interactions_max" mapstructure:"interactions_max"`
	MediaMax        int `yaml:"media_max" mapstructure:"media_max"`
	OrangeBookMax   int `yaml:"orangebook_max" mapstructure:"orangebook_max"`
	PurpleBookMax   int `yaml:"purplebook_max" mapstructure:"purplebook_max"`
	NIOSHMax        int `yaml:"niosh_max" mapstructure:"niosh_max"`
	REMSMax         int `yaml:"rems_max" mapstructure:"rems_max"`
	KeywordHitsMax  int `yaml:"keyword_hits_max" mapstructure:"keyword_hits_max"`
}

// BatchConfig configures batch lookup processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	if path := os.Getenv("MEDINFO_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("medinfo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/medinfo")
	}

	// Environment
	v.SetEnvPrefix("MEDINFO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("http.timeout_secs", 20)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.user_agent", "medinfo-cli/1.0")
	v.SetDefault("openfda.base_url", "https://api.fda.gov")
	v.SetDefault("rxnav.base_url", "https://rxnav.nlm.nih.gov")
	v.SetDefault("pubchem.base_url", "https://pubchem.ncbi.nlm.nih.gov")
	v.SetDefault("dailymed.base_url", "https://dailymed.nlm.nih.gov")
	v.SetDefault("medlineplus.base_url", "https://connect.medlineplus.gov")
	v.SetDefault("rems.database_url", "https://www.accessdata.fda.gov/scripts/cder/rems/index.cfm")
	v.SetDefault("rems.info_url", "https://www.fda.gov/drugs/drug-safety-and-availability/risk-evaluation-and-mitigation-strategies-rems")
	v.SetDefault("datasets.orangebook.url", "https://www.fda.gov/media/76860/download?attachment")
	v.SetDefault("datasets.orangebook.max_age_days", 30)
	v.SetDefault("datasets.purplebook.base_url", "https://purplebooksearch.fda.gov/files")
	v.SetDefault("datasets.purplebook.max_age_days", 30)
	v.SetDefault("datasets.purplebook.max_months_back", 18)
	v.SetDefault("datasets.niosh.doc_url", "https://www.cdc.gov/niosh/docs/2025-103/default.html")
	v.SetDefault("datasets.niosh.pdf_url", "https://www.cdc.gov/niosh/docs/2025-103/pdfs/2025-103.pdf")
	v.SetDefault("datasets.niosh.max_age_days", 90)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("lookup.candidates_max", 10)
	v.SetDefault("lookup.recalls_max", 5)
	v.SetDefault("lookup.shortages_max", 5)
	v.SetDefault("lookup.faers_max", 10)
	v.SetDefault("lookup.rxclass_max", 15)
	v.SetDefault("lookup.interactions_max", 20)
	v.SetDefault("lookup.media_max", 10)
	v.SetDefault("lookup.orangebook_max", 10)
	v.SetDefault("lookup.purplebook_max", 10)
	v.SetDefault("lookup.niosh_max", 50)
	v.SetDefault("lookup.rems_max", 20)
	v.SetDefault("lookup.keyword_hits_max", 20)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// CacheDir returns the dataset cache directory, falling back to a
// medinfo subdirectory of the user cache dir when unset.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", eris.Wrap(err, "config: resolve user cache dir")
	}
	return filepath.Join(base, "medinfo"), nil
}

// StorePath returns the sqlite database path, defaulting to
// medinfo.db inside the cache directory.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := c.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "medinfo.db"), nil
}

// Validate checks the configuration required for the given command mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 32 {
		problems = append(problems, "batch.concurrency must be between 1 and 32")
	}
	if c.HTTP.TimeoutSecs <= 0 {
		problems = append(problems, "http.timeout_secs must be > 0")
	}

	switch mode {
	case "lookup", "batch", "datasets", "runs":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
