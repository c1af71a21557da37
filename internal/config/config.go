// internal/config/config.go
package config

import (
	"log"

	"github.com/spf13/viper"

	"defkeep/internal/model"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type VaultConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DividerConfig selects which divider lines split a consolidated file.
type DividerConfig struct {
	Dash       bool `mapstructure:"dash"`       // ---
	Underscore bool `mapstructure:"underscore"` // ___
}

type ParserConfig struct {
	DefaultFileType string        `mapstructure:"default_file_type"` // atomic | consolidated | ""
	Divider         DividerConfig `mapstructure:"divider"`
	AutoPlurals     bool          `mapstructure:"auto_plurals"`
}

type FlashcardsConfig struct {
	DailyNewCards    int      `mapstructure:"daily_new_cards"`
	DailyReviewLimit int      `mapstructure:"daily_review_limit"`
	StudyScope       []string `mapstructure:"study_scope"` // path prefixes, empty = all
	ExtraSessionSize int      `mapstructure:"extra_session_size"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Vault      VaultConfig      `mapstructure:"vault"`
	Log        LogConfig        `mapstructure:"log"`
	Parser     ParserConfig     `mapstructure:"parser"`
	Flashcards FlashcardsConfig `mapstructure:"flashcards"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

// LoadConfig reads config.yaml from path (or the working directory) and
// applies defaults for anything left unset.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("vault.dir", "APP_VAULT_DIR")
	viper.BindEnv("database.url", "APP_DATABASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return nil, err
	}

	applyDefaults(&cfg)

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", cfg.Server.Port)
	log.Printf("Vault Dir: %s", cfg.Vault.Dir)
	log.Printf("Daily New Cards: %d / Daily Review Limit: %d",
		cfg.Flashcards.DailyNewCards, cfg.Flashcards.DailyReviewLimit)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = DefaultDatabaseURL
	}
	if cfg.Vault.Dir == "" {
		cfg.Vault.Dir = DefaultVaultDir
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if !cfg.Parser.Divider.Dash && !cfg.Parser.Divider.Underscore {
		// At least one divider must be enabled, otherwise consolidated
		// files can never be segmented.
		log.Println("No divider enabled, falling back to dash divider")
		cfg.Parser.Divider.Dash = true
	}
	if cfg.Parser.DefaultFileType != "" && !model.FileType(cfg.Parser.DefaultFileType).Valid() {
		log.Printf("Unknown default file type %q, ignoring", cfg.Parser.DefaultFileType)
		cfg.Parser.DefaultFileType = ""
	}
	if !viper.IsSet("parser.default_file_type") {
		cfg.Parser.DefaultFileType = string(model.FileTypeConsolidated)
	}
	if !viper.IsSet("flashcards.daily_new_cards") {
		cfg.Flashcards.DailyNewCards = DefaultDailyNewCards
	}
	if cfg.Flashcards.DailyNewCards < 0 {
		cfg.Flashcards.DailyNewCards = 0
	}
	if !viper.IsSet("flashcards.daily_review_limit") {
		cfg.Flashcards.DailyReviewLimit = DefaultDailyReviewLimit
	}
	if cfg.Flashcards.DailyReviewLimit < 0 {
		cfg.Flashcards.DailyReviewLimit = 0
	}
	if cfg.Flashcards.ExtraSessionSize <= 0 {
		cfg.Flashcards.ExtraSessionSize = DefaultExtraSessionSize
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = []string{"Accept", "Authorization", "Content-Type"}
	}
}
