// internal/config/constants.go
package config

// Application info
const (
	AppName    = "defkeep"
	AppVersion = "0.3.1"
)

// Default settings
const (
	DefaultServerPort       = ":8080"
	DefaultDatabaseURL      = "defkeep.db"
	DefaultVaultDir         = "vault"
	DefaultLogLevel         = "info"
	DefaultDailyNewCards    = 20
	DefaultDailyReviewLimit = 100
	DefaultExtraSessionSize = 30
)
