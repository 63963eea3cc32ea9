package model

import "time"

// User and Settings are minimal, per spec §3: they exist to satisfy the
// external HTTP surface (login, preferences) and are not hot-path state.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:100;not null" json:"-"`
	IsAdmin      bool       `gorm:"default:false" json:"is_admin"`
	Theme        string     `gorm:"size:16;default:dark" json:"theme"`
	Timezone     string     `gorm:"size:64;default:UTC" json:"timezone"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

func (User) TableName() string { return "users" }

// Settings is a key→value table. One distinguished key
// ("api_key", SettingAPIKey) holds the URL-trigger API key (spec §3).
type Settings struct {
	Key         string `gorm:"primaryKey;size:64" json:"key"`
	Value       string `gorm:"type:text" json:"value"`
	Description string `gorm:"size:255" json:"description"`
}

func (Settings) TableName() string { return "settings" }

const (
	SettingAPIKey             = "api_key"
	SettingRateLimitEnabled   = "rate_limit_enabled"
	SettingDefaultTimeout     = "default_script_timeout"
	SettingDefaultMemoryLimit = "default_memory_limit"
	SettingMaxExecutionLogs   = "max_execution_logs"
	SettingLogRetentionDays   = "log_retention_days"
)
