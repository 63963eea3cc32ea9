package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

var envKeyPattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// EnvMap is the Script's `environment` mapping (spec §3): string→string,
// keys matching ^[A-Z_][A-Z0-9_]*$. It is persisted as a single JSON text
// column — the design-notes strategy for the source's
// `environment_variables` string column — rather than interpreted with a
// language evaluator.
type EnvMap map[string]string

// Validate enforces the key-shape invariant at the write boundary.
func (m EnvMap) Validate() error {
	for k := range m {
		if !envKeyPattern.MatchString(k) {
			return fmt.Errorf("invalid environment variable name: %s", k)
		}
	}
	return nil
}

func (m EnvMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *EnvMap) Scan(src any) error {
	if src == nil {
		*m = EnvMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for EnvMap: %T", src)
	}
	if len(raw) == 0 {
		*m = EnvMap{}
		return nil
	}
	out := EnvMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		// strict JSON parser only; on parse failure substitute an empty
		// mapping, per the design notes — the caller surfaces validation
		// separately rather than failing the whole row read.
		*m = EnvMap{}
		return nil
	}
	*m = out
	return nil
}

// EmailTrigger controls when a finished run notifies email recipients.
type EmailTrigger string

const (
	EmailTriggerAll     EmailTrigger = "all"
	EmailTriggerSuccess EmailTrigger = "success"
	EmailTriggerFailure EmailTrigger = "failure"
)

// Script is one user-authored program (spec §3).
type Script struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null;uniqueIndex:idx_script_name_folder" json:"name"`
	Slug        string `gorm:"size:100;not null;uniqueIndex:idx_script_slug_folder" json:"slug"`
	FolderID    *uint  `gorm:"uniqueIndex:idx_script_name_folder;uniqueIndex:idx_script_slug_folder" json:"folder_id"`
	Description string `gorm:"size:500" json:"description"`
	Content     string `gorm:"type:text;not null" json:"content"`

	InterpreterVersion string `gorm:"size:16;not null;default:3.12" json:"interpreter_version"`
	Requirements       string `gorm:"type:text" json:"requirements"`
	Environment        EnvMap `gorm:"type:text" json:"environment"`

	Enabled  bool `gorm:"default:true" json:"enabled"`
	AutoSave bool `gorm:"default:true" json:"auto_save"`

	EmailOnCompletion bool         `gorm:"default:false" json:"email_on_completion"`
	EmailRecipients   string       `gorm:"size:500" json:"email_recipients"`
	EmailTriggerType  EmailTrigger `gorm:"size:16;default:all" json:"email_trigger_type"`

	RunTotal   int64      `gorm:"default:0" json:"run_total"`
	RunSuccess int64      `gorm:"default:0" json:"run_success"`
	LastRunAt  *time.Time `json:"last_run_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Script) TableName() string { return "scripts" }
