package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type TriggerKind string

const (
	TriggerCron     TriggerKind = "cron"
	TriggerInterval TriggerKind = "interval"
	TriggerManual   TriggerKind = "manual"
	TriggerStartup  TriggerKind = "startup"
)

// TriggerConfig is the kind-tagged configuration blob from spec §3:
// cron carries an expression + IANA timezone, interval carries a
// positive second count, manual/startup carry nothing.
type TriggerConfig struct {
	Expression string `json:"expression,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	Seconds    int    `json:"seconds,omitempty"`
}

func (c TriggerConfig) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *TriggerConfig) Scan(src any) error {
	if src == nil {
		*c = TriggerConfig{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for TriggerConfig: %T", src)
	}
	if len(raw) == 0 {
		*c = TriggerConfig{}
		return nil
	}
	var out TriggerConfig
	if err := json.Unmarshal(raw, &out); err != nil {
		*c = TriggerConfig{}
		return nil
	}
	*c = out
	return nil
}

// Trigger fires RunRequests for its owning Script (spec §3).
type Trigger struct {
	ID       uint          `gorm:"primaryKey" json:"id"`
	ScriptID uint          `gorm:"not null;index" json:"script_id"`
	Kind     TriggerKind   `gorm:"size:16;not null" json:"kind"`
	Config   TriggerConfig `gorm:"type:text;not null" json:"config"`
	Enabled  bool          `gorm:"default:true" json:"enabled"`

	LastFiredAt *time.Time `json:"last_fired_at"`
	NextFireAt  *time.Time `json:"next_fire_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (Trigger) TableName() string { return "triggers" }
