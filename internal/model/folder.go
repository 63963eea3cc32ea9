package model

import "time"

// Folder is a tree node grouping Scripts (spec §3). Deleting a Folder
// cascades into its Scripts, and transitively their Triggers and
// ExecutionRecords — enforced by the Store with explicit deletes; the
// database schema declares no foreign keys.
type Folder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_folder_name_parent" json:"name"`
	ParentID  *uint     `gorm:"uniqueIndex:idx_folder_name_parent" json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Folder) TableName() string { return "folders" }
