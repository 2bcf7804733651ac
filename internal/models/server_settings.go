package models

import (
	"time"

	"gorm.io/datatypes"
)

// ServerSettings caches the public settings last fetched from one chat server.
type ServerSettings struct {
	BaseModel

	ServerURL string            `gorm:"not null;uniqueIndex" json:"server_url"`
	Values    datatypes.JSONMap `gorm:"column:payload;type:json" json:"values"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// TableName pins the table name independent of the naming strategy.
func (ServerSettings) TableName() string {
	return "server_settings"
}
