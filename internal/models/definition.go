package models

import "time"

// SchemaColumn is a single column of a table schema.
type SchemaColumn struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Constraints []string `json:"constraints,omitempty"`
}

// TableSchema is the structured description of a table's columns and
// table-level constraints.
type TableSchema struct {
	Columns          []SchemaColumn `json:"columns"`
	TableConstraints []string       `json:"table_constraints,omitempty"`
}

// Definition is a logical table description, independent of any chain.
type Definition struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProjectID   string      `gorm:"not null;type:varchar(36);uniqueIndex:idx_definitions_project_slug" json:"project_id"`
	Name        string      `gorm:"not null" json:"name"`
	Slug        string      `gorm:"not null;uniqueIndex:idx_definitions_project_slug" json:"slug"`
	Description string      `gorm:"type:text" json:"description"`
	Schema      TableSchema `gorm:"serializer:json;type:text" json:"schema"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
