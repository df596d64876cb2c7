package models

import "time"

// Project is a named container of table definitions owned by a team.
type Project struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID      string `gorm:"not null;type:varchar(36);uniqueIndex:idx_projects_team_slug" json:"team_id"`
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"not null;uniqueIndex:idx_projects_team_slug" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	// NativeMode displays raw on-chain table names instead of definition names
	NativeMode bool      `gorm:"not null;default:false" json:"native_mode"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Environment groups deployments within a project (e.g. staging, production).
type Environment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProjectID string    `gorm:"not null;type:varchar(36);uniqueIndex:idx_environments_project_slug" json:"project_id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"not null;uniqueIndex:idx_environments_project_slug" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TeamMembership grants an identity write access to every project of a team.
type TeamMembership struct {
	TeamID    string    `gorm:"primaryKey;type:varchar(36)" json:"team_id"`
	Identity  string    `gorm:"primaryKey;type:varchar(255)" json:"identity"`
	Role      string    `gorm:"not null;default:member" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
