package models

import "time"

// Deployment records that a Definition has been materialized on-chain within
// an Environment. (DefID, EnvironmentID) is the primary key, so at most one
// row can ever exist per pair. Rows are append-only.
type Deployment struct {
	DefID         string `gorm:"primaryKey;type:varchar(36)" json:"def_id"`
	EnvironmentID string `gorm:"primaryKey;type:varchar(36);uniqueIndex:idx_deployments_env_table,priority:1" json:"environment_id"`
	ChainID       int64  `gorm:"not null;uniqueIndex:idx_deployments_env_table,priority:2" json:"chain_id"`
	// TableID is the registry token id as a decimal string
	TableID     string  `gorm:"not null;type:varchar(78);uniqueIndex:idx_deployments_env_table,priority:3" json:"table_id"`
	TableName   string  `gorm:"not null" json:"table_name"`
	BlockNumber *int64  `json:"block_number,omitempty"`
	TxnHash     *string `gorm:"type:varchar(66)" json:"txn_hash,omitempty"`
	// CreatedAt is when the table was created on-chain, not when this row was written
	CreatedAt  time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	RecordedAt time.Time `gorm:"autoCreateTime" json:"recorded_at"`
}

// DeploymentSource tells whether a deployment came from importing an
// existing table or from creating a new one.
type DeploymentSource string

const (
	DeploymentSourceImport DeploymentSource = "import"
	DeploymentSourceDeploy DeploymentSource = "deploy"
)
