package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audit action
type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionDelete  AuditAction = "delete"
	AuditActionMatch   AuditAction = "match"
	AuditActionUnmatch AuditAction = "unmatch"
	AuditActionVerify  AuditAction = "verify"
	AuditActionResolve AuditAction = "resolve"
	AuditActionLogin   AuditAction = "login"
)

// AuditLog records who changed what and when. Rows are append-only and
// pruned by the retention job, never updated.
type AuditLog struct {
	ID           uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Action       AuditAction   `gorm:"type:varchar(50);not null;index"`
	EntityType   string        `gorm:"type:varchar(100);not null;index;column:entity_type"`
	EntityID     *uuid.UUID    `gorm:"type:uuid;index;column:entity_id"`
	EntityName   string        `gorm:"type:varchar(200);column:entity_name"`
	DatacenterID *DatacenterID `gorm:"type:varchar(50);index;column:datacenter_id"`
	UserID       string        `gorm:"type:varchar(100);index;column:user_id"`
	UserEmail    string        `gorm:"type:varchar(255);column:user_email"`
	UserName     string        `gorm:"type:varchar(200);column:user_name"`
	IPAddress    string        `gorm:"type:varchar(45);column:ip_address"`
	UserAgent    string        `gorm:"type:varchar(500);column:user_agent"`
	RequestID    string        `gorm:"type:varchar(100);column:request_id"`
	OldValues    string        `gorm:"type:jsonb;default:'null';column:old_values"`
	NewValues    string        `gorm:"type:jsonb;default:'null';column:new_values"`
	Changes      string        `gorm:"type:jsonb;default:'null'"`
	Metadata     string        `gorm:"type:jsonb;default:'null'"`
	PerformedAt  time.Time     `gorm:"not null;index;column:performed_at"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}
