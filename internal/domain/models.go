package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// DatacenterID identifies a datacenter site. Receiving data is partitioned
// per site the same way requests are filtered per site.
type DatacenterID string

const (
	DatacenterAll DatacenterID = "all"
	DatacenterMAD DatacenterID = "mad01"
	DatacenterBCN DatacenterID = "bcn01"
	DatacenterPAR DatacenterID = "par02"
	DatacenterFRA DatacenterID = "fra03"
	DatacenterAMS DatacenterID = "ams01"
)

// Datacenter represents a datacenter site (stored in database)
type Datacenter struct {
	ID        DatacenterID `gorm:"type:varchar(50);primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(200);not null" json:"name"`
	ShortName string       `gorm:"type:varchar(50);not null;column:short_name" json:"shortName"`
	Location  string       `gorm:"type:varchar(200)" json:"location,omitempty"`
	IsActive  bool         `gorm:"not null;default:true;column:is_active" json:"isActive"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// IsValidDatacenterID checks if the given string is a known datacenter
func IsValidDatacenterID(id string) bool {
	switch DatacenterID(id) {
	case DatacenterMAD, DatacenterBCN, DatacenterPAR, DatacenterFRA, DatacenterAMS:
		return true
	}
	return false
}

// GetDatacenterPrefix returns the uppercase site code used in generated
// project numbers, e.g. "MAD01" for mad01
func GetDatacenterPrefix(id DatacenterID) string {
	return strings.ToUpper(string(id))
}

// ProjectStatus represents the status of a receiving project
type ProjectStatus string

const (
	ProjectStatusPending    ProjectStatus = "pending"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

// IsValid checks if the ProjectStatus is a valid enum value
func (ps ProjectStatus) IsValid() bool {
	switch ps {
	case ProjectStatusPending, ProjectStatusInProgress, ProjectStatusCompleted:
		return true
	}
	return false
}

// Project is the aggregate root for a hardware-receiving engagement.
// Progress is derived: verified equipment across all delivery notes divided by
// the project's stated equipment estimate. It is recomputed on every mutation
// of descendant equipment and never set directly by callers.
type Project struct {
	BaseModel
	Name               string               `gorm:"type:varchar(200);not null;index"`
	ProjectCode        string               `gorm:"type:varchar(50);unique;index;column:project_code"` // Generated per-datacenter sequence, e.g. MAD01-2026-0042
	DatacenterID       DatacenterID         `gorm:"type:varchar(50);not null;index;column:datacenter_id"`
	Datacenter         *Datacenter          `gorm:"foreignKey:DatacenterID"`
	Client             string               `gorm:"type:varchar(200);not null"`
	RitmCode           string               `gorm:"type:varchar(50);index;column:ritm_code"` // ServiceNow RITM reference
	DeliveryDate       *time.Time           `gorm:"type:date;column:delivery_date"`
	Status             ProjectStatus        `gorm:"type:varchar(50);not null;default:'pending';index"`
	Progress           int                  `gorm:"not null;default:0"` // Derived, not clamped at 100
	EstimatedEquipment int                  `gorm:"not null;default:0;column:estimated_equipment"`
	TeamMembers        pq.StringArray       `gorm:"type:text[];column:team_members"`
	Orders             []Order              `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Slots              []EstimatedEquipment `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// EstimatedEquipment is a capacity slot: the project expects to receive
// Quantity units of a given type+model. AssignedCount tracks how many
// delivered equipment records currently fill the slot and is only ever
// changed by match/unmatch operations.
type EstimatedEquipment struct {
	BaseModel
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index;column:project_id"`
	Type          string    `gorm:"type:varchar(100);not null"`
	Model         string    `gorm:"type:varchar(200);not null"`
	Quantity      int       `gorm:"not null"`
	AssignedCount int       `gorm:"not null;default:0;column:assigned_count"`
}

// Remaining returns the unfilled capacity of the slot
func (s *EstimatedEquipment) Remaining() int {
	return s.Quantity - s.AssignedCount
}

// Order groups delivery notes under a project
type Order struct {
	BaseModel
	ProjectID          uuid.UUID      `gorm:"type:uuid;not null;index;column:project_id"`
	Code               string         `gorm:"type:varchar(100);not null;index"`
	EstimatedEquipment int            `gorm:"not null;default:0;column:estimated_equipment"`
	Progress           int            `gorm:"not null;default:0"` // Derived
	DeliveryNotes      []DeliveryNote `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// DeliveryNoteStatus represents the verification workflow stage of a delivery note
type DeliveryNoteStatus string

const (
	DeliveryNoteStatusPending             DeliveryNoteStatus = "pending"
	DeliveryNoteStatusValidatingNote      DeliveryNoteStatus = "validating_delivery_note"
	DeliveryNoteStatusValidatingReception DeliveryNoteStatus = "validating_reception"
	DeliveryNoteStatusCompleted           DeliveryNoteStatus = "completed"
)

// IsValid checks if the DeliveryNoteStatus is a valid enum value
func (ds DeliveryNoteStatus) IsValid() bool {
	switch ds {
	case DeliveryNoteStatusPending, DeliveryNoteStatusValidatingNote,
		DeliveryNoteStatusValidatingReception, DeliveryNoteStatusCompleted:
		return true
	}
	return false
}

// DeliveryNote records one physical delivery against an order.
// DeliveredEquipment and VerifiedEquipment are derived counts over the
// Equipment list; Progress divides verified by the note's own stated estimate.
type DeliveryNote struct {
	BaseModel
	OrderID            uuid.UUID          `gorm:"type:uuid;not null;index;column:order_id"`
	Code               string             `gorm:"type:varchar(100);not null;index"`
	EstimatedEquipment int                `gorm:"not null;default:0;column:estimated_equipment"`
	DeliveredEquipment int                `gorm:"not null;default:0;column:delivered_equipment"` // Derived
	VerifiedEquipment  int                `gorm:"not null;default:0;column:verified_equipment"`  // Derived
	Status             DeliveryNoteStatus `gorm:"type:varchar(50);not null;default:'pending';index"`
	Progress           int                `gorm:"not null;default:0"` // Derived
	AttachmentID       *uuid.UUID         `gorm:"type:uuid;column:attachment_id"`
	Attachment         *File              `gorm:"foreignKey:AttachmentID"`
	Equipment          []Equipment        `gorm:"foreignKey:DeliveryNoteID;constraint:OnDelete:CASCADE"`
}

// Equipment is a physically received hardware unit. MatchedSlotID is the
// single reference to the EstimatedEquipment slot it fills; the invariant
// IsMatched == (MatchedSlotID != nil) is maintained by the matching engine
// and must not be broken by direct field writes.
type Equipment struct {
	BaseModel
	DeliveryNoteID *uuid.UUID          `gorm:"type:uuid;index;column:delivery_note_id"` // Nullable while extraction is in flight
	Name           string              `gorm:"type:varchar(200);not null"`
	SerialNumber   string              `gorm:"type:varchar(100);index;column:serial_number"`
	PartNumber     string              `gorm:"type:varchar(100);column:part_number"`
	DeviceName     string              `gorm:"type:varchar(200);column:device_name"`
	Type           string              `gorm:"type:varchar(100)"`
	Model          string              `gorm:"type:varchar(200)"`
	IsMatched      bool                `gorm:"not null;default:false;column:is_matched"`
	MatchedSlotID  *uuid.UUID          `gorm:"type:uuid;index;column:matched_slot_id"`
	MatchedSlot    *EstimatedEquipment `gorm:"foreignKey:MatchedSlotID"`
	IsVerified     bool                `gorm:"not null;default:false;column:is_verified"`
	PhotoPath      *string             `gorm:"type:varchar(500);column:photo_path"`
}

// IncidentStatus represents the review state of an incident
type IncidentStatus string

const (
	IncidentStatusPending  IncidentStatus = "pending"
	IncidentStatusInReview IncidentStatus = "in_review"
	IncidentStatusResolved IncidentStatus = "resolved"
)

// IsValid checks if the IncidentStatus is a valid enum value
func (is IncidentStatus) IsValid() bool {
	switch is {
	case IncidentStatusPending, IncidentStatusInReview, IncidentStatusResolved:
		return true
	}
	return false
}

// Incident records a defect or discrepancy against a specific equipment unit.
// It references equipment by id only; deleting the equipment does not cascade.
type Incident struct {
	BaseModel
	EquipmentID    uuid.UUID         `gorm:"type:uuid;not null;index;column:equipment_id"`
	Description    string            `gorm:"type:text;not null"`
	Status         IncidentStatus    `gorm:"type:varchar(50);not null;default:'pending';index"`
	PhotoPath      *string           `gorm:"type:varchar(500);column:photo_path"`
	Comments       []IncidentComment `gorm:"foreignKey:IncidentID;constraint:OnDelete:CASCADE"`
	ResolvedAt     *time.Time        `gorm:"column:resolved_at"`
	ResolutionNote string            `gorm:"type:text;column:resolution_note"`
	Technician     string            `gorm:"type:varchar(200)"`
}

// IncidentComment is a dated comment on an incident
type IncidentComment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	IncidentID uuid.UUID `gorm:"type:uuid;not null;index;column:incident_id"`
	Date       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	Text       string    `gorm:"type:text;not null"`
	Author     string    `gorm:"type:varchar(200);not null"`
	PhotoPath  *string   `gorm:"type:varchar(500);column:photo_path"`
}

// File represents an uploaded file (delivery note attachments, verification photos)
type File struct {
	BaseModel
	Filename    string     `gorm:"type:varchar(255);not null"`
	ContentType string     `gorm:"type:varchar(100);not null"`
	Size        int64      `gorm:"not null"`
	StoragePath string     `gorm:"type:varchar(500);not null;unique"`
	EquipmentID *uuid.UUID `gorm:"type:uuid;index;column:equipment_id"`
}

// ActivityTargetType represents the type of entity an activity is associated with
type ActivityTargetType string

const (
	ActivityTargetProject      ActivityTargetType = "Project"
	ActivityTargetOrder        ActivityTargetType = "Order"
	ActivityTargetDeliveryNote ActivityTargetType = "DeliveryNote"
	ActivityTargetEquipment    ActivityTargetType = "Equipment"
	ActivityTargetIncident     ActivityTargetType = "Incident"
)

// Activity represents an event log entry for any entity
type Activity struct {
	BaseModel
	TargetType   ActivityTargetType `gorm:"type:varchar(50);not null;index;column:target_type"`
	TargetID     uuid.UUID          `gorm:"type:uuid;not null;index;column:target_id"`
	Title        string             `gorm:"type:varchar(200);not null"`
	Body         string             `gorm:"type:varchar(2000)"`
	OccurredAt   time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:occurred_at"`
	CreatorID    string             `gorm:"type:varchar(100);column:creator_id"`
	CreatorName  string             `gorm:"type:varchar(200);column:creator_name"`
	DatacenterID *DatacenterID      `gorm:"type:varchar(50);column:datacenter_id"`
}

// NumberSequence issues monotonically increasing project numbers per datacenter and year
type NumberSequence struct {
	ID           uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DatacenterID DatacenterID `gorm:"type:varchar(50);not null;uniqueIndex:idx_seq_dc_year;column:datacenter_id"`
	Year         int          `gorm:"not null;uniqueIndex:idx_seq_dc_year"`
	LastValue    int          `gorm:"not null;default:0;column:last_value"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// UserRoleType represents a role a user can have
type UserRoleType string

const (
	RoleAdmin      UserRoleType = "admin"
	RoleSiteLead   UserRoleType = "site_lead"
	RoleTechnician UserRoleType = "technician"
	RoleViewer     UserRoleType = "viewer"
	RoleAPIService UserRoleType = "api_service"
)

// User represents a user in the system
type User struct {
	ID           string         `gorm:"type:varchar(100);primaryKey" json:"id"`
	AzureADOID   string         `gorm:"type:varchar(100);unique;column:azure_ad_oid" json:"azureAdOid,omitempty"`
	Email        string         `gorm:"type:varchar(255);not null;unique" json:"email"`
	DisplayName  string         `gorm:"type:varchar(200);not null;column:name" json:"displayName"`
	Roles        pq.StringArray `gorm:"type:text[];not null" json:"roles"`
	DatacenterID *DatacenterID  `gorm:"type:varchar(50);column:datacenter_id" json:"datacenterId,omitempty"`
	IsActive     bool           `gorm:"not null;default:true;column:is_active" json:"isActive"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}
