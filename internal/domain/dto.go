package domain

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Project
// ---------------------------------------------------------------------------

// CreateProjectRequest is the payload for creating a project.
// The project code is generated server-side from the datacenter sequence.
type CreateProjectRequest struct {
	Name               string              `json:"name" validate:"required,max=200"`
	DatacenterID       string              `json:"datacenterId" validate:"required"`
	Client             string              `json:"client" validate:"required,max=200"`
	RitmCode           string              `json:"ritmCode" validate:"omitempty,max=50"`
	DeliveryDate       *time.Time          `json:"deliveryDate"`
	EstimatedEquipment int                 `json:"estimatedEquipment" validate:"gte=0"`
	TeamMembers        []string            `json:"teamMembers" validate:"omitempty,dive,max=200"`
	Slots              []CreateSlotRequest `json:"slots" validate:"omitempty,dive"`
}

// UpdateProjectRequest is the payload for updating a project. Nil fields are
// left untouched. Progress cannot be set here; it is always derived.
type UpdateProjectRequest struct {
	Name               *string    `json:"name" validate:"omitempty,max=200"`
	Client             *string    `json:"client" validate:"omitempty,max=200"`
	RitmCode           *string    `json:"ritmCode" validate:"omitempty,max=50"`
	DeliveryDate       *time.Time `json:"deliveryDate"`
	Status             *string    `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	EstimatedEquipment *int       `json:"estimatedEquipment" validate:"omitempty,gte=0"`
	TeamMembers        []string   `json:"teamMembers" validate:"omitempty,dive,max=200"`
}

// ProjectResponse is the full project representation
type ProjectResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	ProjectCode        string          `json:"projectCode"`
	DatacenterID       string          `json:"datacenterId"`
	Client             string          `json:"client"`
	RitmCode           string          `json:"ritmCode,omitempty"`
	DeliveryDate       *time.Time      `json:"deliveryDate,omitempty"`
	Status             string          `json:"status"`
	Progress           int             `json:"progress"`
	EstimatedEquipment int             `json:"estimatedEquipment"`
	TeamMembers        []string        `json:"teamMembers"`
	Slots              []SlotResponse  `json:"slots,omitempty"`
	Orders             []OrderResponse `json:"orders,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// ProjectSummaryResponse is the compact representation used in list views
type ProjectSummaryResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	ProjectCode        string     `json:"projectCode"`
	DatacenterID       string     `json:"datacenterId"`
	Client             string     `json:"client"`
	DeliveryDate       *time.Time `json:"deliveryDate,omitempty"`
	Status             string     `json:"status"`
	Progress           int        `json:"progress"`
	EstimatedEquipment int        `json:"estimatedEquipment"`
	OrderCount         int        `json:"orderCount"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// OrderProgressLine is one order's contribution in a progress summary
type OrderProgressLine struct {
	ID                 uuid.UUID `json:"id"`
	Code               string    `json:"code"`
	EstimatedEquipment int       `json:"estimatedEquipment"`
	VerifiedEquipment  int       `json:"verifiedEquipment"`
	Progress           int       `json:"progress"`
}

// ProjectProgressResponse summarizes the derived completion state of a
// project tree without the full entity payloads
type ProjectProgressResponse struct {
	ProjectID          uuid.UUID           `json:"projectId"`
	Progress           int                 `json:"progress"`
	EstimatedEquipment int                 `json:"estimatedEquipment"`
	DeliveredEquipment int                 `json:"deliveredEquipment"`
	VerifiedEquipment  int                 `json:"verifiedEquipment"`
	Orders             []OrderProgressLine `json:"orders"`
}

// ---------------------------------------------------------------------------
// Estimated equipment slots
// ---------------------------------------------------------------------------

// CreateSlotRequest adds an expected equipment entry to a project
type CreateSlotRequest struct {
	Type     string `json:"type" validate:"required,max=100"`
	Model    string `json:"model" validate:"required,max=200"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateSlotRequest updates an expected equipment entry. Quantity can never
// be lowered below the currently assigned count.
type UpdateSlotRequest struct {
	Type     *string `json:"type" validate:"omitempty,max=100"`
	Model    *string `json:"model" validate:"omitempty,max=200"`
	Quantity *int    `json:"quantity" validate:"omitempty,gt=0"`
}

// SlotResponse represents an expected equipment entry with its fill state
type SlotResponse struct {
	ID            uuid.UUID `json:"id"`
	ProjectID     uuid.UUID `json:"projectId"`
	Type          string    `json:"type"`
	Model         string    `json:"model"`
	Quantity      int       `json:"quantity"`
	AssignedCount int       `json:"assignedCount"`
	Remaining     int       `json:"remaining"`
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// CreateOrderRequest is the payload for creating an order under a project
type CreateOrderRequest struct {
	Code               string `json:"code" validate:"required,max=100"`
	EstimatedEquipment int    `json:"estimatedEquipment" validate:"gte=0"`
}

// UpdateOrderRequest is the payload for updating an order
type UpdateOrderRequest struct {
	Code               *string `json:"code" validate:"omitempty,max=100"`
	EstimatedEquipment *int    `json:"estimatedEquipment" validate:"omitempty,gte=0"`
}

// OrderResponse is the order representation
type OrderResponse struct {
	ID                 uuid.UUID              `json:"id"`
	ProjectID          uuid.UUID              `json:"projectId"`
	Code               string                 `json:"code"`
	EstimatedEquipment int                    `json:"estimatedEquipment"`
	Progress           int                    `json:"progress"`
	DeliveryNotes      []DeliveryNoteResponse `json:"deliveryNotes,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

// ---------------------------------------------------------------------------
// Delivery notes
// ---------------------------------------------------------------------------

// CreateDeliveryNoteRequest is the payload for registering a delivery note
type CreateDeliveryNoteRequest struct {
	Code               string     `json:"code" validate:"required,max=100"`
	EstimatedEquipment int        `json:"estimatedEquipment" validate:"gte=0"`
	AttachmentID       *uuid.UUID `json:"attachmentId"`
}

// UpdateDeliveryNoteRequest is the payload for updating a delivery note
type UpdateDeliveryNoteRequest struct {
	Code               *string    `json:"code" validate:"omitempty,max=100"`
	EstimatedEquipment *int       `json:"estimatedEquipment" validate:"omitempty,gte=0"`
	Status             *string    `json:"status" validate:"omitempty,oneof=pending validating_delivery_note validating_reception completed"`
	AttachmentID       *uuid.UUID `json:"attachmentId"`
}

// DeliveryNoteResponse is the delivery note representation
type DeliveryNoteResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OrderID            uuid.UUID           `json:"orderId"`
	Code               string              `json:"code"`
	EstimatedEquipment int                 `json:"estimatedEquipment"`
	DeliveredEquipment int                 `json:"deliveredEquipment"`
	VerifiedEquipment  int                 `json:"verifiedEquipment"`
	Status             string              `json:"status"`
	Progress           int                 `json:"progress"`
	AttachmentID       *uuid.UUID          `json:"attachmentId,omitempty"`
	Equipment          []EquipmentResponse `json:"equipment,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// ExtractEquipmentRequest carries the raw text of a delivery note document
// for AI-assisted line item extraction
type ExtractEquipmentRequest struct {
	DocumentText string `json:"documentText" validate:"required"`
}

// ---------------------------------------------------------------------------
// Equipment
// ---------------------------------------------------------------------------

// CreateEquipmentRequest registers a physically received unit on a note
type CreateEquipmentRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	SerialNumber string `json:"serialNumber" validate:"omitempty,max=100"`
	PartNumber   string `json:"partNumber" validate:"omitempty,max=100"`
	DeviceName   string `json:"deviceName" validate:"omitempty,max=200"`
	Type         string `json:"type" validate:"omitempty,max=100"`
	Model        string `json:"model" validate:"omitempty,max=200"`
}

// UpdateEquipmentRequest edits the descriptive fields of a unit. Matching
// and verification state go through their dedicated endpoints.
type UpdateEquipmentRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=200"`
	SerialNumber *string `json:"serialNumber" validate:"omitempty,max=100"`
	PartNumber   *string `json:"partNumber" validate:"omitempty,max=100"`
	DeviceName   *string `json:"deviceName" validate:"omitempty,max=200"`
	Type         *string `json:"type" validate:"omitempty,max=100"`
	Model        *string `json:"model" validate:"omitempty,max=200"`
}

// EquipmentResponse is the equipment representation
type EquipmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	DeliveryNoteID *uuid.UUID `json:"deliveryNoteId,omitempty"`
	Name           string     `json:"name"`
	SerialNumber   string     `json:"serialNumber,omitempty"`
	PartNumber     string     `json:"partNumber,omitempty"`
	DeviceName     string     `json:"deviceName,omitempty"`
	Type           string     `json:"type,omitempty"`
	Model          string     `json:"model,omitempty"`
	IsMatched      bool       `json:"isMatched"`
	MatchedSlotID  *uuid.UUID `json:"matchedSlotId,omitempty"`
	IsVerified     bool       `json:"isVerified"`
	PhotoPath      *string    `json:"photoPath,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// VerifyEquipmentRequest marks a unit as physically verified, optionally
// recording the inspection photo. Verification is one-way.
type VerifyEquipmentRequest struct {
	PhotoPath *string `json:"photoPath" validate:"omitempty,max=500"`
}

// ---------------------------------------------------------------------------
// Matching
// ---------------------------------------------------------------------------

// MatchRequest assigns one equipment unit to one expected equipment slot
type MatchRequest struct {
	SlotID uuid.UUID `json:"slotId" validate:"required"`
}

// AutomaticMatchRequest triggers AI-assisted matching for a project.
// Prompt carries optional operator guidance forwarded to the matcher.
type AutomaticMatchRequest struct {
	Prompt string `json:"prompt" validate:"omitempty,max=2000"`
}

// PairingResponse is one applied or dropped equipment-to-slot pairing
type PairingResponse struct {
	EquipmentID uuid.UUID `json:"equipmentId"`
	SlotID      uuid.UUID `json:"slotId"`
}

// MatchAllResponse reports the pairings applied by a bulk match run
type MatchAllResponse struct {
	Applied []PairingResponse `json:"applied"`
}

// AutomaticMatchResponse reports applied pairings plus the proposals that
// failed re-validation and were dropped
type AutomaticMatchResponse struct {
	Applied []PairingResponse `json:"applied"`
	Dropped []PairingResponse `json:"dropped"`
}

// ---------------------------------------------------------------------------
// Incidents
// ---------------------------------------------------------------------------

// CreateIncidentRequest opens an incident against an equipment unit
type CreateIncidentRequest struct {
	EquipmentID uuid.UUID `json:"equipmentId" validate:"required"`
	Description string    `json:"description" validate:"required,max=2000"`
	Technician  string    `json:"technician" validate:"omitempty,max=200"`
	PhotoPath   *string   `json:"photoPath" validate:"omitempty,max=500"`
}

// AddIncidentCommentRequest appends a comment to an incident
type AddIncidentCommentRequest struct {
	Text      string  `json:"text" validate:"required,max=2000"`
	Author    string  `json:"author" validate:"required,max=200"`
	PhotoPath *string `json:"photoPath" validate:"omitempty,max=500"`
}

// ResolveIncidentRequest closes an incident. The resolution note is
// mandatory; an incident can never be resolved silently.
type ResolveIncidentRequest struct {
	ResolutionNote string `json:"resolutionNote" validate:"required,max=2000"`
}

// IncidentResponse is the incident representation
type IncidentResponse struct {
	ID             uuid.UUID                 `json:"id"`
	EquipmentID    uuid.UUID                 `json:"equipmentId"`
	Description    string                    `json:"description"`
	Status         string                    `json:"status"`
	PhotoPath      *string                   `json:"photoPath,omitempty"`
	Comments       []IncidentCommentResponse `json:"comments,omitempty"`
	ResolvedAt     *time.Time                `json:"resolvedAt,omitempty"`
	ResolutionNote string                    `json:"resolutionNote,omitempty"`
	Technician     string                    `json:"technician,omitempty"`
	CreatedAt      time.Time                 `json:"createdAt"`
	UpdatedAt      time.Time                 `json:"updatedAt"`
}

// IncidentCommentResponse is one comment on an incident
type IncidentCommentResponse struct {
	ID        uuid.UUID `json:"id"`
	Date      time.Time `json:"date"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	PhotoPath *string   `json:"photoPath,omitempty"`
}

// ---------------------------------------------------------------------------
// Activities, files, users
// ---------------------------------------------------------------------------

// ActivityResponse is one event log entry
type ActivityResponse struct {
	ID          uuid.UUID `json:"id"`
	TargetType  string    `json:"targetType"`
	TargetID    uuid.UUID `json:"targetId"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
	CreatorID   string    `json:"creatorId,omitempty"`
	CreatorName string    `json:"creatorName,omitempty"`
}

// FileResponse describes an uploaded file
type FileResponse struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserResponse is the user representation returned by /auth/me and /users
type UserResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"displayName"`
	Roles        []string   `json:"roles"`
	DatacenterID *string    `json:"datacenterId,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

// DashboardMetrics summarizes receiving activity across all datacenters
// visible to the caller.
type DashboardMetrics struct {
	ActiveProjects    int                `json:"activeProjects"`
	OpenIncidents     int                `json:"openIncidents"`
	TotalEquipment    int64              `json:"totalEquipment"`
	MatchedEquipment  int64              `json:"matchedEquipment"`
	VerifiedEquipment int64              `json:"verifiedEquipment"`
	RecentActivity    []ActivityResponse `json:"recentActivity"`
}

// ---------------------------------------------------------------------------
// Shared
// ---------------------------------------------------------------------------

// Pagination response wrapper
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// API Response wrapper
type APIResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
}
