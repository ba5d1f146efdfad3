package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrOrderNotFound is returned when an order is not found
	ErrOrderNotFound = errors.New("order not found")

	// ErrDeliveryNoteNotFound is returned when a delivery note is not found
	ErrDeliveryNoteNotFound = errors.New("delivery note not found")

	// ErrEquipmentNotFound is returned when an equipment unit is not found
	ErrEquipmentNotFound = errors.New("equipment not found")

	// ErrSlotNotFound is returned when an expected equipment slot is not found
	ErrSlotNotFound = errors.New("expected equipment slot not found")

	// ErrIncidentNotFound is returned when an incident is not found
	ErrIncidentNotFound = errors.New("incident not found")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidDatacenterID is returned when an unknown datacenter is referenced
	ErrInvalidDatacenterID = errors.New("invalid datacenter id")

	// ErrDatacenterNotFound is returned when a datacenter is not found
	ErrDatacenterNotFound = errors.New("datacenter not found")

	// ErrInvalidStatus is returned when an invalid status value is provided
	ErrInvalidStatus = errors.New("invalid status")

	// ErrQuantityBelowAssigned is returned when a slot's quantity would drop
	// below the number of units already assigned to it
	ErrQuantityBelowAssigned = errors.New("quantity cannot be lower than assigned count")

	// ErrSlotHasAssignments is returned when deleting a slot that still has
	// matched equipment
	ErrSlotHasAssignments = errors.New("slot still has matched equipment")

	// ErrIncidentResolved is returned when mutating an incident that has
	// already been resolved
	ErrIncidentResolved = errors.New("incident is already resolved")

	// ErrResolutionNoteRequired is returned when resolving an incident
	// without a resolution note
	ErrResolutionNoteRequired = errors.New("resolution note is required")

	// ErrMatcherUnavailable is returned when AI-assisted matching is
	// requested but no matcher is configured
	ErrMatcherUnavailable = errors.New("semantic matcher is not configured")
)
