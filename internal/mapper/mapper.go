// Package mapper converts domain models to API response types.
package mapper

import (
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/matching"
)

// ToProjectResponse converts a Project to its full response representation
func ToProjectResponse(p *domain.Project) domain.ProjectResponse {
	resp := domain.ProjectResponse{
		ID:                 p.ID,
		Name:               p.Name,
		ProjectCode:        p.ProjectCode,
		DatacenterID:       string(p.DatacenterID),
		Client:             p.Client,
		RitmCode:           p.RitmCode,
		DeliveryDate:       p.DeliveryDate,
		Status:             string(p.Status),
		Progress:           p.Progress,
		EstimatedEquipment: p.EstimatedEquipment,
		TeamMembers:        p.TeamMembers,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}

	if resp.TeamMembers == nil {
		resp.TeamMembers = []string{}
	}

	if len(p.Slots) > 0 {
		resp.Slots = make([]domain.SlotResponse, len(p.Slots))
		for i, slot := range p.Slots {
			resp.Slots[i] = ToSlotResponse(&slot)
		}
	}

	if len(p.Orders) > 0 {
		resp.Orders = make([]domain.OrderResponse, len(p.Orders))
		for i, order := range p.Orders {
			resp.Orders[i] = ToOrderResponse(&order)
		}
	}

	return resp
}

// ToProjectSummaryResponse converts a Project to its list representation
func ToProjectSummaryResponse(p *domain.Project) domain.ProjectSummaryResponse {
	return domain.ProjectSummaryResponse{
		ID:                 p.ID,
		Name:               p.Name,
		ProjectCode:        p.ProjectCode,
		DatacenterID:       string(p.DatacenterID),
		Client:             p.Client,
		DeliveryDate:       p.DeliveryDate,
		Status:             string(p.Status),
		Progress:           p.Progress,
		EstimatedEquipment: p.EstimatedEquipment,
		OrderCount:         len(p.Orders),
		CreatedAt:          p.CreatedAt,
	}
}

// ToSlotResponse converts an EstimatedEquipment slot
func ToSlotResponse(s *domain.EstimatedEquipment) domain.SlotResponse {
	return domain.SlotResponse{
		ID:            s.ID,
		ProjectID:     s.ProjectID,
		Type:          s.Type,
		Model:         s.Model,
		Quantity:      s.Quantity,
		AssignedCount: s.AssignedCount,
		Remaining:     s.Remaining(),
	}
}

// ToOrderResponse converts an Order
func ToOrderResponse(o *domain.Order) domain.OrderResponse {
	resp := domain.OrderResponse{
		ID:                 o.ID,
		ProjectID:          o.ProjectID,
		Code:               o.Code,
		EstimatedEquipment: o.EstimatedEquipment,
		Progress:           o.Progress,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}

	if len(o.DeliveryNotes) > 0 {
		resp.DeliveryNotes = make([]domain.DeliveryNoteResponse, len(o.DeliveryNotes))
		for i, note := range o.DeliveryNotes {
			resp.DeliveryNotes[i] = ToDeliveryNoteResponse(&note)
		}
	}

	return resp
}

// ToDeliveryNoteResponse converts a DeliveryNote
func ToDeliveryNoteResponse(n *domain.DeliveryNote) domain.DeliveryNoteResponse {
	resp := domain.DeliveryNoteResponse{
		ID:                 n.ID,
		OrderID:            n.OrderID,
		Code:               n.Code,
		EstimatedEquipment: n.EstimatedEquipment,
		DeliveredEquipment: n.DeliveredEquipment,
		VerifiedEquipment:  n.VerifiedEquipment,
		Status:             string(n.Status),
		Progress:           n.Progress,
		AttachmentID:       n.AttachmentID,
		CreatedAt:          n.CreatedAt,
		UpdatedAt:          n.UpdatedAt,
	}

	if len(n.Equipment) > 0 {
		resp.Equipment = make([]domain.EquipmentResponse, len(n.Equipment))
		for i, eq := range n.Equipment {
			resp.Equipment[i] = ToEquipmentResponse(&eq)
		}
	}

	return resp
}

// ToEquipmentResponse converts an Equipment unit
func ToEquipmentResponse(e *domain.Equipment) domain.EquipmentResponse {
	return domain.EquipmentResponse{
		ID:             e.ID,
		DeliveryNoteID: e.DeliveryNoteID,
		Name:           e.Name,
		SerialNumber:   e.SerialNumber,
		PartNumber:     e.PartNumber,
		DeviceName:     e.DeviceName,
		Type:           e.Type,
		Model:          e.Model,
		IsMatched:      e.IsMatched,
		MatchedSlotID:  e.MatchedSlotID,
		IsVerified:     e.IsVerified,
		PhotoPath:      e.PhotoPath,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// ToPairingResponses converts engine pairings for API responses
func ToPairingResponses(pairings []matching.Pairing) []domain.PairingResponse {
	result := make([]domain.PairingResponse, len(pairings))
	for i, p := range pairings {
		result[i] = domain.PairingResponse{
			EquipmentID: p.EquipmentID,
			SlotID:      p.SlotID,
		}
	}
	return result
}

// ToIncidentResponse converts an Incident with its comments
func ToIncidentResponse(i *domain.Incident) domain.IncidentResponse {
	resp := domain.IncidentResponse{
		ID:             i.ID,
		EquipmentID:    i.EquipmentID,
		Description:    i.Description,
		Status:         string(i.Status),
		PhotoPath:      i.PhotoPath,
		ResolvedAt:     i.ResolvedAt,
		ResolutionNote: i.ResolutionNote,
		Technician:     i.Technician,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}

	if len(i.Comments) > 0 {
		resp.Comments = make([]domain.IncidentCommentResponse, len(i.Comments))
		for j, c := range i.Comments {
			resp.Comments[j] = ToIncidentCommentResponse(&c)
		}
	}

	return resp
}

// ToIncidentCommentResponse converts an IncidentComment
func ToIncidentCommentResponse(c *domain.IncidentComment) domain.IncidentCommentResponse {
	return domain.IncidentCommentResponse{
		ID:        c.ID,
		Date:      c.Date,
		Text:      c.Text,
		Author:    c.Author,
		PhotoPath: c.PhotoPath,
	}
}

// ToActivityResponse converts an Activity log entry
func ToActivityResponse(a *domain.Activity) domain.ActivityResponse {
	return domain.ActivityResponse{
		ID:          a.ID,
		TargetType:  string(a.TargetType),
		TargetID:    a.TargetID,
		Title:       a.Title,
		Body:        a.Body,
		OccurredAt:  a.OccurredAt,
		CreatorID:   a.CreatorID,
		CreatorName: a.CreatorName,
	}
}

// ToFileResponse converts a File
func ToFileResponse(f *domain.File) domain.FileResponse {
	return domain.FileResponse{
		ID:          f.ID,
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Size:        f.Size,
		CreatedAt:   f.CreatedAt,
	}
}

// ToUserResponse converts a User
func ToUserResponse(u *domain.User) domain.UserResponse {
	resp := domain.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}

	if resp.Roles == nil {
		resp.Roles = []string{}
	}

	if u.DatacenterID != nil {
		dc := string(*u.DatacenterID)
		resp.DatacenterID = &dc
	}

	return resp
}
