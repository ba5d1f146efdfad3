package progress

import (
	"testing"

	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		estimated int
		want      int
	}{
		{"zero estimate", 3, 0, 0},
		{"negative estimate", 3, -1, 0},
		{"nothing done", 0, 10, 0},
		{"two of five", 2, 5, 40},
		{"rounds half up", 1, 8, 13},
		{"rounds half away from zero", 5, 8, 63},
		{"one third", 1, 3, 33},
		{"two thirds", 2, 3, 67},
		{"complete", 5, 5, 100},
		{"overdelivery is not clamped", 6, 5, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percent(tt.completed, tt.estimated))
		})
	}
}

func TestRecomputeNote(t *testing.T) {
	note := &domain.DeliveryNote{
		EstimatedEquipment: 5,
		Equipment: []domain.Equipment{
			{IsVerified: true},
			{IsVerified: true},
			{IsVerified: false},
		},
	}

	RecomputeNote(note)

	assert.Equal(t, 3, note.DeliveredEquipment)
	assert.Equal(t, 2, note.VerifiedEquipment)
	assert.Equal(t, 40, note.Progress)
}

func TestRecomputeOrder(t *testing.T) {
	order := &domain.Order{
		EstimatedEquipment: 10,
		DeliveryNotes: []domain.DeliveryNote{
			{
				EstimatedEquipment: 5,
				Equipment: []domain.Equipment{
					{IsVerified: true}, {IsVerified: true}, {IsVerified: true},
				},
			},
			{
				EstimatedEquipment: 5,
				Equipment: []domain.Equipment{
					{IsVerified: true}, {IsVerified: false},
				},
			},
		},
	}

	RecomputeOrder(order)

	assert.Equal(t, 60, order.DeliveryNotes[0].Progress)
	assert.Equal(t, 20, order.DeliveryNotes[1].Progress)
	assert.Equal(t, 40, order.Progress)
}

func TestRecomputeProject(t *testing.T) {
	t.Run("denominator is the project estimate", func(t *testing.T) {
		project := &domain.Project{
			EstimatedEquipment: 20,
			Orders: []domain.Order{
				{
					EstimatedEquipment: 10,
					DeliveryNotes: []domain.DeliveryNote{
						{
							EstimatedEquipment: 10,
							Equipment: []domain.Equipment{
								{IsVerified: true}, {IsVerified: true},
								{IsVerified: true}, {IsVerified: true},
								{IsVerified: true},
							},
						},
					},
				},
				{EstimatedEquipment: 10},
			},
		}

		RecomputeProject(project)

		assert.Equal(t, 50, project.Orders[0].Progress)
		assert.Equal(t, 0, project.Orders[1].Progress)
		assert.Equal(t, 25, project.Progress)
	})

	t.Run("overdelivery propagates above 100", func(t *testing.T) {
		project := &domain.Project{
			EstimatedEquipment: 2,
			Orders: []domain.Order{
				{
					EstimatedEquipment: 2,
					DeliveryNotes: []domain.DeliveryNote{
						{
							EstimatedEquipment: 2,
							Equipment: []domain.Equipment{
								{IsVerified: true}, {IsVerified: true}, {IsVerified: true},
							},
						},
					},
				},
			},
		}

		RecomputeProject(project)

		assert.Equal(t, 150, project.Orders[0].DeliveryNotes[0].Progress)
		assert.Equal(t, 150, project.Progress)
	})

	t.Run("empty project", func(t *testing.T) {
		project := &domain.Project{EstimatedEquipment: 0}
		RecomputeProject(project)
		assert.Equal(t, 0, project.Progress)
	})
}
