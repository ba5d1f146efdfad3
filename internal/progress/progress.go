// Package progress recomputes completion percentages bottom-up across
// a project tree: delivery notes feed orders, orders feed the project.
package progress

import (
	"math"

	"github.com/rackwise/receiving-api/internal/domain"
)

// Percent computes round-half-away-from-zero(completed/estimated*100).
// A non-positive estimate yields 0, the denominator is always the
// stated estimate, so values above 100 are possible when more units
// arrive than were planned.
func Percent(completed, estimated int) int {
	if estimated <= 0 {
		return 0
	}
	ratio := float64(completed) / float64(estimated) * 100
	return int(math.Round(ratio))
}

// RecomputeNote refreshes the delivered and verified counters of a
// delivery note from its equipment list and derives its progress.
func RecomputeNote(note *domain.DeliveryNote) {
	delivered := 0
	verified := 0
	for _, eq := range note.Equipment {
		delivered++
		if eq.IsVerified {
			verified++
		}
	}
	note.DeliveredEquipment = delivered
	note.VerifiedEquipment = verified
	note.Progress = Percent(verified, note.EstimatedEquipment)
}

// RecomputeOrder derives an order's progress from the verified units
// of its delivery notes against the order's own estimate.
func RecomputeOrder(order *domain.Order) {
	verified := 0
	for i := range order.DeliveryNotes {
		RecomputeNote(&order.DeliveryNotes[i])
		verified += order.DeliveryNotes[i].VerifiedEquipment
	}
	order.Progress = Percent(verified, order.EstimatedEquipment)
}

// RecomputeProject walks the whole tree and refreshes every derived
// counter. The project denominator is the project's stated estimate,
// not the sum of its orders.
func RecomputeProject(project *domain.Project) {
	verified := 0
	for i := range project.Orders {
		RecomputeOrder(&project.Orders[i])
		for _, note := range project.Orders[i].DeliveryNotes {
			verified += note.VerifiedEquipment
		}
	}
	project.Progress = Percent(verified, project.EstimatedEquipment)
}
