package booking

import "github.com/iliyamo/table-reservation/internal/model"

// action is a lifecycle request applied to an existing reservation.
type action string

const (
	actionUpdate   action = "update"
	actionCancel   action = "cancel"
	actionPromote  action = "promote"
	actionCheckIn  action = "check in"
	actionCheckOut action = "check out"
)

type transition struct {
	From   model.Status
	Action action
	To     model.Status
}

// transitionsTable lists every legal edge of the reservation state machine.
// Creation (ACTIVE or WAITING) is not an edge; COMPLETED and CANCELED have
// no outgoing edges.
var transitionsTable = []transition{
	{From: model.StatusActive, Action: actionUpdate, To: model.StatusActive},

	{From: model.StatusWaiting, Action: actionPromote, To: model.StatusNotified},

	{From: model.StatusNotified, Action: actionCheckIn, To: model.StatusInProgress},
	{From: model.StatusActive, Action: actionCheckIn, To: model.StatusInProgress},

	{From: model.StatusInProgress, Action: actionCheckOut, To: model.StatusCompleted},

	{From: model.StatusActive, Action: actionCancel, To: model.StatusCanceled},
	{From: model.StatusWaiting, Action: actionCancel, To: model.StatusCanceled},
	{From: model.StatusNotified, Action: actionCancel, To: model.StatusCanceled},
}

// nextStatus returns the state reached by applying a to from.
func nextStatus(from model.Status, a action) (model.Status, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Action == a {
			return tr.To, true
		}
	}
	return "", false
}
