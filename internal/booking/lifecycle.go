package booking

import (
	"github.com/Leganyst/clinic-booking/internal/model"
)

// Action — действие над приёмом.
type Action string

const (
	ActionConfirm    Action = "confirm"
	ActionCheckIn    Action = "check-in"
	ActionComplete   Action = "complete"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
	ActionAssign     Action = "assign"
)

type transitionKey struct {
	from   model.AppointmentStatus
	action Action
}

// Единственный источник правды о допустимых переходах.
var transitions = map[transitionKey]model.AppointmentStatus{
	{model.AppointmentStatusPending, ActionConfirm}:    model.AppointmentStatusConfirmed,
	{model.AppointmentStatusPending, ActionCancel}:     model.AppointmentStatusCancelled,
	{model.AppointmentStatusPending, ActionReschedule}: model.AppointmentStatusPending,
	{model.AppointmentStatusPending, ActionAssign}:     model.AppointmentStatusPending,

	{model.AppointmentStatusPendingDeposit, ActionConfirm}:    model.AppointmentStatusConfirmed,
	{model.AppointmentStatusPendingDeposit, ActionCancel}:     model.AppointmentStatusCancelled,
	{model.AppointmentStatusPendingDeposit, ActionReschedule}: model.AppointmentStatusPendingDeposit,
	{model.AppointmentStatusPendingDeposit, ActionAssign}:     model.AppointmentStatusPendingDeposit,

	{model.AppointmentStatusConfirmed, ActionCheckIn}:    model.AppointmentStatusCheckedIn,
	{model.AppointmentStatusConfirmed, ActionComplete}:   model.AppointmentStatusCompleted,
	{model.AppointmentStatusConfirmed, ActionCancel}:     model.AppointmentStatusCancelled,
	{model.AppointmentStatusConfirmed, ActionReschedule}: model.AppointmentStatusConfirmed,
	{model.AppointmentStatusConfirmed, ActionAssign}:     model.AppointmentStatusConfirmed,

	{model.AppointmentStatusCheckedIn, ActionComplete}: model.AppointmentStatusCompleted,
	{model.AppointmentStatusCheckedIn, ActionAssign}:   model.AppointmentStatusCheckedIn,
}

// Transition возвращает статус после action или APPOINTMENT_STATUS_INVALID.
func Transition(from model.AppointmentStatus, action Action) (model.AppointmentStatus, error) {
	to, ok := transitions[transitionKey{from: from, action: action}]
	if !ok {
		return "", newError(CodeAppointmentStatusInvalid, "cannot %s appointment in status %s", action, from)
	}
	return to, nil
}

// initialStatuses — допустимые статусы при создании.
var initialStatuses = map[model.AppointmentStatus]bool{
	model.AppointmentStatusPending:        true,
	model.AppointmentStatusPendingDeposit: true,
	model.AppointmentStatusConfirmed:      true,
}
