package booking

import (
	"errors"
	"fmt"
)

// Code — машинно-читаемый код бизнес-ошибки.
type Code string

const (
	CodeBookingInPast            Code = "BOOKING_IN_PAST"
	CodeInvalidTimeRange         Code = "INVALID_TIME_RANGE"
	CodeOutsideWorkingHours      Code = "OUTSIDE_WORKING_HOURS"
	CodeSlotNotFound             Code = "SLOT_NOT_FOUND"
	CodeSlotFull                 Code = "SLOT_FULL"
	CodeAppointmentNotFound      Code = "APPOINTMENT_NOT_FOUND"
	CodeAppointmentStatusInvalid Code = "APPOINTMENT_STATUS_INVALID"
	CodeBookingConflict          Code = "BOOKING_CONFLICT"
	CodeValidation               Code = "VALIDATION_ERROR"
)

// Error — бизнес-ошибка движка бронирования.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is сравнивает ошибки по коду, чтобы errors.Is(err, ErrSlotFull) работал
// для любой ошибки с тем же кодом.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrBookingInPast            = &Error{Code: CodeBookingInPast}
	ErrInvalidTimeRange         = &Error{Code: CodeInvalidTimeRange}
	ErrOutsideWorkingHours      = &Error{Code: CodeOutsideWorkingHours}
	ErrSlotNotFound             = &Error{Code: CodeSlotNotFound}
	ErrSlotFull                 = &Error{Code: CodeSlotFull}
	ErrAppointmentNotFound      = &Error{Code: CodeAppointmentNotFound}
	ErrAppointmentStatusInvalid = &Error{Code: CodeAppointmentStatusInvalid}
	ErrBookingConflict          = &Error{Code: CodeBookingConflict}
	ErrValidation               = &Error{Code: CodeValidation}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf возвращает код бизнес-ошибки или "" для инфраструктурных ошибок.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
