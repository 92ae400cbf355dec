package bookingv1

import "time"

type Slot struct {
	ID          string    `json:"id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int32     `json:"capacity"`
	BookedCount int32     `json:"booked_count"`
	Remaining   int32     `json:"remaining"`
	Active      bool      `json:"active"`
}

type AppointmentSlot struct {
	Order    int32     `json:"order"`
	SlotID   string    `json:"slot_id"`
	StartsAt time.Time `json:"starts_at"`
}

type Appointment struct {
	ID             string            `json:"id"`
	CustomerID     string            `json:"customer_id"`
	ServiceID      string            `json:"service_id"`
	PractitionerID string            `json:"practitioner_id,omitempty"`
	Date           string            `json:"date"`
	StartsAt       time.Time         `json:"starts_at"`
	EndsAt         time.Time         `json:"ends_at"`
	Status         string            `json:"status"`
	ContactChannel string            `json:"contact_channel,omitempty"`
	ContactValue   string            `json:"contact_value,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	CancelledAt    *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	Slots          []AppointmentSlot `json:"slots"`
}

// Длительность и количество слотов проверяет движок: их ошибки несут
// собственные коды (INVALID_TIME_RANGE).

type GetAvailableStartTimesRequest struct {
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	DurationMinutes int32  `json:"duration_minutes"`
}

type GetAvailableStartTimesResponse struct {
	StartTimes []time.Time `json:"start_times"`
}

type GetAllSlotsForDateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type GetAllSlotsForDateResponse struct {
	Slots []Slot `json:"slots"`
}

type ReserveRequest struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	Slots    int32     `json:"slots"`
}

// ReserveResponse: Reserved=false — штатный исход "мест нет", не ошибка.
type ReserveResponse struct {
	Reserved bool   `json:"reserved"`
	Reason   string `json:"reason,omitempty"`
	Slots    []Slot `json:"slots,omitempty"`
}

type ReleaseRequest struct {
	StartTimes []time.Time `json:"start_times" validate:"required,min=1,dive,required"`
}

type CreateAppointmentRequest struct {
	CustomerID     string   `json:"customer_id" validate:"required,uuid"`
	ServiceID      string   `json:"service_id" validate:"required,uuid"`
	SlotIDs        []string `json:"slot_ids" validate:"dive,uuid"`
	ContactChannel string   `json:"contact_channel" validate:"omitempty,oneof=PHONE EMAIL TELEGRAM ZALO"`
	ContactValue   string   `json:"contact_value" validate:"max=255"`
	Notes          string   `json:"notes" validate:"max=2000"`
	Status         string   `json:"status" validate:"omitempty,oneof=PENDING PENDING_DEPOSIT CONFIRMED"`
}

type BookRequest struct {
	CustomerID     string    `json:"customer_id" validate:"required,uuid"`
	ServiceID      string    `json:"service_id" validate:"required,uuid"`
	StartsAt       time.Time `json:"starts_at" validate:"required"`
	ContactChannel string    `json:"contact_channel" validate:"omitempty,oneof=PHONE EMAIL TELEGRAM ZALO"`
	ContactValue   string    `json:"contact_value" validate:"max=255"`
	Notes          string    `json:"notes" validate:"max=2000"`
	Status         string    `json:"status" validate:"omitempty,oneof=PENDING PENDING_DEPOSIT CONFIRMED"`
}

type AppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type AppointmentIDRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

type ListCustomerAppointmentsRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	Page       int32  `json:"page" validate:"gte=0"`
	PageSize   int32  `json:"page_size" validate:"gte=0,lte=100"`
}

type ListCustomerAppointmentsResponse struct {
	Appointments []Appointment `json:"appointments"`
	Page         int32         `json:"page"`
	PageSize     int32         `json:"page_size"`
	Total        int32         `json:"total"`
	HasNext      bool          `json:"has_next"`
}

type CancelAppointmentRequest struct {
	ID     string `json:"id" validate:"required,uuid"`
	Reason string `json:"reason" validate:"max=500"`
}

type RescheduleAppointmentRequest struct {
	ID       string    `json:"id" validate:"required,uuid"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
}

type AssignPractitionerRequest struct {
	ID             string `json:"id" validate:"required,uuid"`
	PractitionerID string `json:"practitioner_id" validate:"required,uuid"`
}

type DateCapacityRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Capacity int32  `json:"capacity"`
}

type SlotPeriodRequest struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required"`
}

// CountResponse — сколько слотов создано/изменено.
type CountResponse struct {
	Count int32 `json:"count"`
}
