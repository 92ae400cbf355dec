package service

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	bookingpb "github.com/Leganyst/clinic-booking/internal/api/booking/v1"
	"github.com/Leganyst/clinic-booking/internal/booking"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
)

type BookingService struct {
	bookingpb.UnimplementedBookingServiceServer

	engine   *booking.Engine
	manager  *booking.Manager
	maint    *booking.Maintenance
	hours    calendar.WorkingHours
	validate *validator.Validate
	log      *zap.Logger
}

func NewBookingService(
	engine *booking.Engine,
	manager *booking.Manager,
	maint *booking.Maintenance,
	log *zap.Logger,
) *BookingService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	return &BookingService{
		engine:   engine,
		manager:  manager,
		maint:    maint,
		hours:    engine.Hours(),
		validate: v,
		log:      log,
	}
}

func (s *BookingService) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return invalidArgument(err)
	}
	return nil
}

func (s *BookingService) GetAvailableStartTimes(
	ctx context.Context,
	req *bookingpb.GetAvailableStartTimesRequest,
) (*bookingpb.GetAvailableStartTimesResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	date, err := s.hours.ParseDate(req.Date)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	starts, err := s.engine.AvailableStartTimes(ctx, date, int(req.DurationMinutes))
	if err != nil {
		return nil, s.toStatus("GetAvailableStartTimes", err)
	}
	return &bookingpb.GetAvailableStartTimesResponse{StartTimes: starts}, nil
}

func (s *BookingService) GetAllSlotsForDate(
	ctx context.Context,
	req *bookingpb.GetAllSlotsForDateRequest,
) (*bookingpb.GetAllSlotsForDateResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	date, err := s.hours.ParseDate(req.Date)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	slots, err := s.engine.AllSlotsForDate(ctx, date)
	if err != nil {
		return nil, s.toStatus("GetAllSlotsForDate", err)
	}
	return &bookingpb.GetAllSlotsForDateResponse{Slots: toSlots(slots)}, nil
}

// Reserve: отсутствие мест — штатный ответ reserved=false, а не ошибка.
func (s *BookingService) Reserve(ctx context.Context, req *bookingpb.ReserveRequest) (*bookingpb.ReserveResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	slots, err := s.engine.Reserve(ctx, req.StartsAt, int(req.Slots))
	if booking.CodeOf(err) == booking.CodeSlotFull {
		return &bookingpb.ReserveResponse{Reserved: false, Reason: string(booking.CodeSlotFull)}, nil
	}
	if err != nil {
		return nil, s.toStatus("Reserve", err)
	}
	return &bookingpb.ReserveResponse{Reserved: true, Slots: toSlots(slots)}, nil
}

func (s *BookingService) Release(ctx context.Context, req *bookingpb.ReleaseRequest) (*emptypb.Empty, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if err := s.engine.Release(ctx, req.StartTimes); err != nil {
		return nil, s.toStatus("Release", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *BookingService) CreateAppointment(
	ctx context.Context,
	req *bookingpb.CreateAppointmentRequest,
) (*bookingpb.AppointmentResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	slotIDs := make([]uuid.UUID, 0, len(req.SlotIDs))
	for _, id := range req.SlotIDs {
		slotIDs = append(slotIDs, uuid.MustParse(id))
	}

	appt, err := s.manager.CreateAppointment(ctx, booking.CreateParams{
		CustomerID: uuid.MustParse(req.CustomerID),
		ServiceID:  uuid.MustParse(req.ServiceID),
		SlotIDs:    slotIDs,
		Contact:    booking.Contact{Channel: model.ContactChannel(req.ContactChannel), Value: req.ContactValue},
		Notes:      req.Notes,
		Status:     model.AppointmentStatus(req.Status),
	})
	return s.appointmentResponse("CreateAppointment", appt, err)
}

func (s *BookingService) Book(ctx context.Context, req *bookingpb.BookRequest) (*bookingpb.AppointmentResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	appt, err := s.manager.Book(ctx, booking.BookParams{
		CustomerID: uuid.MustParse(req.CustomerID),
		ServiceID:  uuid.MustParse(req.ServiceID),
		Start:      req.StartsAt,
		Contact:    booking.Contact{Channel: model.ContactChannel(req.ContactChannel), Value: req.ContactValue},
		Notes:      req.Notes,
		Status:     model.AppointmentStatus(req.Status),
	})
	return s.appointmentResponse("Book", appt, err)
}

func (s *BookingService) GetAppointment(
	ctx context.Context,
	req *bookingpb.AppointmentIDRequest,
) (*bookingpb.AppointmentResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	appt, err := s.manager.Get(ctx, uuid.MustParse(req.ID))
	return s.appointmentResponse("GetAppointment", appt, err)
}

func (s *BookingService) ListCustomerAppointments(
	ctx context.Context,
	req *bookingpb.ListCustomerAppointmentsRequest,
) (*bookingpb.ListCustomerAppointmentsResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	page, err := s.manager.ListByCustomer(ctx, uuid.MustParse(req.CustomerID), int(req.Page), int(req.PageSize))
	if err != nil {
		return nil, s.toStatus("ListCustomerAppointments", err)
	}

	resp := &bookingpb.ListCustomerAppointmentsResponse{
		Appointments: make([]bookingpb.Appointment, 0, len(page.Items)),
		Page:         int32(page.Page),
		PageSize:     int32(page.PageSize),
		Total:        int32(page.Total),
		HasNext:      page.HasNext,
	}
	for i := range page.Items {
		resp.Appointments = append(resp.Appointments, *s.toAppointment(&page.Items[i]))
	}
	return resp, nil
}

func (s *BookingService) ConfirmAppointment(
	ctx context.Context,
	req *bookingpb.AppointmentIDRequest,
) (*bookingpb.AppointmentResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	appt, err := s.manager.Confirm(ctx, uuid.MustParse(req.ID))
	return s.appointmentResponse("ConfirmAppointment", appt, err)
}

func (s *BookingService) CheckInAppointment(
	ctx context.Context,
	req *bookingpb.AppointmentIDRequest,
) (*bookingpb.AppointmentResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	appt, err := s.manager.CheckIn(ctx, uuid.MustParse(req.ID))
	return s.appointmentResponse("CheckInAppointment", appt, err)
}

func (s *BookingService) CompleteAppointment(
	ctx context.Context,
	req *bookingpb.AppointmentIDRequest,
) (*bookingpb.AppointmentResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	appt, err := s.manager.Complete(ctx, uuid.MustParse(req.ID))
	return s.appointmentResponse("CompleteAppointment", appt, err)
}

func (s *BookingService) CancelAppointment(
	ctx context.Context,
	req *bookingpb.CancelAppointmentRequest,
) (*bookingpb.AppointmentResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	appt, err := s.manager.Cancel(ctx, uuid.MustParse(req.ID), req.Reason)
	return s.appointmentResponse("CancelAppointment", appt, err)
}

func (s *BookingService) RescheduleAppointment(
	ctx context.Context,
	req *bookingpb.RescheduleAppointmentRequest,
) (*bookingpb.AppointmentResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	appt, err := s.manager.Reschedule(ctx, uuid.MustParse(req.ID), req.StartsAt)
	return s.appointmentResponse("RescheduleAppointment", appt, err)
}

func (s *BookingService) AssignPractitioner(
	ctx context.Context,
	req *bookingpb.AssignPractitionerRequest,
) (*bookingpb.AppointmentResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	appt, err := s.manager.AssignPractitioner(ctx, uuid.MustParse(req.ID), uuid.MustParse(req.PractitionerID))
	return s.appointmentResponse("AssignPractitioner", appt, err)
}

func (s *BookingService) InitializeSlotsForDate(
	ctx context.Context,
	req *bookingpb.DateCapacityRequest,
) (*bookingpb.CountResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	date, err := s.hours.ParseDate(req.Date)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	created, err := s.maint.InitializeSlotsForDate(ctx, date, int(req.Capacity))
	if err != nil {
		return nil, s.toStatus("InitializeSlotsForDate", err)
	}
	return &bookingpb.CountResponse{Count: int32(created)}, nil
}

func (s *BookingService) UpdateCapacityForDate(
	ctx context.Context,
	req *bookingpb.DateCapacityRequest,
) (*bookingpb.CountResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	date, err := s.hours.ParseDate(req.Date)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	updated, err := s.maint.UpdateCapacityForDate(ctx, date, int(req.Capacity))
	if err != nil {
		return nil, s.toStatus("UpdateCapacityForDate", err)
	}
	return &bookingpb.CountResponse{Count: int32(updated)}, nil
}

func (s *BookingService) CloseSlots(ctx context.Context, req *bookingpb.SlotPeriodRequest) (*bookingpb.CountResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	n, err := s.maint.CloseSlots(ctx, req.From, req.To)
	if err != nil {
		return nil, s.toStatus("CloseSlots", err)
	}
	return &bookingpb.CountResponse{Count: int32(n)}, nil
}

func (s *BookingService) ReopenSlots(ctx context.Context, req *bookingpb.SlotPeriodRequest) (*bookingpb.CountResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	n, err := s.maint.ReopenSlots(ctx, req.From, req.To)
	if err != nil {
		return nil, s.toStatus("ReopenSlots", err)
	}
	return &bookingpb.CountResponse{Count: int32(n)}, nil
}

func (s *BookingService) appointmentResponse(op string, appt *model.Appointment, err error) (*bookingpb.AppointmentResponse, error) {
	if err != nil {
		return nil, s.toStatus(op, err)
	}
	return &bookingpb.AppointmentResponse{Appointment: s.toAppointment(appt)}, nil
}

func (s *BookingService) toAppointment(a *model.Appointment) *bookingpb.Appointment {
	out := &bookingpb.Appointment{
		ID:             a.ID.String(),
		CustomerID:     a.CustomerID.String(),
		ServiceID:      a.ServiceID.String(),
		Date:           time.Time(a.Date).Format(calendar.DateLayout),
		StartsAt:       a.StartsAt,
		EndsAt:         a.EndsAt,
		Status:         string(a.Status),
		ContactChannel: string(a.ContactChannel),
		ContactValue:   a.ContactValue,
		Notes:          a.Notes,
		CreatedAt:      a.CreatedAt,
		Slots:          make([]bookingpb.AppointmentSlot, 0, len(a.Slots)),
	}
	if a.PractitionerID != nil {
		out.PractitionerID = a.PractitionerID.String()
	}
	if a.CancelledAt != nil {
		t := a.CancelledAt.In(s.hours.Location)
		out.CancelledAt = &t
	}
	for _, link := range a.Slots {
		out.Slots = append(out.Slots, bookingpb.AppointmentSlot{
			Order:    int32(link.SlotOrder),
			SlotID:   link.SlotID.String(),
			StartsAt: link.SlotStartsAt,
		})
	}
	return out
}

func toSlots(slots []model.Slot) []bookingpb.Slot {
	out := make([]bookingpb.Slot, 0, len(slots))
	for _, s := range slots {
		out = append(out, bookingpb.Slot{
			ID:          s.ID.String(),
			StartsAt:    s.StartsAt,
			EndsAt:      s.StartsAt.Add(calendar.SlotDuration),
			Capacity:    int32(s.Capacity),
			BookedCount: int32(s.BookedCount),
			Remaining:   int32(s.Remaining()),
			Active:      s.Active,
		})
	}
	return out
}
