package service

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	bookingpb "github.com/Leganyst/clinic-booking/internal/api/booking/v1"
	"github.com/Leganyst/clinic-booking/internal/booking"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/config"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

const testDate = "2025-03-11"

type harness struct {
	client   bookingpb.BookingServiceClient
	health   healthpb.HealthClient
	services repository.ServiceRepository
	loc      *time.Location
}

// newHarness поднимает сервис на bufconn поверх in-memory SQLite.
// "Сейчас" — 2025-03-10 07:00 по Хошимину.
func newHarness(t *testing.T) *harness {
	t.Helper()

	gdb, err := db.NewGormDB(&config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))

	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	hours := calendar.DefaultWorkingHours(loc)
	now := time.Date(2025, 3, 10, 7, 0, 0, 0, loc)
	clock := booking.WithClock(func() time.Time { return now })

	stores := booking.Stores{
		Slots:         repository.NewGormSlotRepository(gdb),
		Appointments:  repository.NewGormAppointmentRepository(gdb),
		Services:      repository.NewGormServiceRepository(gdb),
		Practitioners: repository.NewGormPractitionerRepository(gdb),
		Events:        repository.NewGormEventRepository(gdb),
	}
	tx := db.NewTxManager(gdb)
	log := zap.NewNop()

	engine := booking.NewEngine(tx, stores.Slots, hours, log, clock)
	manager := booking.NewManager(tx, engine, stores, log, clock)
	maint := booking.NewMaintenance(tx, stores.Slots, stores.Events, hours, []time.Weekday{time.Sunday}, log)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoveryInterceptor(log),
		RequestIDInterceptor(),
		LoggingInterceptor(log),
	))
	bookingpb.RegisterBookingServiceServer(srv, NewBookingService(engine, manager, maint, log))
	hs := health.NewServer()
	hs.SetServingStatus(bookingpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{
		client:   bookingpb.NewBookingServiceClient(conn),
		health:   healthpb.NewHealthClient(conn),
		services: stores.Services,
		loc:      loc,
	}
}

func (h *harness) at(hour, min int) time.Time {
	return time.Date(2025, 3, 11, hour, min, 0, 0, h.loc)
}

func (h *harness) seed(t *testing.T, capacity int32) {
	t.Helper()
	resp, err := h.client.InitializeSlotsForDate(context.Background(), &bookingpb.DateCapacityRequest{
		Date:     testDate,
		Capacity: capacity,
	})
	require.NoError(t, err)
	require.EqualValues(t, 16, resp.Count)
}

func requireReason(t *testing.T, err error, code codes.Code, reason booking.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, status.Code(err))
	assert.Equal(t, string(reason), ReasonOf(err))
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: bookingpb.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestGetAvailableStartTimes_SkipsLunch(t *testing.T) {
	h := newHarness(t)
	h.seed(t, 1)

	resp, err := h.client.GetAvailableStartTimes(context.Background(), &bookingpb.GetAvailableStartTimesRequest{
		Date:            testDate,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, resp.StartTimes, 14)
	assert.Equal(t, "08:00", resp.StartTimes[0].In(h.loc).Format("15:04"))
	assert.Equal(t, "16:00", resp.StartTimes[13].In(h.loc).Format("15:04"))
	for _, st := range resp.StartTimes {
		hhmm := st.In(h.loc).Format("15:04")
		assert.NotEqual(t, "11:30", hhmm)
		assert.NotEqual(t, "12:00", hhmm)
		assert.NotEqual(t, "12:30", hhmm)
	}
}

func TestGetAvailableStartTimes_BadDate(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.GetAvailableStartTimes(context.Background(), &bookingpb.GetAvailableStartTimesRequest{
		Date:            "11.03.2025",
		DurationMinutes: 30,
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestReserve_FullIsNotAnError(t *testing.T) {
	h := newHarness(t)
	h.seed(t, 1)
	ctx := context.Background()

	first, err := h.client.Reserve(ctx, &bookingpb.ReserveRequest{StartsAt: h.at(10, 0), Slots: 2})
	require.NoError(t, err)
	assert.True(t, first.Reserved)
	require.Len(t, first.Slots, 2)
	assert.EqualValues(t, 1, first.Slots[0].BookedCount)
	assert.EqualValues(t, 0, first.Slots[1].Remaining)

	second, err := h.client.Reserve(ctx, &bookingpb.ReserveRequest{StartsAt: h.at(10, 30), Slots: 1})
	require.NoError(t, err)
	assert.False(t, second.Reserved)
	assert.Equal(t, "SLOT_FULL", second.Reason)
	assert.Empty(t, second.Slots)
}

func TestReserve_BusinessErrors(t *testing.T) {
	h := newHarness(t)
	h.seed(t, 1)
	ctx := context.Background()

	_, err := h.client.Reserve(ctx, &bookingpb.ReserveRequest{
		StartsAt: time.Date(2025, 3, 10, 6, 0, 0, 0, h.loc),
		Slots:    1,
	})
	requireReason(t, err, codes.FailedPrecondition, booking.CodeBookingInPast)

	_, err = h.client.Reserve(ctx, &bookingpb.ReserveRequest{StartsAt: h.at(11, 30), Slots: 2})
	requireReason(t, err, codes.InvalidArgument, booking.CodeOutsideWorkingHours)

	_, err = h.client.Reserve(ctx, &bookingpb.ReserveRequest{StartsAt: h.at(9, 0), Slots: 0})
	requireReason(t, err, codes.InvalidArgument, booking.CodeInvalidTimeRange)
}

func TestRelease_UnknownSlot(t *testing.T) {
	h := newHarness(t)
	h.seed(t, 1)

	_, err := h.client.Release(context.Background(), &bookingpb.ReleaseRequest{
		StartTimes: []time.Time{h.at(12, 0)},
	})
	requireReason(t, err, codes.NotFound, booking.CodeSlotNotFound)
}

func TestBook_ValidationDetails(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Book(context.Background(), &bookingpb.BookRequest{
		CustomerID: "not-a-uuid",
		ServiceID:  uuid.NewString(),
		StartsAt:   h.at(9, 0),
	})
	require.Error(t, err)
	st := status.Convert(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())

	var fields []string
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.GetFieldViolations() {
				fields = append(fields, v.GetField())
			}
		}
	}
	assert.Equal(t, []string{"customer_id"}, fields)
}

func TestBookCancelFlow(t *testing.T) {
	h := newHarness(t)
	h.seed(t, 2)
	ctx := context.Background()

	svc := &model.Service{Name: "Checkup", DurationMinutes: 45, IsActive: true}
	require.NoError(t, h.services.Create(ctx, svc))
	customer := uuid.NewString()

	booked, err := h.client.Book(ctx, &bookingpb.BookRequest{
		CustomerID:     customer,
		ServiceID:      svc.ID.String(),
		StartsAt:       h.at(14, 0),
		ContactChannel: "ZALO",
		ContactValue:   "0901234567",
	})
	require.NoError(t, err)
	appt := booked.Appointment
	require.NotNil(t, appt)
	assert.Equal(t, "PENDING", appt.Status)
	assert.Equal(t, testDate, appt.Date)
	require.Len(t, appt.Slots, 2)
	assert.Equal(t, "15:00", appt.EndsAt.In(h.loc).Format("15:04"))

	_, err = h.client.Book(ctx, &bookingpb.BookRequest{
		CustomerID: customer,
		ServiceID:  svc.ID.String(),
		StartsAt:   h.at(14, 30),
	})
	requireReason(t, err, codes.AlreadyExists, booking.CodeBookingConflict)

	slots, err := h.client.GetAllSlotsForDate(ctx, &bookingpb.GetAllSlotsForDateRequest{Date: testDate})
	require.NoError(t, err)
	require.Len(t, slots.Slots, 16)
	booked14 := 0
	for _, s := range slots.Slots {
		switch s.StartsAt.In(h.loc).Format("15:04") {
		case "14:00", "14:30":
			booked14 += int(s.BookedCount)
		default:
			assert.Zero(t, s.BookedCount)
		}
	}
	assert.Equal(t, 2, booked14)

	list, err := h.client.ListCustomerAppointments(ctx, &bookingpb.ListCustomerAppointmentsRequest{CustomerID: customer})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
	require.Len(t, list.Appointments, 1)
	assert.Equal(t, appt.ID, list.Appointments[0].ID)

	cancelled, err := h.client.CancelAppointment(ctx, &bookingpb.CancelAppointmentRequest{ID: appt.ID, Reason: "travel"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Appointment.Status)
	assert.NotNil(t, cancelled.Appointment.CancelledAt)

	_, err = h.client.CancelAppointment(ctx, &bookingpb.CancelAppointmentRequest{ID: appt.ID})
	requireReason(t, err, codes.FailedPrecondition, booking.CodeAppointmentStatusInvalid)

	slots, err = h.client.GetAllSlotsForDate(ctx, &bookingpb.GetAllSlotsForDateRequest{Date: testDate})
	require.NoError(t, err)
	for _, s := range slots.Slots {
		assert.Zero(t, s.BookedCount)
	}
}

func TestGetAppointment_NotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.GetAppointment(context.Background(), &bookingpb.AppointmentIDRequest{ID: uuid.NewString()})
	requireReason(t, err, codes.NotFound, booking.CodeAppointmentNotFound)
}

func TestCloseAndReopenSlots(t *testing.T) {
	h := newHarness(t)
	h.seed(t, 1)
	ctx := context.Background()

	closed, err := h.client.CloseSlots(ctx, &bookingpb.SlotPeriodRequest{From: h.at(8, 0), To: h.at(10, 0)})
	require.NoError(t, err)
	assert.EqualValues(t, 4, closed.Count)

	resp, err := h.client.Reserve(ctx, &bookingpb.ReserveRequest{StartsAt: h.at(9, 0), Slots: 1})
	require.NoError(t, err)
	assert.False(t, resp.Reserved)

	reopened, err := h.client.ReopenSlots(ctx, &bookingpb.SlotPeriodRequest{From: h.at(8, 0), To: h.at(10, 0)})
	require.NoError(t, err)
	assert.EqualValues(t, 4, reopened.Count)

	_, err = h.client.CloseSlots(ctx, &bookingpb.SlotPeriodRequest{From: h.at(10, 0), To: h.at(9, 0)})
	requireReason(t, err, codes.InvalidArgument, booking.CodeInvalidTimeRange)
}

func TestRateLimiter_RejectsBurst(t *testing.T) {
	l := NewRateLimiter(1, 1)
	handler := func(context.Context, any) (any, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/" + bookingpb.ServiceName + "/Reserve"}
	ic := l.Interceptor()

	_, err := ic(context.Background(), nil, info, handler)
	require.NoError(t, err)
	_, err = ic(context.Background(), nil, info, handler)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestRateLimiter_EvictsIdlePeers(t *testing.T) {
	l := NewRateLimiter(10, 10)
	now := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	handler := func(context.Context, any) (any, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/" + bookingpb.ServiceName + "/Reserve"}
	ic := l.Interceptor()
	fromPeer := func(host string) context.Context {
		return peer.NewContext(context.Background(), &peer.Peer{
			Addr: &net.TCPAddr{IP: net.ParseIP(host), Port: 40000},
		})
	}

	_, err := ic(fromPeer("10.0.0.1"), nil, info, handler)
	require.NoError(t, err)
	_, err = ic(fromPeer("10.0.0.2"), nil, info, handler)
	require.NoError(t, err)
	assert.Len(t, l.limiters, 2)

	now = now.Add(5 * time.Minute)
	_, err = ic(fromPeer("10.0.0.2"), nil, info, handler)
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)
	_, err = ic(fromPeer("10.0.0.3"), nil, info, handler)
	require.NoError(t, err)

	assert.Len(t, l.limiters, 2)
	assert.NotContains(t, l.limiters, "10.0.0.1")
	assert.Contains(t, l.limiters, "10.0.0.2")
	assert.Contains(t, l.limiters, "10.0.0.3")
}

func TestRecoveryInterceptor(t *testing.T) {
	ic := RecoveryInterceptor(zap.NewNop())
	_, err := ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"},
		func(context.Context, any) (any, error) { panic("boom") })
	assert.Equal(t, codes.Internal, status.Code(err))
}
