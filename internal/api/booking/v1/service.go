package bookingv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "clinic.booking.v1.BookingService"

// BookingServiceServer — серверная сторона BookingService.
type BookingServiceServer interface {
	GetAvailableStartTimes(context.Context, *GetAvailableStartTimesRequest) (*GetAvailableStartTimesResponse, error)
	GetAllSlotsForDate(context.Context, *GetAllSlotsForDateRequest) (*GetAllSlotsForDateResponse, error)
	Reserve(context.Context, *ReserveRequest) (*ReserveResponse, error)
	Release(context.Context, *ReleaseRequest) (*emptypb.Empty, error)
	CreateAppointment(context.Context, *CreateAppointmentRequest) (*AppointmentResponse, error)
	Book(context.Context, *BookRequest) (*AppointmentResponse, error)
	GetAppointment(context.Context, *AppointmentIDRequest) (*AppointmentResponse, error)
	ListCustomerAppointments(context.Context, *ListCustomerAppointmentsRequest) (*ListCustomerAppointmentsResponse, error)
	ConfirmAppointment(context.Context, *AppointmentIDRequest) (*AppointmentResponse, error)
	CheckInAppointment(context.Context, *AppointmentIDRequest) (*AppointmentResponse, error)
	CompleteAppointment(context.Context, *AppointmentIDRequest) (*AppointmentResponse, error)
	CancelAppointment(context.Context, *CancelAppointmentRequest) (*AppointmentResponse, error)
	RescheduleAppointment(context.Context, *RescheduleAppointmentRequest) (*AppointmentResponse, error)
	AssignPractitioner(context.Context, *AssignPractitionerRequest) (*AppointmentResponse, error)
	InitializeSlotsForDate(context.Context, *DateCapacityRequest) (*CountResponse, error)
	UpdateCapacityForDate(context.Context, *DateCapacityRequest) (*CountResponse, error)
	CloseSlots(context.Context, *SlotPeriodRequest) (*CountResponse, error)
	ReopenSlots(context.Context, *SlotPeriodRequest) (*CountResponse, error)
	mustEmbedUnimplementedBookingServiceServer()
}

// UnimplementedBookingServiceServer встраивается в реализации, чтобы новые
// методы не ломали сборку.
type UnimplementedBookingServiceServer struct{}

func (UnimplementedBookingServiceServer) GetAvailableStartTimes(context.Context, *GetAvailableStartTimesRequest) (*GetAvailableStartTimesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAvailableStartTimes not implemented")
}

func (UnimplementedBookingServiceServer) GetAllSlotsForDate(context.Context, *GetAllSlotsForDateRequest) (*GetAllSlotsForDateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAllSlotsForDate not implemented")
}

func (UnimplementedBookingServiceServer) Reserve(context.Context, *ReserveRequest) (*ReserveResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Reserve not implemented")
}

func (UnimplementedBookingServiceServer) Release(context.Context, *ReleaseRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Release not implemented")
}

func (UnimplementedBookingServiceServer) CreateAppointment(context.Context, *CreateAppointmentRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateAppointment not implemented")
}

func (UnimplementedBookingServiceServer) Book(context.Context, *BookRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Book not implemented")
}

func (UnimplementedBookingServiceServer) GetAppointment(context.Context, *AppointmentIDRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAppointment not implemented")
}

func (UnimplementedBookingServiceServer) ListCustomerAppointments(context.Context, *ListCustomerAppointmentsRequest) (*ListCustomerAppointmentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListCustomerAppointments not implemented")
}

func (UnimplementedBookingServiceServer) ConfirmAppointment(context.Context, *AppointmentIDRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ConfirmAppointment not implemented")
}

func (UnimplementedBookingServiceServer) CheckInAppointment(context.Context, *AppointmentIDRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckInAppointment not implemented")
}

func (UnimplementedBookingServiceServer) CompleteAppointment(context.Context, *AppointmentIDRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CompleteAppointment not implemented")
}

func (UnimplementedBookingServiceServer) CancelAppointment(context.Context, *CancelAppointmentRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelAppointment not implemented")
}

func (UnimplementedBookingServiceServer) RescheduleAppointment(context.Context, *RescheduleAppointmentRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RescheduleAppointment not implemented")
}

func (UnimplementedBookingServiceServer) AssignPractitioner(context.Context, *AssignPractitionerRequest) (*AppointmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AssignPractitioner not implemented")
}

func (UnimplementedBookingServiceServer) InitializeSlotsForDate(context.Context, *DateCapacityRequest) (*CountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method InitializeSlotsForDate not implemented")
}

func (UnimplementedBookingServiceServer) UpdateCapacityForDate(context.Context, *DateCapacityRequest) (*CountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateCapacityForDate not implemented")
}

func (UnimplementedBookingServiceServer) CloseSlots(context.Context, *SlotPeriodRequest) (*CountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CloseSlots not implemented")
}

func (UnimplementedBookingServiceServer) ReopenSlots(context.Context, *SlotPeriodRequest) (*CountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ReopenSlots not implemented")
}

func (UnimplementedBookingServiceServer) mustEmbedUnimplementedBookingServiceServer() {}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingService_ServiceDesc, srv)
}

// unary собирает описание унарного метода без сгенерированного кода.
func unary[Req, Resp any](name string, call func(BookingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServiceServer), ctx, req.(*Req))
			})
		},
	}
}

var BookingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetAvailableStartTimes", BookingServiceServer.GetAvailableStartTimes),
		unary("GetAllSlotsForDate", BookingServiceServer.GetAllSlotsForDate),
		unary("Reserve", BookingServiceServer.Reserve),
		unary("Release", BookingServiceServer.Release),
		unary("CreateAppointment", BookingServiceServer.CreateAppointment),
		unary("Book", BookingServiceServer.Book),
		unary("GetAppointment", BookingServiceServer.GetAppointment),
		unary("ListCustomerAppointments", BookingServiceServer.ListCustomerAppointments),
		unary("ConfirmAppointment", BookingServiceServer.ConfirmAppointment),
		unary("CheckInAppointment", BookingServiceServer.CheckInAppointment),
		unary("CompleteAppointment", BookingServiceServer.CompleteAppointment),
		unary("CancelAppointment", BookingServiceServer.CancelAppointment),
		unary("RescheduleAppointment", BookingServiceServer.RescheduleAppointment),
		unary("AssignPractitioner", BookingServiceServer.AssignPractitioner),
		unary("InitializeSlotsForDate", BookingServiceServer.InitializeSlotsForDate),
		unary("UpdateCapacityForDate", BookingServiceServer.UpdateCapacityForDate),
		unary("CloseSlots", BookingServiceServer.CloseSlots),
		unary("ReopenSlots", BookingServiceServer.ReopenSlots),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clinic/booking/v1/booking.json",
}

// BookingServiceClient — клиентская сторона BookingService.
type BookingServiceClient interface {
	GetAvailableStartTimes(ctx context.Context, in *GetAvailableStartTimesRequest, opts ...grpc.CallOption) (*GetAvailableStartTimesResponse, error)
	GetAllSlotsForDate(ctx context.Context, in *GetAllSlotsForDateRequest, opts ...grpc.CallOption) (*GetAllSlotsForDateResponse, error)
	Reserve(ctx context.Context, in *ReserveRequest, opts ...grpc.CallOption) (*ReserveResponse, error)
	Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	CreateAppointment(ctx context.Context, in *CreateAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error)
	Book(ctx context.Context, in *BookRequest, opts ...grpc.CallOption) (*AppointmentResponse, error)
	GetAppointment(ctx context.Context, in *AppointmentIDRequest, opts ...grpc.CallOption) (*AppointmentResponse, error)
	ListCustomerAppointments(ctx context.Context, in *ListCustomerAppointmentsRequest, opts ...grpc.CallOption) (*ListCustomerAppointmentsResponse, error)
	ConfirmAppointment(ctx context.Context, in *AppointmentIDRequest, opts ...grpc.CallOption) (*AppointmentResponse, error)
	CheckInAppointment(ctx context.Context, in *AppointmentIDRequest, opts ...grpc.CallOption) (*AppointmentResponse, error)
	CompleteAppointment(ctx context.Context, in *AppointmentIDRequest, opts ...grpc.CallOption) (*AppointmentResponse, error)
	CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error)
	RescheduleAppointment(ctx context.Context, in *RescheduleAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error)
	AssignPractitioner(ctx context.Context, in *AssignPractitionerRequest, opts ...grpc.CallOption) (*AppointmentResponse, error)
	InitializeSlotsForDate(ctx context.Context, in *DateCapacityRequest, opts ...grpc.CallOption) (*CountResponse, error)
	UpdateCapacityForDate(ctx context.Context, in *DateCapacityRequest, opts ...grpc.CallOption) (*CountResponse, error)
	CloseSlots(ctx context.Context, in *SlotPeriodRequest, opts ...grpc.CallOption) (*CountResponse, error)
	ReopenSlots(ctx context.Context, in *SlotPeriodRequest, opts ...grpc.CallOption) (*CountResponse, error)
}

type bookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) BookingServiceClient {
	return &bookingServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingServiceClient) GetAvailableStartTimes(ctx context.Context, in *GetAvailableStartTimesRequest, opts ...grpc.CallOption) (*GetAvailableStartTimesResponse, error) {
	return invoke[GetAvailableStartTimesResponse](ctx, c.cc, "GetAvailableStartTimes", in, opts)
}

func (c *bookingServiceClient) GetAllSlotsForDate(ctx context.Context, in *GetAllSlotsForDateRequest, opts ...grpc.CallOption) (*GetAllSlotsForDateResponse, error) {
	return invoke[GetAllSlotsForDateResponse](ctx, c.cc, "GetAllSlotsForDate", in, opts)
}

func (c *bookingServiceClient) Reserve(ctx context.Context, in *ReserveRequest, opts ...grpc.CallOption) (*ReserveResponse, error) {
	return invoke[ReserveResponse](ctx, c.cc, "Reserve", in, opts)
}

func (c *bookingServiceClient) Release(ctx context.Context, in *ReleaseRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "Release", in, opts)
}

func (c *bookingServiceClient) CreateAppointment(ctx context.Context, in *CreateAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "CreateAppointment", in, opts)
}

func (c *bookingServiceClient) Book(ctx context.Context, in *BookRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "Book", in, opts)
}

func (c *bookingServiceClient) GetAppointment(ctx context.Context, in *AppointmentIDRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "GetAppointment", in, opts)
}

func (c *bookingServiceClient) ListCustomerAppointments(ctx context.Context, in *ListCustomerAppointmentsRequest, opts ...grpc.CallOption) (*ListCustomerAppointmentsResponse, error) {
	return invoke[ListCustomerAppointmentsResponse](ctx, c.cc, "ListCustomerAppointments", in, opts)
}

func (c *bookingServiceClient) ConfirmAppointment(ctx context.Context, in *AppointmentIDRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "ConfirmAppointment", in, opts)
}

func (c *bookingServiceClient) CheckInAppointment(ctx context.Context, in *AppointmentIDRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "CheckInAppointment", in, opts)
}

func (c *bookingServiceClient) CompleteAppointment(ctx context.Context, in *AppointmentIDRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "CompleteAppointment", in, opts)
}

func (c *bookingServiceClient) CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "CancelAppointment", in, opts)
}

func (c *bookingServiceClient) RescheduleAppointment(ctx context.Context, in *RescheduleAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "RescheduleAppointment", in, opts)
}

func (c *bookingServiceClient) AssignPractitioner(ctx context.Context, in *AssignPractitionerRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "AssignPractitioner", in, opts)
}

func (c *bookingServiceClient) InitializeSlotsForDate(ctx context.Context, in *DateCapacityRequest, opts ...grpc.CallOption) (*CountResponse, error) {
	return invoke[CountResponse](ctx, c.cc, "InitializeSlotsForDate", in, opts)
}

func (c *bookingServiceClient) UpdateCapacityForDate(ctx context.Context, in *DateCapacityRequest, opts ...grpc.CallOption) (*CountResponse, error) {
	return invoke[CountResponse](ctx, c.cc, "UpdateCapacityForDate", in, opts)
}

func (c *bookingServiceClient) CloseSlots(ctx context.Context, in *SlotPeriodRequest, opts ...grpc.CallOption) (*CountResponse, error) {
	return invoke[CountResponse](ctx, c.cc, "CloseSlots", in, opts)
}

func (c *bookingServiceClient) ReopenSlots(ctx context.Context, in *SlotPeriodRequest, opts ...grpc.CallOption) (*CountResponse, error) {
	return invoke[CountResponse](ctx, c.cc, "ReopenSlots", in, opts)
}
