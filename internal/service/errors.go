package service

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/clinic-booking/internal/booking"
)

// ErrorDomain — домен в google.rpc.ErrorInfo.
const ErrorDomain = "booking.clinic"

var codeByKind = map[booking.Code]codes.Code{
	booking.CodeBookingInPast:            codes.FailedPrecondition,
	booking.CodeInvalidTimeRange:         codes.InvalidArgument,
	booking.CodeOutsideWorkingHours:      codes.InvalidArgument,
	booking.CodeSlotNotFound:             codes.NotFound,
	booking.CodeSlotFull:                 codes.ResourceExhausted,
	booking.CodeAppointmentNotFound:      codes.NotFound,
	booking.CodeAppointmentStatusInvalid: codes.FailedPrecondition,
	booking.CodeBookingConflict:          codes.AlreadyExists,
	booking.CodeValidation:               codes.InvalidArgument,
}

// toStatus переводит ошибку движка в gRPC-статус. Бизнес-ошибки несут код
// в ErrorInfo.Reason, инфраструктурные скрываются за codes.Internal.
func (s *BookingService) toStatus(op string, err error) error {
	var be *booking.Error
	if !errors.As(err, &be) {
		s.log.Error("booking: internal error", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}

	c, ok := codeByKind[be.Code]
	if !ok {
		c = codes.Unknown
	}
	st := status.New(c, be.Error())
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(be.Code),
		Domain: ErrorDomain,
		Metadata: map[string]string{
			"operation": op,
		},
	})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

func invalidArgument(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	violations := make([]*errdetails.BadRequest_FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, &errdetails.BadRequest_FieldViolation{
			Field:       fe.Field(),
			Description: "failed on '" + fe.Tag() + "'",
		})
	}
	st := status.New(codes.InvalidArgument, verrs.Error())
	withDetails, derr := st.WithDetails(&errdetails.BadRequest{FieldViolations: violations})
	if derr != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// ReasonOf достаёт код бизнес-ошибки из gRPC-ошибки (для клиентов и тестов).
func ReasonOf(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return info.GetReason()
		}
	}
	return ""
}
