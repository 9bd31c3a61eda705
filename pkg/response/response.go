package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST ErrCode = "REQUEST_FAILED"
	BAD_REQUEST    ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND      ErrCode = "NOT_FOUND"
	UNAUTHORIZED   ErrCode = "UNAUTHORIZED"
	LOCKED         ErrCode = "LOCKED"
	CONFLICT       ErrCode = "CONFLICT"
	SLOT_TAKEN     ErrCode = "SLOT_TAKEN"
	CANCEL_CUTOFF  ErrCode = "CANCEL_CUTOFF"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("missing bearer token")
	ErrNotFound       = errors.New("resource not found")
	ErrLocked         = errors.New("resource is locked")
	ErrConflict       = errors.New("conflict")
	ErrSlotTaken      = errors.New("slot already registered for this date")
	ErrCancelCutoff   = errors.New("cancellation cutoff passed")
	ErrAlreadyChecked = errors.New("attendance already checked in")
)

// Vietnamese user-facing messages, sent verbatim to the client. The
// cutoff message in particular must reach the UI unmodified.
const (
	MsgCancelCutoff   = "Chỉ có thể hủy ca làm việc trước ngày làm việc ít nhất 1 ngày"
	MsgSlotTaken      = "Ca làm việc này đã được đăng ký cho ngày đã chọn"
	MsgAlreadyChecked = "Ca làm việc này đã được check-in"
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
