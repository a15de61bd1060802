package domain

import "errors"

// Rejection kinds returned by the lifecycle engine and the auth layer.
// Callers match them with errors.Is; messages carry the details.
var (
	ErrNotFound              = errors.New("record not found")
	ErrSlotUnavailable       = errors.New("slot is not available")
	ErrVehicleAlreadyParked  = errors.New("vehicle already has a live booking")
	ErrUserAlreadyHasBooking = errors.New("user already has a live booking")
	ErrInvalidTransition     = errors.New("invalid booking transition")
	ErrSlotInUse             = errors.New("slot is in use")
	ErrDuplicateSlotNumber   = errors.New("slot number already exists")
	ErrDuplicateUsername     = errors.New("username already exists")
	ErrDuplicatePhone        = errors.New("phone number already registered")
	ErrInvalidInput          = errors.New("invalid input")
	ErrForbidden             = errors.New("operation not permitted for this role")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrUserHasLiveBooking    = errors.New("user has a live booking")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotFound, "NotFound"},
	{ErrSlotUnavailable, "SlotUnavailable"},
	{ErrVehicleAlreadyParked, "VehicleAlreadyParked"},
	{ErrUserAlreadyHasBooking, "UserAlreadyHasBooking"},
	{ErrInvalidTransition, "InvalidTransition"},
	{ErrSlotInUse, "SlotInUse"},
	{ErrDuplicateSlotNumber, "DuplicateSlotNumber"},
	{ErrDuplicateUsername, "DuplicateUsername"},
	{ErrDuplicatePhone, "DuplicatePhone"},
	{ErrInvalidInput, "InvalidInput"},
	{ErrForbidden, "Forbidden"},
	{ErrInvalidCredentials, "InvalidCredentials"},
	{ErrUserHasLiveBooking, "UserHasLiveBooking"},
}

// ErrorCode names the rejection kind wrapped in err, or "" for anything else.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ""
}
