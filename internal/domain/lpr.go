package domain

// LPRRequestDTO carries a camera frame as base64.
type LPRRequestDTO struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
}

type LPRResponseDTO struct {
	DetectedPlate string    `json:"detected_plate"`
	Confidence    float32   `json:"confidence,omitempty"`
	LiveBookings  []Booking `json:"live_bookings"`
}
