package request

type CreateBookingRequest struct {
	ShowingID string   `json:"showing_id" validate:"required,uuid4"`
	Seats     []string `json:"seats" validate:"required,min=1,dive,min=2,max=4"`
}

type CreateHoldRequest struct {
	ShowingID string   `json:"showing_id" validate:"required,uuid4"`
	Seats     []string `json:"seats" validate:"required,min=1,dive,min=2,max=4"`
}
