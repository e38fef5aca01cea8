package request

type CreateShowingRequest struct {
	Title           string   `json:"title" validate:"required,min=1,max=200"`
	VenueName       string   `json:"venue_name" validate:"required,min=1,max=200"`
	StartsAt        string   `json:"starts_at" validate:"required"`
	Rows            int      `json:"rows" validate:"required,min=1,max=26"`
	SeatsPerRow     int      `json:"seats_per_row" validate:"required,min=1,max=99"`
	VIPRows         []string `json:"vip_rows" validate:"dive,len=1"`
	AccessibleRows  []string `json:"accessible_rows" validate:"dive,len=1"`
	RegularPrice    float64  `json:"regular_price" validate:"required,gt=0"`
	VIPPrice        float64  `json:"vip_price" validate:"gte=0"`
	AccessiblePrice float64  `json:"accessible_price" validate:"gte=0"`
}
