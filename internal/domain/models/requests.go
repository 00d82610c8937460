package models

// DecideRequest is the body of POST /api/decide.
type DecideRequest struct {
	Symbol  string  `json:"symbol" validate:"required,max=32"`
	MinConf float64 `json:"min_conf" default:"0.7" validate:"gte=0,lte=1"`
}
