package handlers

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error" validate:"required,min=1,max=500"`
	Code  string `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status" validate:"required,oneof=ok alive ready unavailable"`
	Uptime    string `json:"uptime" validate:"required"`
	Timestamp string `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Reason    string `json:"reason,omitempty"`
}
