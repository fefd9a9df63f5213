package dto

import "time"

// --- System Log DTOs ---

type LogListRequest struct {
	Page  int    `query:"page"`
	Limit int    `query:"limit"`
	Level string `query:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
}

type LogListResponse struct {
	Id        string    `json:"id"` // MD5 of the log line
	Level     string    `json:"level"`
	Module    string    `json:"module"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details"`
}
