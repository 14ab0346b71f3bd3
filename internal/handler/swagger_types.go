package handler

import (
	"time"

	"lawnorm/internal/domain"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// DocumentStateResponse is a processing state with its derived status.
type DocumentStateResponse struct {
	ContentID         string                `json:"content_id" example:"ord-2291"`
	StateCode         string                `json:"state_code" example:"TX"`
	PlaceName         string                `json:"place_name" example:"Austin"`
	Status            domain.DocumentStatus `json:"status" example:"failed"`
	IsLoaded          bool                  `json:"is_loaded" example:"true"`
	IsProcessed       bool                  `json:"is_processed" example:"true"`
	IsTranslated      bool                  `json:"is_translated" example:"false"`
	PermanentlyFailed bool                  `json:"permanently_failed" example:"false"`
	AssignedSchema    string                `json:"assigned_schema,omitempty" example:"9f2c41d0a7e3"`
	DocumentType      string                `json:"document_type,omitempty" example:"Ordinance"`
	AttemptCount      int                   `json:"attempt_count" example:"1"`
	LastError         *string               `json:"last_error" example:"llm output failed validation"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func newDocumentStateResponse(st *domain.ProcessingState, maxAttempts int) DocumentStateResponse {
	return DocumentStateResponse{
		ContentID:         st.ContentID,
		StateCode:         st.StateCode,
		PlaceName:         st.PlaceName,
		Status:            st.Status(maxAttempts),
		IsLoaded:          st.IsLoaded,
		IsProcessed:       st.IsProcessed,
		IsTranslated:      st.IsTranslated,
		PermanentlyFailed: st.PermanentlyFailed,
		AssignedSchema:    st.AssignedSchema,
		DocumentType:      st.DocumentType,
		AttemptCount:      st.AttemptCount,
		LastError:         st.LastError,
		UpdatedAt:         st.UpdatedAt,
	}
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
}

// PaginatedResponse wraps a successful list response with pagination metadata.
type PaginatedResponse struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
