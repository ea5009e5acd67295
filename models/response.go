package models

import "github.com/ammiranda/position_service/position"

// PositionsResponse lists the stored order of one parent's rows
type PositionsResponse struct {
	Grid      string                 `json:"grid"`
	ParentID  int64                  `json:"parentId"`
	Positions []position.RowPosition `json:"positions"`
}

// RowErrorResponse is a row that could not be written
type RowErrorResponse struct {
	Key        string `json:"key"`
	Domain     string `json:"domain"`
	Parameters []any  `json:"parameters"`
	Message    string `json:"message"`
}

// UpdatePositionsResponse reports the rows that could not be written. Errors
// is empty when the whole scope was saved.
type UpdatePositionsResponse struct {
	Errors []RowErrorResponse `json:"errors"`
}

// NewUpdatePositionsResponse builds the response for the given row errors
func NewUpdatePositionsResponse(errs []position.FieldError) UpdatePositionsResponse {
	resp := UpdatePositionsResponse{
		Errors: make([]RowErrorResponse, 0, len(errs)),
	}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, RowErrorResponse{
			Key:        e.Key,
			Domain:     e.Domain,
			Parameters: e.Parameters,
			Message:    e.Message(),
		})
	}
	return resp
}
