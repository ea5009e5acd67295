package models

import (
	"github.com/go-playground/validator/v10"

	"github.com/ammiranda/position_service/position"
)

// UpdatePositionsRequest represents the request body for reordering the rows
// of one parent
type UpdatePositionsRequest struct {
	ParentID  int64                `json:"parentId" validate:"required,gt=0"`
	Positions []RowPositionRequest `json:"positions" validate:"dive"`
}

// RowPositionRequest is one row's requested sort key. Any integer is
// accepted, negative values sort first.
type RowPositionRequest struct {
	RowID       int64 `json:"rowId" validate:"required,gt=0"`
	NewPosition *int  `json:"newPosition" validate:"required"`
}

// Validate validates the update positions request
func (r *UpdatePositionsRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// RowUpdates converts the requested positions in request order
func (r *UpdatePositionsRequest) RowUpdates() []position.RowUpdate {
	updates := make([]position.RowUpdate, 0, len(r.Positions))
	for _, p := range r.Positions {
		updates = append(updates, position.RowUpdate{
			RowID:       p.RowID,
			NewPosition: *p.NewPosition,
		})
	}
	return updates
}
