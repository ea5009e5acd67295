package position

import (
	"fmt"
)

// RowUpdate asks for a row to be ordered by NewPosition.
// NewPosition is a sort key only; it does not have to be dense or unique.
type RowUpdate struct {
	RowID       int64 `json:"rowId"`
	NewPosition int   `json:"newPosition"`
}

// Request reorders the rows of one parent scope.
type Request struct {
	Definition Definition
	ParentID   int64
	RowUpdates []RowUpdate
}

// NewRequest creates a request for the scope identified by parentID
func NewRequest(def Definition, parentID int64, updates ...RowUpdate) *Request {
	return &Request{
		Definition: def,
		ParentID:   parentID,
		RowUpdates: updates,
	}
}

// Validate checks the request before any storage access
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	if err := r.Definition.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}
