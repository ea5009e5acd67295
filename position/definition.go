package position

import (
	"github.com/go-playground/validator/v10"
)

// Definition describes where an orderable entity stores its position.
// It is passed by value so a Request never observes later changes to it.
type Definition struct {
	// Table is the entity's own table
	Table string `json:"table" yaml:"table" validate:"required"`
	// ParentTable holds the parent scope
	ParentTable string `json:"parentTable" yaml:"parent_table" validate:"required"`
	// IDField identifies a row within Table
	IDField string `json:"idField" yaml:"id_field" validate:"required"`
	// PositionField holds the integer position within Table
	PositionField string `json:"positionField" yaml:"position_field" validate:"required"`
	// ParentIDField links a row of Table to its parent
	ParentIDField string `json:"parentIdField" yaml:"parent_id_field" validate:"required"`
	// ParentTableIDField identifies the parent within ParentTable
	ParentTableIDField string `json:"parentTableIdField" yaml:"parent_table_id_field" validate:"required"`
}

var validate = validator.New()

// Validate checks that every table and field name is set
func (d Definition) Validate() error {
	return validate.Struct(d)
}
