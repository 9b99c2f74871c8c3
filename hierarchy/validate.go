package hierarchy

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Field limits for node input.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// NodeInput is the form data for adding or editing a node.
// ParentID is only used by AddNode; nil adds a root.
type NodeInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ParentID    *string `json:"parentId"`
}

// normalize trims surrounding whitespace.
func (in NodeInput) normalize() NodeInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.ParentID != nil && strings.TrimSpace(*in.ParentID) == "" {
		in.ParentID = nil
	}
	return in
}

// Validate checks the input and returns a *ValidationError on failure.
func (in NodeInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, MaxNameLength),
		),
		validation.Field(&in.Description,
			validation.RuneLength(0, MaxDescriptionLength),
		),
	)
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}
