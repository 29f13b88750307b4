package model

import "encoding/json"

// SetFieldsRequest patches one or more fields of a wizard draft.
type SetFieldsRequest struct {
	Fields map[string]json.RawMessage `json:"fields" binding:"required,min=1"`
}
