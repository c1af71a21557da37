// internal/webutil/request.go
package webutil

import (
	"encoding/json"
	"net/http"

	"defkeep/internal/model"
)

// DecodeJSONBody decodes the request body into dst. Unknown fields are
// rejected so typos surface instead of being silently dropped.
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.ErrInvalidInput
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return model.NewAppError("INVALID_BODY", "Request body could not be decoded.", "", model.ErrInvalidInput)
	}
	return nil
}
