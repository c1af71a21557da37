// internal/webutil/response_test.go
package webutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defkeep/internal/model"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", model.ErrNotFound, http.StatusNotFound},
		{"invalid input", model.ErrInvalidInput, http.StatusBadRequest},
		{"conflict", model.ErrConflict, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{
			"app error unwraps to its sentinel",
			model.NewAppError("NOT_FOUND", "gone", "key", model.ErrNotFound),
			http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Run("app error surfaces its detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleError(rec, model.NewAppError("INVALID_GRADE", "Grade out of range.", "grade", model.ErrInvalidInput))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp model.APIErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_GRADE", resp.Error.Code)
		assert.Equal(t, "grade", resp.Error.Field)
	})

	t.Run("unknown error is not leaked to the client", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleError(rec, errors.New("sql: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp model.APIErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "INTERNAL_SERVER_ERROR", resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "sql")
	})
}

func TestValidator_UsesJSONFieldNames(t *testing.T) {
	err := Validator.Struct(model.GradeCardRequest{})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	appErr := NewValidationErrorResponse(verrs)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Detail.Code)
	assert.Equal(t, "grade", appErr.Detail.Field)
	assert.True(t, errors.Is(appErr, model.ErrInvalidInput))
}
