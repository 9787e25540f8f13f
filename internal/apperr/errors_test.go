package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"transition", workflows.Result{Message: "Cannot transition"}.Err("A", "B"), http.StatusBadRequest},
		{"wrapped transition", fmt.Errorf("apply: %w", workflows.Result{Message: "x"}.Err("A", "B")), http.StatusBadRequest},
		{"not found", fmt.Errorf("project %s: %w", "p1", ErrNotFound), http.StatusNotFound},
		{"field not allowed", New(ErrFieldNotAllowed, "Field '%s' cannot be updated through this endpoint", "x"), http.StatusBadRequest},
		{"invalid value", New(ErrInvalidValue, "bad"), http.StatusBadRequest},
		{"conflict", ErrStatusConflict, http.StatusConflict},
		{"not ready", New(ErrNotReady, "Folder not provisioned yet"), http.StatusConflict},
		{"unavailable", New(ErrUnavailable, "Storage temporarily unavailable"), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessageIsVerbatim(t *testing.T) {
	err := New(ErrFieldNotAllowed, "Field '%s' cannot be updated through this endpoint", "status")

	assert.Equal(t, "Field 'status' cannot be updated through this endpoint", err.Error())
	assert.ErrorIs(t, err, ErrFieldNotAllowed)
}
