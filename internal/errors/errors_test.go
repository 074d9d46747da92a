package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"statcalc/domain/core"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"unsupported format", fmt.Errorf("%w: .xls", core.ErrUnsupportedFormat), CodeUnsupportedFormat, http.StatusBadRequest},
		{"parse", fmt.Errorf("%w: bad quote", core.ErrParse), CodeParseError, http.StatusBadRequest},
		{"analysis not found", core.NewNotFoundError("analysis", 9), CodeNotFound, http.StatusNotFound},
		{"no dataset", core.ErrNoDataset, CodeNoDataset, http.StatusConflict},
		{"no original", core.ErrNoOriginal, CodeNoDataset, http.StatusConflict},
		{"same column", core.NewSameColumnError("A"), CodePrecondition, http.StatusUnprocessableEntity},
		{"invalid alpha", core.ErrInvalidAlpha, CodeInvalidInput, http.StatusBadRequest},
		{"persistence", core.NewPersistenceError("save analysis", fmt.Errorf("disk full")), CodeDatabaseError, http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), CodeInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomain(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, HTTPStatus(appErr.Code))
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
	assert.Nil(t, FromDomain(nil))
}

func TestWrapKeepsCode(t *testing.T) {
	base := NotFound("analysis")
	wrapped := Wrapf(base, "loading %d", 3)

	assert.Equal(t, CodeNotFound, GetCode(wrapped))
	assert.Equal(t, CodeInternalError, GetCode(Wrap(fmt.Errorf("x"), "ctx")))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
	assert.Nil(t, Wrap(nil, "ctx"))
}
