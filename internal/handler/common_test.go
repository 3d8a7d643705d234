package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/architect-sessions/internal/repository"
)

func TestWriteRepoError(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"email exists", repository.ErrEmailExists, http.StatusConflict, "email already exists"},
		{"conflict", repository.ErrConflict, http.StatusConflict, "conflict"},
		{"validation", repository.ErrValidation, http.StatusUnprocessableEntity, "validation failed"},
		{"forbidden", repository.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"not found", repository.ErrNotFound, http.StatusNotFound, "project not found"},
		{"wrapped not found", fmt.Errorf("get project: %w", repository.ErrNotFound), http.StatusNotFound, "project not found"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, writeRepoError(c, tc.err, "project not found"))
			require.Equal(t, tc.wantCode, rec.Code)
			require.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}

func TestRequestValidator(t *testing.T) {
	v := NewRequestValidator()

	type body struct {
		Email string `validate:"required,email"`
	}

	require.NoError(t, v.Validate(&body{Email: "a@example.com"}))

	err := v.Validate(&body{Email: "not-an-email"})
	require.Error(t, err)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
}
