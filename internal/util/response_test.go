package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		code int
	}{
		{ErrInvalidScope, http.StatusNotFound},
		{fmt.Errorf("n=-1: %w", ErrInvalidQuizParams), http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrScopeNotFound, http.StatusNotFound},
		{fmt.Errorf("want 5: %w", ErrNotEnoughQuestions), http.StatusNotFound},
		{ErrQuestionNotFound, http.StatusNotFound},
		{ErrReportNotFound, http.StatusNotFound},
		{ErrEmailRegistered, http.StatusConflict},
		{ErrChapterNotEmpty, http.StatusConflict},
		{fmt.Errorf("%w: timeout", ErrScorerUnavailable), http.StatusBadGateway},
		{fmt.Errorf("%w: set report.font_path", ErrReportFontRequired), http.StatusInternalServerError},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleError(c, tc.err)

			assert.Equal(t, tc.code, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Code)
			if errors.Is(tc.err, ErrReportFontRequired) {
				assert.Contains(t, resp.Message, "report.font_path")
			} else if tc.code == http.StatusInternalServerError {
				assert.NotContains(t, resp.Message, "disk on fire")
			}
		})
	}
}
