package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-tracker-api/internal/metrics"
	"task-tracker-api/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func quietHandler() *Handler {
	return New(Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

func TestFail_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := quietHandler()

	cases := []struct {
		err  error
		code int
	}{
		{&tasks.ValidationError{Fields: map[string]string{"subject": "required"}}, http.StatusBadRequest},
		{fmt.Errorf("%w: OPE-XXXXXX", tasks.ErrTaskNotFound), http.StatusNotFound},
		{tasks.ErrUserNotFound, http.StatusNotFound},
		{metrics.ErrUnknownDepartment, http.StatusNotFound},
		{fmt.Errorf("edit: %w", tasks.ErrForbidden), http.StatusForbidden},
		{&tasks.NotificationError{TaskID: "OPE-ABC123", Err: errors.New("relay down")}, http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		h.fail(c, tc.err)
		require.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

func TestFail_ValidationBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	quietHandler().fail(c, &tasks.ValidationError{Fields: map[string]string{"subject": "This field is required."}})

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "This field is required.", body.Errors["subject"])
}

func TestAPIFail_AlwaysCarriesSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := quietHandler()

	for _, err := range []error{tasks.ErrForbidden, tasks.ErrUserNotFound, errors.New("boom")} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		h.apiFail(c, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, false, body["success"])
		require.NotEmpty(t, body["error"])
	}
}

func TestSegment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got []string
	r.GET("/x/:a/:b/:c", func(c *gin.Context) {
		got = []string{segment(c, "a"), segment(c, "b"), segment(c, "c")}
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/NONE/a%40x.com/In%20Progress", nil))
	require.Equal(t, []string{"", "a@x.com", "In Progress"}, got)
}

func TestOptionalDate(t *testing.T) {
	d, err := optionalDate("deadline", "")
	require.NoError(t, err)
	require.Nil(t, d)

	d, err = optionalDate("deadline", "2026-10-20")
	require.NoError(t, err)
	require.Equal(t, "2026-10-20", d.Format("2006-01-02"))

	_, err = optionalDate("deadline", "20/10/2026")
	var verr *tasks.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "deadline")
}
