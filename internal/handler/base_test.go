package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type payload struct {
	Name  string `json:"name" binding:"required"`
	Count int    `json:"count" binding:"min=1"`
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	_ = middleware.RegisterValidators()
	r := gin.New()
	r.POST("/bind", func(c *gin.Context) {
		var p payload
		if !BindJSON(c, &p) {
			return
		}
		c.JSON(http.StatusOK, p)
	})
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := ParamID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBindJSON(t *testing.T) {
	r := newEngine()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields bool
	}{
		{name: "valid", body: `{"name":"a","count":2}`, wantStatus: http.StatusOK},
		{name: "missing field", body: `{"count":2}`, wantStatus: http.StatusBadRequest, wantFields: true},
		{name: "malformed", body: `{"name":`, wantStatus: http.StatusBadRequest},
		{name: "empty", body: ``, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodPost, "/bind", tt.body)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				return
			}
			var body httputil.ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "bad_request", body.Code)
			if tt.wantFields {
				assert.Contains(t, body.Details, "fields")
				assert.Contains(t, w.Body.String(), `"field":"name"`)
			}
		})
	}
}

func TestParamID(t *testing.T) {
	r := newEngine()

	w := serve(r, http.MethodGet, "/items/42", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42}`, w.Body.String())

	for _, bad := range []string{"abc", "0", "-3"} {
		w := serve(r, http.MethodGet, "/items/"+bad, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}
