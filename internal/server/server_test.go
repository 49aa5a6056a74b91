package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iceymoss/go-taskimport/internal/engine"
	"github.com/iceymoss/go-taskimport/internal/server"
	"github.com/iceymoss/go-taskimport/pkg/task"
	"github.com/iceymoss/go-taskimport/pkg/xerr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*server.Server, chan struct{}) {
	t.Helper()
	s := engine.NewScheduler(engine.WithSchedulerLogger(zap.NewNop()))
	ran := make(chan struct{}, 1)
	require.NoError(t, s.RegisterTask("build", task.Func(func(...any) error {
		ran <- struct{}{}
		return nil
	})))
	require.NoError(t, s.RegisterTask("default", task.List{"build"}))
	return server.NewServer(s), ran
}

func TestListTasks(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []engine.TaskStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "build", body.Data[0].Name)
	assert.Equal(t, "func", body.Data[0].Kind)
	assert.Equal(t, "default", body.Data[1].Name)
	assert.Equal(t, "series", body.Data[1].Kind)
}

func TestRunTask(t *testing.T) {
	srv, ran := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/tasks/default/run", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	<-ran

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/tasks/missing/run", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Code  int    `json:"code"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, xerr.ErrTaskNotFound, body.Code)
}

func TestNoRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "API not found")
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"code":%d`, xerr.ErrNotFound))
}
