package core

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hunghnUIT/seft-203/internal/database"
	"github.com/hunghnUIT/seft-203/internal/middleware"
	"github.com/hunghnUIT/seft-203/internal/models"
)

type MockUserService struct {
	RegisterFunc    func(ctx context.Context, email, name, password string) error
	VerifyEmailFunc func(ctx context.Context, token string) (*models.User, error)
	LoginFunc       func(ctx context.Context, email, password string) (string, error)
	LogoutFunc      func(ctx context.Context, email string) error
}

func (m *MockUserService) Register(ctx context.Context, email, name, password string) error {
	return m.RegisterFunc(ctx, email, name, password)
}

func (m *MockUserService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	return m.VerifyEmailFunc(ctx, token)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (string, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *MockUserService) Logout(ctx context.Context, email string) error {
	return m.LogoutFunc(ctx, email)
}

type MockTaskRepository struct {
	CreateFunc       func(ctx context.Context, email, note string) (*models.Task, error)
	ListFunc         func(ctx context.Context, email string) ([]models.Task, error)
	GetFunc          func(ctx context.Context, email, taskID string) (*models.Task, error)
	UpdateFunc       func(ctx context.Context, email, taskID string, update models.TaskUpdate) (*models.Task, error)
	DeleteFunc       func(ctx context.Context, email, taskID string) error
	SearchByNoteFunc func(ctx context.Context, email string, checked bool, substring string) ([]models.Task, error)
	ReportFunc       func(ctx context.Context, email string) (*models.TaskReport, error)
	ImportFunc       func(ctx context.Context, email, body string) (int, error)
}

func (m *MockTaskRepository) Create(ctx context.Context, email, note string) (*models.Task, error) {
	return m.CreateFunc(ctx, email, note)
}

func (m *MockTaskRepository) List(ctx context.Context, email string) ([]models.Task, error) {
	return m.ListFunc(ctx, email)
}

func (m *MockTaskRepository) Get(ctx context.Context, email, taskID string) (*models.Task, error) {
	return m.GetFunc(ctx, email, taskID)
}

func (m *MockTaskRepository) Update(ctx context.Context, email, taskID string, update models.TaskUpdate) (*models.Task, error) {
	return m.UpdateFunc(ctx, email, taskID, update)
}

func (m *MockTaskRepository) Delete(ctx context.Context, email, taskID string) error {
	return m.DeleteFunc(ctx, email, taskID)
}

func (m *MockTaskRepository) SearchByNote(ctx context.Context, email string, checked bool, substring string) ([]models.Task, error) {
	return m.SearchByNoteFunc(ctx, email, checked, substring)
}

func (m *MockTaskRepository) Report(ctx context.Context, email string) (*models.TaskReport, error) {
	return m.ReportFunc(ctx, email)
}

func (m *MockTaskRepository) Import(ctx context.Context, email, body string) (int, error) {
	return m.ImportFunc(ctx, email, body)
}

func newTestHandler(users UserService, tasks TaskRepository) *Handler {
	return NewHandler(users, tasks, graphql.Schema{}, zap.NewNop())
}

func asPrincipal(req *http.Request, email string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.PrincipalKey, email))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestRegisterHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		users := &MockUserService{
			RegisterFunc: func(ctx context.Context, email, name, password string) error {
				assert.Equal(t, "a@x.com", email)
				assert.Equal(t, "A", name)
				return nil
			},
		}
		handler := newTestHandler(users, &MockTaskRepository{})

		payload, _ := json.Marshal(models.RegisterRequest{Email: "a@x.com", Password: "pw1", Name: "A"})
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBuffer(payload))
		rr := httptest.NewRecorder()

		handler.Register(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, true, body["success"])
	})

	t.Run("Missing Fields", func(t *testing.T) {
		handler := newTestHandler(&MockUserService{}, &MockTaskRepository{})

		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"a@x.com"}`))
		rr := httptest.NewRecorder()

		handler.Register(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Conflict Maps To 422", func(t *testing.T) {
		users := &MockUserService{
			RegisterFunc: func(ctx context.Context, email, name, password string) error {
				return ErrConflict
			},
		}
		handler := newTestHandler(users, &MockTaskRepository{})

		payload, _ := json.Marshal(models.RegisterRequest{Email: "a@x.com", Password: "pw1", Name: "A"})
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBuffer(payload))
		rr := httptest.NewRecorder()

		handler.Register(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		users := &MockUserService{
			LoginFunc: func(ctx context.Context, email, password string) (string, error) {
				return "access_token", nil
			},
		}
		handler := newTestHandler(users, &MockTaskRepository{})

		payload, _ := json.Marshal(models.LoginRequest{Email: "a@x.com", Password: "pw1"})
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(payload))
		rr := httptest.NewRecorder()

		handler.Login(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "access_token", body["accessToken"])
	})

	t.Run("Invalid Credentials", func(t *testing.T) {
		users := &MockUserService{
			LoginFunc: func(ctx context.Context, email, password string) (string, error) {
				return "", ErrInvalidCredentials
			},
		}
		handler := newTestHandler(users, &MockTaskRepository{})

		payload, _ := json.Marshal(models.LoginRequest{Email: "a@x.com", Password: "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(payload))
		rr := httptest.NewRecorder()

		handler.Login(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Not Verified", func(t *testing.T) {
		users := &MockUserService{
			LoginFunc: func(ctx context.Context, email, password string) (string, error) {
				return "", ErrNotVerified
			},
		}
		handler := newTestHandler(users, &MockTaskRepository{})

		payload, _ := json.Marshal(models.LoginRequest{Email: "a@x.com", Password: "pw1"})
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(payload))
		rr := httptest.NewRecorder()

		handler.Login(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestVerifyEmailHandler(t *testing.T) {
	t.Run("Missing Token", func(t *testing.T) {
		handler := newTestHandler(&MockUserService{}, &MockTaskRepository{})

		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		rr := httptest.NewRecorder()

		handler.VerifyEmail(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		users := &MockUserService{
			VerifyEmailFunc: func(ctx context.Context, token string) (*models.User, error) {
				return nil, ErrInvalidToken
			},
		}
		handler := newTestHandler(users, &MockTaskRepository{})

		req := httptest.NewRequest(http.MethodGet, "/verify?token=bad", nil)
		rr := httptest.NewRecorder()

		handler.VerifyEmail(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestCreateTaskHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		tasks := &MockTaskRepository{
			CreateFunc: func(ctx context.Context, email, note string) (*models.Task, error) {
				return &models.Task{UserID: email, TaskID: "t1", Note: note}, nil
			},
		}
		handler := newTestHandler(&MockUserService{}, tasks)

		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"note":"buy milk"}`))
		rr := httptest.NewRecorder()

		handler.CreateTask(rr, asPrincipal(req, "a@x.com"))

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "t1", body["taskId"])
		assert.Equal(t, "buy milk", body["note"])
	})

	t.Run("Missing Note", func(t *testing.T) {
		handler := newTestHandler(&MockUserService{}, &MockTaskRepository{})

		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()

		handler.CreateTask(rr, asPrincipal(req, "a@x.com"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("No Principal", func(t *testing.T) {
		handler := newTestHandler(&MockUserService{}, &MockTaskRepository{})

		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"note":"x"}`))
		rr := httptest.NewRecorder()

		handler.CreateTask(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestGetTaskByIDHandler(t *testing.T) {
	t.Run("Missing Task Maps To 404", func(t *testing.T) {
		tasks := &MockTaskRepository{
			GetFunc: func(ctx context.Context, email, taskID string) (*models.Task, error) {
				return nil, nil
			},
		}
		handler := newTestHandler(&MockUserService{}, tasks)

		req := httptest.NewRequest(http.MethodGet, "/tasks/doesnotexist", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "doesnotexist"})
		rr := httptest.NewRecorder()

		handler.GetTaskByID(rr, asPrincipal(req, "a@x.com"))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateTaskHandler(t *testing.T) {
	t.Run("Missing Task Maps To 404", func(t *testing.T) {
		tasks := &MockTaskRepository{
			UpdateFunc: func(ctx context.Context, email, taskID string, update models.TaskUpdate) (*models.Task, error) {
				return nil, database.ErrNotFound
			},
		}
		handler := newTestHandler(&MockUserService{}, tasks)

		req := httptest.NewRequest(http.MethodPut, "/tasks/doesnotexist", strings.NewReader(`{"note":"x"}`))
		req = mux.SetURLVars(req, map[string]string{"id": "doesnotexist"})
		rr := httptest.NewRecorder()

		handler.UpdateTaskByID(rr, asPrincipal(req, "a@x.com"))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Empty Body Rejected", func(t *testing.T) {
		handler := newTestHandler(&MockUserService{}, &MockTaskRepository{})

		req := httptest.NewRequest(http.MethodPut, "/tasks/t1", strings.NewReader(`{}`))
		req = mux.SetURLVars(req, map[string]string{"id": "t1"})
		rr := httptest.NewRecorder()

		handler.UpdateTaskByID(rr, asPrincipal(req, "a@x.com"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSearchTasksHandler(t *testing.T) {
	t.Run("Parses Query Params", func(t *testing.T) {
		tasks := &MockTaskRepository{
			SearchByNoteFunc: func(ctx context.Context, email string, checked bool, substring string) ([]models.Task, error) {
				assert.True(t, checked)
				assert.Equal(t, "milk", substring)
				return []models.Task{{TaskID: "t1", Note: "buy milk", IsChecked: true}}, nil
			},
		}
		handler := newTestHandler(&MockUserService{}, tasks)

		req := httptest.NewRequest(http.MethodGet, "/tasks/search?isChecked=true&note=milk", nil)
		rr := httptest.NewRecorder()

		handler.SearchTasks(rr, asPrincipal(req, "a@x.com"))

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Len(t, body["tasks"], 1)
	})

	t.Run("Invalid Checked Flag", func(t *testing.T) {
		handler := newTestHandler(&MockUserService{}, &MockTaskRepository{})

		req := httptest.NewRequest(http.MethodGet, "/tasks/search?isChecked=banana", nil)
		rr := httptest.NewRecorder()

		handler.SearchTasks(rr, asPrincipal(req, "a@x.com"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestReportHandler(t *testing.T) {
	tasks := &MockTaskRepository{
		ReportFunc: func(ctx context.Context, email string) (*models.TaskReport, error) {
			return &models.TaskReport{TotalCheckedTasks: 3, TotalUncheckedTasks: 2}, nil
		},
	}
	handler := newTestHandler(&MockUserService{}, tasks)

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	rr := httptest.NewRecorder()

	handler.Report(rr, asPrincipal(req, "a@x.com"))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, float64(3), body["totalCheckedTasks"])
	assert.Equal(t, float64(2), body["totalUncheckedTasks"])
}

func TestImportTasksHandler(t *testing.T) {
	t.Run("Plain Text Body", func(t *testing.T) {
		tasks := &MockTaskRepository{
			ImportFunc: func(ctx context.Context, email, body string) (int, error) {
				assert.Equal(t, "note one\r\nnote two\r\n", body)
				return 2, nil
			},
		}
		handler := newTestHandler(&MockUserService{}, tasks)

		req := httptest.NewRequest(http.MethodPost, "/tasks/import", strings.NewReader("note one\r\nnote two\r\n"))
		req.Header.Set("Content-Type", "text/plain")
		rr := httptest.NewRecorder()

		handler.ImportTasks(rr, asPrincipal(req, "a@x.com"))

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, float64(2), body["count"])
	})

	t.Run("Non-Text Payload Rejected", func(t *testing.T) {
		handler := newTestHandler(&MockUserService{}, &MockTaskRepository{})

		req := httptest.NewRequest(http.MethodPost, "/tasks/import", strings.NewReader(`{"notes":[]}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		handler.ImportTasks(rr, asPrincipal(req, "a@x.com"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["message"], ErrInvalidData.Error())
	})
}

func TestDeleteTaskHandler(t *testing.T) {
	tasks := &MockTaskRepository{
		DeleteFunc: func(ctx context.Context, email, taskID string) error {
			return nil
		},
	}
	handler := newTestHandler(&MockUserService{}, tasks)

	req := httptest.NewRequest(http.MethodDelete, "/tasks/doesnotexist", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "doesnotexist"})
	rr := httptest.NewRecorder()

	handler.DeleteTaskByID(rr, asPrincipal(req, "a@x.com"))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
}
