package projects

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/auth"
)

var testUserID = uuid.MustParse("7b0b7c56-5a44-4a43-9d0b-5d1f6b7e9a11")

func setupRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	fakeAuth := func(c *gin.Context) {
		auth.SetUserID(c, testUserID)
		c.Next()
	}
	svc := NewService(repo, nil, nil, zap.NewNop())
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"), fakeAuth)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandler_Statuses(t *testing.T) {
	r := setupRouter(new(MockRepository))

	w := doJSON(r, http.MethodGet, "/api/v1/lifecycle/projects/statuses", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var statuses []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
	require.Len(t, statuses, 13)
	assert.Equal(t, "Planning", statuses[0]["status"])
	assert.Equal(t, "Cancelled", statuses[12]["status"])
	assert.NotEmpty(t, statuses[0]["guidance"])
}

func TestHandler_Transitions(t *testing.T) {
	repo := new(MockRepository)
	r := setupRouter(repo)
	id := uuid.New()

	repo.On("GetByID", mock.Anything, id).Return(&Project{ID: id, Status: StatusCompleted}, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/lifecycle/projects/"+id.String()+"/transitions", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Completed", body["currentStatus"])
	assert.Equal(t, "Project is successfully completed and closed. No further actions required.", body["currentGuidance"])
	assert.Equal(t, []any{}, body["availableTransitions"])
}

func TestHandler_UpdateStatus(t *testing.T) {
	repo := new(MockRepository)
	r := setupRouter(repo)
	id := uuid.New()

	repo.On("GetByID", mock.Anything, id).Return(&Project{ID: id, Status: StatusSent}, nil).Once()
	repo.On("UpdateStatus", mock.Anything, id, StatusSent, StatusAgreementPending, testUserID).Return(nil)
	repo.On("GetByID", mock.Anything, id).Return(&Project{ID: id, Status: StatusAgreementPending}, nil).Once()

	w := doJSON(r, http.MethodPost, "/api/v1/lifecycle/projects/"+id.String()+"/status",
		gin.H{"nextStatus": "Client Agreement Pending"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Project status updated to 'Client Agreement Pending'", body["message"])
	assert.Equal(t, "Client is reviewing the proposal. Stay in contact and address any questions or concerns.", body["guidance"])
	repo.AssertExpectations(t)
}

func TestHandler_UpdateStatus_Errors(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		path    string
		body    any
		setup   func(repo *MockRepository)
		code    int
		message string
	}{
		{
			name:    "missing next status",
			path:    "/api/v1/lifecycle/projects/" + id.String() + "/status",
			body:    gin.H{},
			setup:   func(*MockRepository) {},
			code:    http.StatusBadRequest,
			message: "Next status is required",
		},
		{
			name:    "bad id",
			path:    "/api/v1/lifecycle/projects/not-a-uuid/status",
			body:    gin.H{"nextStatus": "Lost"},
			setup:   func(*MockRepository) {},
			code:    http.StatusBadRequest,
			message: "invalid id",
		},
		{
			name: "not found",
			path: "/api/v1/lifecycle/projects/" + id.String() + "/status",
			body: gin.H{"nextStatus": "Lost"},
			setup: func(repo *MockRepository) {
				repo.On("GetByID", mock.Anything, id).Return(nil, apperr.New(apperr.ErrNotFound, "Project not found"))
			},
			code:    http.StatusNotFound,
			message: "Project not found",
		},
		{
			name: "invalid transition",
			path: "/api/v1/lifecycle/projects/" + id.String() + "/status",
			body: gin.H{"nextStatus": "Completed"},
			setup: func(repo *MockRepository) {
				repo.On("GetByID", mock.Anything, id).Return(&Project{ID: id, Status: StatusPlanning}, nil)
			},
			code:    http.StatusBadRequest,
			message: "Cannot transition from 'Planning' to 'Completed'",
		},
		{
			name: "concurrent change",
			path: "/api/v1/lifecycle/projects/" + id.String() + "/status",
			body: gin.H{"nextStatus": "Lost"},
			setup: func(repo *MockRepository) {
				repo.On("GetByID", mock.Anything, id).Return(&Project{ID: id, Status: StatusPlanning}, nil)
				repo.On("UpdateStatus", mock.Anything, id, StatusPlanning, StatusLost, testUserID).Return(apperr.ErrStatusConflict)
			},
			code:    http.StatusConflict,
			message: "status changed concurrently, reload and retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setup(repo)
			r := setupRouter(repo)

			w := doJSON(r, http.MethodPost, tt.path, tt.body)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.message, decode(t, w)["error"])
		})
	}
}

func TestHandler_UpdateField(t *testing.T) {
	repo := new(MockRepository)
	r := setupRouter(repo)
	id := uuid.New()

	repo.On("GetByID", mock.Anything, id).Return(&Project{ID: id, Status: StatusDrafting}, nil)
	repo.On("UpdateFields", mock.Anything, id, map[string]any{"contract_document_path": "PRJ-1/contract.pdf"}, mock.Anything).Return(nil)

	w := doJSON(r, http.MethodPost, "/api/v1/lifecycle/projects/"+id.String()+"/field",
		gin.H{"field": "contractDocumentPath", "value": "PRJ-1/contract.pdf"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Field 'contractDocumentPath' updated successfully", body["message"])

	options := body["availableTransitions"].([]any)
	first := options[0].(map[string]any)
	assert.Equal(t, "Proposal/Contract Sent", first["status"])
	assert.Equal(t, true, first["requirementsMet"])
	assert.NotContains(t, first, "buttonLabel")
}

func TestHandler_UpdateField_NotAllowed(t *testing.T) {
	r := setupRouter(new(MockRepository))

	w := doJSON(r, http.MethodPost, "/api/v1/lifecycle/projects/"+uuid.NewString()+"/field",
		gin.H{"field": "status", "value": "Completed"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Field 'status' cannot be updated through this endpoint", decode(t, w)["error"])
}

func TestHandler_Create(t *testing.T) {
	repo := new(MockRepository)
	r := setupRouter(repo)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *Project) bool {
		return p.ProjectName == "Harbour survey" && p.CreatedBy == testUserID && p.Status == StatusPlanning
	}), mock.Anything).Return(nil)

	w := doJSON(r, http.MethodPost, "/api/v1/projects", gin.H{"projectName": "Harbour survey", "clientName": "Port Authority"})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Planning", decode(t, w)["status"])
}
