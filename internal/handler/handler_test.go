package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techsynergy/campus-backend/internal/kvstore"
	"github.com/techsynergy/campus-backend/internal/middleware"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/response"
	"github.com/techsynergy/campus-backend/internal/service"
	"github.com/techsynergy/campus-backend/internal/validator"
	"github.com/techsynergy/campus-backend/internal/wizard"
	"go.etcd.io/bbolt"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

var (
	faculty  = &service.Claims{UserType: model.UserTypeFaculty, UserID: 1, Name: "Prof. Rao"}
	student  = &service.Claims{UserType: model.UserTypeStudent, UserID: 11, Name: "Asha"}
	student2 = &service.Claims{UserType: model.UserTypeStudent, UserID: 12, Name: "Bilal"}
)

// envelope mirrors response.Response with raw data.
type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (r *recordingNotifier) Enqueue(_ context.Context, ns ...model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, ns...)
	return nil
}

func newBoltStore(t *testing.T) kvstore.Store {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "campus.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := kvstore.NewBoltStore(db)
	require.NoError(t, err)
	return s
}

// withClaims stands in for the JWT middleware. The X-Test-User header picks
// one of the fixture identities.
func withClaims() gin.HandlerFunc {
	users := map[string]*service.Claims{"faculty": faculty, "student": student, "student2": student2}
	return func(c *gin.Context) {
		if claims, ok := users[c.GetHeader("X-Test-User")]; ok {
			c.Set(middleware.ContextKeyClaims, claims)
		}
		c.Next()
	}
}

func call(t *testing.T, r http.Handler, method, path, user string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func errCode(env envelope) response.ErrCode {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

// ─── Error mapping ──────────────────────────────────────────────────

func TestFailWithError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"validation", &wizard.ValidationError{Fields: wizard.FieldErrors{"title": "required"}}, http.StatusBadRequest, response.ErrValidation},
		{"wrapped sentinel", fmt.Errorf("load: %w", service.ErrAssignmentNotFound), http.StatusNotFound, response.ErrNotFound},
		{"store conflict", kvstore.ErrConflict, http.StatusConflict, response.ErrStoreConflict},
		{"flow forbidden", service.ErrFlowForbidden, http.StatusForbidden, response.ErrForbidden},
		{"finalize in flight", wizard.ErrInFlight, http.StatusConflict, response.ErrSubmitInFlight},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { failWithError(c, tt.err) })

			code, env := call(t, r, http.MethodGet, "/", "", nil)
			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.wantCode, errCode(env))
		})
	}
}

func TestFailWithErrorFields(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		failWithError(c, &wizard.ValidationError{Fields: wizard.FieldErrors{"due_date": "required"}})
	})

	_, env := call(t, r, http.MethodGet, "/", "", nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "required", env.Error.Fields["due_date"])
}

func TestUUIDParam(t *testing.T) {
	r := gin.New()
	r.GET("/:id", func(c *gin.Context) {
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		response.Success(c, http.StatusOK, id.String())
	})

	code, env := call(t, r, http.MethodGet, "/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrInvalidID, errCode(env))

	code, env = call(t, r, http.MethodGet, "/6f1c2a8e-3b7d-4e59-9a41-0c2d5e6f7a8b", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `"6f1c2a8e-3b7d-4e59-9a41-0c2d5e6f7a8b"`, string(env.Data))
}

// ─── Portals ────────────────────────────────────────────────────────

func newPortalRouter(t *testing.T) (*gin.Engine, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	h := NewPortalHandler(service.NewPortalService(newBoltStore(t), notifier, zerolog.Nop()))

	r := gin.New()
	g := r.Group("/portals/:portal", withClaims())
	g.GET("/definition", h.Definition)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/status", h.UpdateStatus)
	g.POST("/:id/comments", h.AddComment)
	return r, notifier
}

func TestPortalHandlerLifecycle(t *testing.T) {
	r, notifier := newPortalRouter(t)

	code, env := call(t, r, http.MethodPost, "/portals/grievances", "student", model.CreatePortalItemRequest{
		Title: "Broken projector", Description: "Room 204", Category: "Infrastructure", Priority: "High",
	})
	require.Equal(t, http.StatusCreated, code, string(env.Data))

	var item model.PortalItem
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Regexp(t, `^GRV-\d{4}-001$`, item.ID)
	assert.Equal(t, "Pending", item.Status)

	// Grievances are private to their submitter.
	code, env = call(t, r, http.MethodGet, "/portals/grievances/"+item.ID, "student2", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, response.ErrNotFound, errCode(env))

	code, env = call(t, r, http.MethodPatch, "/portals/grievances/"+item.ID+"/status", "student",
		model.UpdatePortalStatusRequest{Status: "Resolved"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, response.ErrActionForbidden, errCode(env))

	code, env = call(t, r, http.MethodPatch, "/portals/grievances/"+item.ID+"/status", "faculty",
		model.UpdatePortalStatusRequest{Status: "Closed"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrInvalidStatus, errCode(env))

	code, _ = call(t, r, http.MethodPatch, "/portals/grievances/"+item.ID+"/status", "faculty",
		model.UpdatePortalStatusRequest{Status: "In Progress", Comment: "Technician booked"})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, student.UserID, notifier.sent[0].UserID)

	code, _ = call(t, r, http.MethodPost, "/portals/grievances/"+item.ID+"/comments", "student",
		model.AddCommentRequest{Text: "Thanks"})
	assert.Equal(t, http.StatusCreated, code)

	code, env = call(t, r, http.MethodGet, "/portals/grievances?status=In+Progress", "student", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Items []model.PortalItem `json:"items"`
		Total int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 1)
	assert.Len(t, list.Items[0].Comments, 2)

	code, _ = call(t, r, http.MethodDelete, "/portals/grievances/"+item.ID, "student", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPortalHandlerRejects(t *testing.T) {
	r, _ := newPortalRouter(t)

	tests := []struct {
		name     string
		method   string
		path     string
		user     string
		body     any
		wantCode int
		wantErr  response.ErrCode
	}{
		{"unknown portal", http.MethodGet, "/portals/parking/definition", "student", nil, http.StatusNotFound, response.ErrNotFound},
		{"no claims", http.MethodGet, "/portals/suggestions", "", nil, http.StatusUnauthorized, response.ErrTokenRequired},
		{"missing title", http.MethodPost, "/portals/suggestions", "student",
			model.CreatePortalItemRequest{Description: "More benches", Category: "Campus"}, http.StatusBadRequest, response.ErrValidation},
		{"stray category", http.MethodPost, "/portals/suggestions", "student",
			model.CreatePortalItemRequest{Title: "Benches", Description: "More benches", Category: "Parking"}, http.StatusBadRequest, response.ErrInvalidCategory},
		{"student hackathon", http.MethodPost, "/portals/hackathons", "student",
			model.CreatePortalItemRequest{Title: "HackFest", Description: "24h", Category: "Web"}, http.StatusForbidden, response.ErrActionForbidden},
		{"missing item", http.MethodGet, "/portals/suggestions/SUG-2020-999", "faculty", nil, http.StatusNotFound, response.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, r, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, errCode(env))
		})
	}
}

// ─── Study groups ───────────────────────────────────────────────────

func TestStudyGroupHandler(t *testing.T) {
	h := NewStudyGroupHandler(service.NewStudyGroupService(newBoltStore(t), &recordingNotifier{}, zerolog.Nop()))

	r := gin.New()
	g := r.Group("/study", withClaims())
	g.POST("/classes", h.CreateClass)
	g.GET("/classes/:classId", h.GetClass)
	g.GET("/classes/:classId/groups", h.ListGroups)
	g.POST("/classes/:classId/groups", h.CreateStudentGroup)
	g.POST("/classes/:classId/groups/:groupId/members", h.AddMember)

	roster := []model.GroupMember{
		{ID: strconv.Itoa(student.UserID), Name: "Asha"},
		{ID: strconv.Itoa(student2.UserID), Name: "Bilal"},
		{ID: "13", Name: "Chen"},
	}
	code, env := call(t, r, http.MethodPost, "/study/classes", "faculty", model.CreateStudyClassRequest{
		Name: "CSE-A", Department: "cse", Year: "2", Students: roster,
	})
	require.Equal(t, http.StatusCreated, code, string(env.Data))
	var class model.StudyClass
	require.NoError(t, json.Unmarshal(env.Data, &class))

	base := "/study/classes/" + class.ID + "/groups"

	code, env = call(t, r, http.MethodPost, base, "student", model.CreateStudentGroupRequest{Name: "Team Rocket"})
	require.Equal(t, http.StatusCreated, code, string(env.Data))
	var group model.StudyGroup
	require.NoError(t, json.Unmarshal(env.Data, &group))
	require.Len(t, group.Members, 1)
	assert.Equal(t, "11", group.Members[0].ID)

	code, env = call(t, r, http.MethodPost, base+"/"+group.ID+"/members", "student", model.AddMemberRequest{MemberID: "99"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrMemberNotInClass, errCode(env))

	code, _ = call(t, r, http.MethodPost, base+"/"+group.ID+"/members", "student", model.AddMemberRequest{MemberID: "13"})
	assert.Equal(t, http.StatusOK, code)

	// Chen is taken, so Bilal cannot pull them into a second group.
	code, env = call(t, r, http.MethodPost, base, "student2", model.CreateStudentGroupRequest{Name: "B-Team", MemberIDs: []string{"13"}})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrMemberAlreadyGroup, errCode(env))

	code, env = call(t, r, http.MethodGet, base+"?sort=members&dir=desc", "faculty", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Items []model.StudyGroup `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 1)
	assert.Len(t, list.Items[0].Members, 2)

	code, env = call(t, r, http.MethodGet, "/study/classes/CLS-missing", "faculty", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, response.ErrNotFound, errCode(env))
}

// ─── Wizards ────────────────────────────────────────────────────────

type memDraftStore struct {
	mu     sync.Mutex
	drafts map[string][]byte
}

func (m *memDraftStore) key(flow string, userID int) string { return fmt.Sprintf("%s:%d", flow, userID) }

func (m *memDraftStore) Load(_ context.Context, flow string, userID int) (*wizard.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.drafts[m.key(flow, userID)]
	if !ok {
		return nil, service.ErrDraftNotFound
	}
	var st wizard.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (m *memDraftStore) Save(_ context.Context, userID int, st *wizard.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[m.key(st.Flow, userID)] = raw
	return nil
}

func (m *memDraftStore) Delete(_ context.Context, flow string, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, m.key(flow, userID))
	return nil
}

func (m *memDraftStore) Lock(context.Context, string, int) (func(), error) {
	return func() {}, nil
}

func (m *memDraftStore) Locked(context.Context, string, int) (bool, error) {
	return false, nil
}

func TestWizardHandler(t *testing.T) {
	exams := service.NewCodingExamService(newBoltStore(t), nil, &recordingNotifier{}, zerolog.Nop())
	wizards := service.NewWizardService(&memDraftStore{drafts: map[string][]byte{}}, zerolog.Nop(), service.NewExamFlow(exams))
	h := NewWizardHandler(wizards)

	r := gin.New()
	g := r.Group("/wizards/:flow", withClaims())
	g.GET("/definition", h.Definition)
	g.POST("", h.Start)
	g.GET("", h.Get)
	g.DELETE("", h.Discard)
	g.PATCH("/fields", h.SetFields)
	g.POST("/advance", h.Advance)

	tests := []struct {
		name     string
		method   string
		path     string
		user     string
		body     any
		wantCode int
		wantErr  response.ErrCode
	}{
		{"unknown flow", http.MethodGet, "/wizards/survey/definition", "faculty", nil, http.StatusNotFound, response.ErrUnknownFlow},
		{"student barred", http.MethodPost, "/wizards/exam", "student", nil, http.StatusForbidden, response.ErrForbidden},
		{"no draft yet", http.MethodGet, "/wizards/exam", "faculty", nil, http.StatusNotFound, response.ErrDraftNotFound},
		{"start", http.MethodPost, "/wizards/exam", "faculty", nil, http.StatusCreated, ""},
		{"empty patch", http.MethodPatch, "/wizards/exam/fields", "faculty",
			model.SetFieldsRequest{}, http.StatusBadRequest, response.ErrValidation},
		{"unknown field", http.MethodPatch, "/wizards/exam/fields", "faculty",
			model.SetFieldsRequest{Fields: map[string]json.RawMessage{"colour": json.RawMessage(`"red"`)}}, http.StatusBadRequest, response.ErrUnknownField},
		{"set title", http.MethodPatch, "/wizards/exam/fields", "faculty",
			model.SetFieldsRequest{Fields: map[string]json.RawMessage{"title": json.RawMessage(`"Graphs"`)}}, http.StatusOK, ""},
		{"advance incomplete", http.MethodPost, "/wizards/exam/advance", "faculty", nil, http.StatusBadRequest, response.ErrValidation},
		{"discard", http.MethodDelete, "/wizards/exam", "faculty", nil, http.StatusOK, ""},
		{"gone after discard", http.MethodGet, "/wizards/exam", "faculty", nil, http.StatusNotFound, response.ErrDraftNotFound},
	}
	// Steps share one draft, so they run in order.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, r, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.wantCode, code, string(env.Data))
			assert.Equal(t, tt.wantErr, errCode(env))
		})
	}
}
