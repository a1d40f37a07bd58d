package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/booking-api/internal/middleware"
	"github.com/careloop/booking-api/internal/model"
	"github.com/careloop/booking-api/internal/policy"
	"github.com/careloop/booking-api/internal/service/appointment"
	apperrors "github.com/careloop/booking-api/pkg/errors"
)

type memAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (r *memAppointmentRepo) CreateWithEvent(_ context.Context, apt *model.Appointment, _ *model.OutboxEvent) error {
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	r.appointments[apt.ID] = apt
	return nil
}

func (r *memAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	cp := *apt
	return &cp, nil
}

func (r *memAppointmentRepo) UpdateWithEvent(_ context.Context, apt *model.Appointment, _ *model.OutboxEvent) error {
	cp := *apt
	r.appointments[apt.ID] = &cp
	return nil
}

func (r *memAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.appointments, id)
	return nil
}

func (r *memAppointmentRepo) List(_ context.Context, scope policy.Scope, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if scope.All ||
			(scope.PatientID != nil && apt.PatientID == *scope.PatientID) ||
			(scope.DoctorID != nil && apt.DoctorID == *scope.DoctorID) {
			out = append(out, apt)
		}
	}
	return out, nil
}

type memUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *memUserRepo) Update(_ context.Context, user *model.User) error    { return nil }
func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error       { return nil }
func (r *memUserRepo) AssignRole(_ context.Context, _ uuid.UUID, _ model.Role) error {
	return nil
}
func (r *memUserRepo) UpdateEmailVerified(_ context.Context, _ uuid.UUID, _ bool) error {
	return nil
}
func (r *memUserRepo) UpdatePassword(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

type testEnv struct {
	engine  *gin.Engine
	repo    *memAppointmentRepo
	patient *model.User
	doctor  *model.User
}

func newTestEnv(t *testing.T, actor **model.User) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	patient := &model.User{Base: model.Base{ID: uuid.New()}, Email: "p@example.com", Name: "Pat", Role: model.RolePatient}
	doctor := &model.User{Base: model.Base{ID: uuid.New()}, Email: "d@example.com", Name: "Doc", Role: model.RoleDoctor}

	repo := &memAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
	users := &memUserRepo{users: map[uuid.UUID]*model.User{patient.ID: patient, doctor.ID: doctor}}
	svc := appointment.NewService(repo, users)
	h := NewHandler(svc)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		middleware.SetActor(c, *actor)
		c.Next()
	})
	h.RegisterRoutes(engine.Group("/api/v1"))

	return &testEnv{engine: engine, repo: repo, patient: patient, doctor: doctor}
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestCreateEndpoint(t *testing.T) {
	var actor *model.User
	env := newTestEnv(t, &actor)
	actor = env.patient

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"doctor_id": env.doctor.ID,
		"date_time": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"status":    "COMPLETED",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeData(t, w)
	assert.Equal(t, "SCHEDULED", data["status"])
	assert.Equal(t, env.patient.ID.String(), data["patient_id"])
}

func TestCreateEndpointRejectsDoctor(t *testing.T) {
	var actor *model.User
	env := newTestEnv(t, &actor)
	actor = env.doctor

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"doctor_id": env.doctor.ID,
		"date_time": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelEndpoint(t *testing.T) {
	var actor *model.User
	env := newTestEnv(t, &actor)
	actor = env.patient

	apt := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: env.patient.ID,
		DoctorID:  env.doctor.ID,
		Status:    model.AppointmentStatusScheduled,
		DateTime:  time.Now().Add(24 * time.Hour),
	}
	env.repo.appointments[apt.ID] = apt

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/appointments/"+apt.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeData(t, w)
	assert.Equal(t, "appointment cancelled", data["status"])
	assert.Equal(t, model.AppointmentStatusCancelled, env.repo.appointments[apt.ID].Status)
}

func TestCancelEndpointUnknownID(t *testing.T) {
	var actor *model.User
	env := newTestEnv(t, &actor)
	actor = env.patient

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/appointments/"+uuid.NewString()+"/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, env.engine, http.MethodPost, "/api/v1/appointments/not-a-uuid/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRescheduleEndpoint(t *testing.T) {
	var actor *model.User
	env := newTestEnv(t, &actor)
	actor = env.patient

	apt := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: env.patient.ID,
		DoctorID:  env.doctor.ID,
		Status:    model.AppointmentStatusCancelled,
		DateTime:  time.Now().Add(24 * time.Hour),
	}
	env.repo.appointments[apt.ID] = apt

	newTime := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/appointments/"+apt.ID.String()+"/reschedule", map[string]interface{}{
		"new_date_time": newTime.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeData(t, w)
	assert.Equal(t, "appointment rescheduled", data["status"])

	stored := env.repo.appointments[apt.ID]
	assert.True(t, stored.DateTime.Equal(newTime))
	// Status stays cancelled even after a reschedule.
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)
}

func TestRescheduleEndpointRequiresBody(t *testing.T) {
	var actor *model.User
	env := newTestEnv(t, &actor)
	actor = env.patient

	apt := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: env.patient.ID,
		DoctorID:  env.doctor.ID,
		Status:    model.AppointmentStatusScheduled,
	}
	env.repo.appointments[apt.ID] = apt

	w := doJSON(t, env.engine, http.MethodPost, "/api/v1/appointments/"+apt.ID.String()+"/reschedule", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEndpointScopes(t *testing.T) {
	var actor *model.User
	env := newTestEnv(t, &actor)

	mine := &model.Appointment{Base: model.Base{ID: uuid.New()}, PatientID: env.patient.ID, DoctorID: env.doctor.ID}
	other := &model.Appointment{Base: model.Base{ID: uuid.New()}, PatientID: uuid.New(), DoctorID: env.doctor.ID}
	env.repo.appointments[mine.ID] = mine
	env.repo.appointments[other.ID] = other

	actor = env.patient
	w := doJSON(t, env.engine, http.MethodGet, "/api/v1/appointments", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, mine.ID.String(), resp.Data[0]["id"])
}
