package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/curaflow/appointment-platform/internal/accounts"
	"github.com/curaflow/appointment-platform/internal/appointments"
	"github.com/curaflow/appointment-platform/internal/availability"
	httpmiddleware "github.com/curaflow/appointment-platform/internal/http/middleware"
	"github.com/curaflow/appointment-platform/internal/schedule"
	"github.com/curaflow/appointment-platform/pkg/logging"
)

const testSecret = "router-test-secret"

type testDirectory struct {
	doctors   map[uuid.UUID]bool
	patients  map[uuid.UUID]bool
	hospitals map[uuid.UUID]bool
}

func (d *testDirectory) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return d.doctors[id], nil
}

func (d *testDirectory) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return d.patients[id], nil
}

func (d *testDirectory) HospitalExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return d.hospitals[id], nil
}

type testRooms struct{}

func (testRooms) CreateOrGetRoom(ctx context.Context, appointmentID uuid.UUID) (string, error) {
	return "https://video.example.com/" + appointmentID.String(), nil
}

type testEnv struct {
	handler    http.Handler
	doctorID   uuid.UUID
	patientID  uuid.UUID
	hospitalID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	doctorID := uuid.New()
	patientID := uuid.New()
	hospitalID := uuid.New()
	dir := &testDirectory{
		doctors:   map[uuid.UUID]bool{doctorID: true},
		patients:  map[uuid.UUID]bool{patientID: true},
		hospitals: map[uuid.UUID]bool{hospitalID: true},
	}

	composer := schedule.NewComposer(time.UTC)
	logger := logging.Default()
	avail := availability.NewService(availability.NewInMemoryRepository(), dir, composer, logger)
	svc := appointments.NewService(appointments.ServiceDeps{
		Repo:         appointments.NewInMemoryRepository(),
		Availability: avail,
		Accounts:     dir,
		Rooms:        testRooms{},
		Composer:     composer,
		Logger:       logger,
	})

	handler := New(&Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(svc, logger),
		AuthSecret:          testSecret,
	})

	return &testEnv{
		handler:    handler,
		doctorID:   doctorID,
		patientID:  patientID,
		hospitalID: hospitalID,
	}
}

func (e *testEnv) token(t *testing.T, role accounts.Role, subject uuid.UUID) string {
	t.Helper()
	claims := httpmiddleware.UserClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createBody() map[string]any {
	return map[string]any{
		"doctor_id":        e.doctorID,
		"patient_id":       e.patientID,
		"hospital_id":      e.hospitalID,
		"appointment_type": "online",
		"date":             "2100-03-10",
		"time":             "10:00",
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAppointmentsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/appointments", "", env.createBody())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, accounts.RolePatient, env.patientID)

	rec := env.do(t, http.MethodPost, "/appointments", token, env.createBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var appt appointments.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if appt.Status != appointments.StatusScheduled {
		t.Errorf("expected scheduled status, got %s", appt.Status)
	}
	if appt.PatientID != env.patientID {
		t.Errorf("expected patient id %s, got %s", env.patientID, appt.PatientID)
	}
}

func TestPatientCannotBookForAnother(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, accounts.RolePatient, env.patientID)

	body := env.createBody()
	body["patient_id"] = uuid.New()
	rec := env.do(t, http.MethodPost, "/appointments", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var appt appointments.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if appt.PatientID != env.patientID {
		t.Errorf("token identity should override the request patient id, got %s", appt.PatientID)
	}
}

func TestDuplicateSlotReturnsConflict(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, accounts.RolePatient, env.patientID)

	if rec := env.do(t, http.MethodPost, "/appointments", token, env.createBody()); rec.Code != http.StatusCreated {
		t.Fatalf("first booking: expected 201, got %d", rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/appointments", token, env.createBody())
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPastDateReturnsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, accounts.RolePatient, env.patientID)

	body := env.createBody()
	body["date"] = "2020-01-01"
	rec := env.do(t, http.MethodPost, "/appointments", token, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCancelEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, accounts.RolePatient, env.patientID)

	rec := env.do(t, http.MethodPost, "/appointments", token, env.createBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	var appt appointments.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = env.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/cancel", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var canceled appointments.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&canceled); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if canceled.Status != appointments.StatusCanceled {
		t.Errorf("expected canceled status, got %s", canceled.Status)
	}
}

func TestDeleteRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	patientToken := env.token(t, accounts.RolePatient, env.patientID)

	rec := env.do(t, http.MethodPost, "/appointments", patientToken, env.createBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	var appt appointments.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = env.do(t, http.MethodDelete, "/appointments/"+appt.ID.String(), patientToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("patient delete: expected 403, got %d", rec.Code)
	}

	adminToken := env.token(t, accounts.RoleAdmin, uuid.New())
	rec = env.do(t, http.MethodDelete, "/appointments/"+appt.ID.String(), adminToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin delete: expected 204, got %d", rec.Code)
	}
}

func TestUnavailableTimesEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, accounts.RoleDoctor, env.doctorID)
	base := "/doctors/" + env.doctorID.String() + "/unavailable-times"

	rec := env.do(t, http.MethodPost, base, token, map[string]any{
		"date":       "2100-03-10",
		"start_time": "09:00",
		"end_time":   "11:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add window: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var window availability.Window
	if err := json.NewDecoder(rec.Body).Decode(&window); err != nil {
		t.Fatalf("decode window: %v", err)
	}

	// Booking inside the window now conflicts.
	patientToken := env.token(t, accounts.RolePatient, env.patientID)
	rec = env.do(t, http.MethodPost, "/appointments", patientToken, env.createBody())
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 inside window, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, base, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list windows: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, base+"/"+window.ID.String(), token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove window: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	// The slot is bookable again.
	rec = env.do(t, http.MethodPost, "/appointments", patientToken, env.createBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 after window removal, got %d", rec.Code)
	}
}

func TestTeleconsultationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	patientToken := env.token(t, accounts.RolePatient, env.patientID)

	rec := env.do(t, http.MethodPost, "/appointments", patientToken, env.createBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	var appt appointments.Appointment
	if err := json.NewDecoder(rec.Body).Decode(&appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	// The slot is far in the future; starting now is too early.
	rec = env.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/teleconsultation/start", patientToken, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 too early, got %d: %s", rec.Code, rec.Body.String())
	}
}
