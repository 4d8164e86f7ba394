package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/curaflow/appointment-platform/internal/accounts"
	"github.com/curaflow/appointment-platform/internal/availability"
	"github.com/curaflow/appointment-platform/internal/http/middleware"
	"github.com/curaflow/appointment-platform/internal/schedule"
	"github.com/curaflow/appointment-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments and doctor availability.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("appointments: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /appointments requests. Patients may only book for
// themselves; their token identity overrides the request's patient id.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r)
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if requester.Role == accounts.RolePatient {
		req.PatientID = requester.ID
	}

	appt, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, appt)
}

// Get handles GET /appointments/{appointmentID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type updateRequest struct {
	Date  string `json:"date"`
	Clock string `json:"time"`
}

// Update handles PUT /appointments/{appointmentID} requests.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r)
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Update(r.Context(), id, requester, req.Date, req.Clock)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Cancel handles POST /appointments/{appointmentID}/cancel requests.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r)
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Cancel(r.Context(), id, requester)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Complete handles POST /appointments/{appointmentID}/complete requests.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r)
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Complete(r.Context(), id, requester)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Delete handles DELETE /appointments/{appointmentID} requests. Admin only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r)
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	if requester.Role != accounts.RoleAdmin {
		http.Error(w, "admin role required", http.StatusForbidden)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type startTeleconsultResponse struct {
	Link string `json:"teleconsultation_link"`
}

// StartTeleconsultation handles POST /appointments/{appointmentID}/teleconsultation/start.
func (h *Handler) StartTeleconsultation(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r)
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	link, err := h.svc.StartTeleconsultation(r.Context(), id, requester)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startTeleconsultResponse{Link: link})
}

type finishTeleconsultRequest struct {
	Success bool `json:"success"`
}

// FinishTeleconsultation handles POST /appointments/{appointmentID}/teleconsultation/finish.
func (h *Handler) FinishTeleconsultation(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r)
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req finishTeleconsultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.svc.FinishTeleconsultation(r.Context(), id, requester, req.Success); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type listResponse struct {
	Appointments []Appointment `json:"appointments"`
	Count        int           `json:"count"`
}

// ListForDoctor handles GET /doctors/{doctorID}/appointments requests.
func (h *Handler) ListForDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	appts, err := h.svc.AppointmentsForDoctor(r.Context(), doctorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Appointments: appts, Count: len(appts)})
}

// ListForPatient handles GET /patients/{patientID}/appointments requests.
func (h *Handler) ListForPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	appts, err := h.svc.AppointmentsForPatient(r.Context(), patientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Appointments: appts, Count: len(appts)})
}

// ListToday handles GET /appointments/today requests.
func (h *Handler) ListToday(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r)(h.svc.TodayAppointments(r.Context()))
}

// ListUpcoming handles GET /appointments/upcoming requests.
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r)(h.svc.UpcomingAppointments(r.Context()))
}

// ListPrevious handles GET /appointments/previous requests.
func (h *Handler) ListPrevious(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r)(h.svc.PreviousAppointments(r.Context()))
}

// ListCanceled handles GET /appointments/canceled requests.
func (h *Handler) ListCanceled(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r)(h.svc.CanceledAppointments(r.Context()))
}

type addWindowRequest struct {
	Date  string `json:"date"`
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// AddUnavailableTime handles POST /doctors/{doctorID}/unavailable-times.
func (h *Handler) AddUnavailableTime(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	var req addWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	window, err := h.svc.AddUnavailableTime(r.Context(), doctorID, req.Date, req.Start, req.End)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, window)
}

// RemoveUnavailableTime handles DELETE /doctors/{doctorID}/unavailable-times/{windowID}.
func (h *Handler) RemoveUnavailableTime(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	windowID, err := uuid.Parse(chi.URLParam(r, "windowID"))
	if err != nil {
		http.Error(w, "invalid window id", http.StatusBadRequest)
		return
	}
	if err := h.svc.RemoveUnavailableTime(r.Context(), doctorID, windowID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type windowsResponse struct {
	Windows []availability.Window `json:"unavailable_times"`
	Count   int                   `json:"count"`
}

// ListUnavailableTimes handles GET /doctors/{doctorID}/unavailable-times.
func (h *Handler) ListUnavailableTimes(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	windows, err := h.svc.UnavailableTimes(r.Context(), doctorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, windowsResponse{Windows: windows, Count: len(windows)})
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request) func([]Appointment, error) {
	return func(appts []Appointment, err error) {
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse{Appointments: appts, Count: len(appts)})
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrPastDate),
		errors.Is(err, schedule.ErrInvalidSlot),
		errors.Is(err, availability.ErrInvalidWindow):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDoctorNotFound),
		errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrHospitalNotFound),
		errors.Is(err, availability.ErrDoctorNotFound),
		errors.Is(err, availability.ErrWindowNotFound),
		errors.Is(err, accounts.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDoctorBooked),
		errors.Is(err, ErrDoctorUnavailable),
		errors.Is(err, ErrDoctorDoubleBooked),
		errors.Is(err, ErrTeleconsultAlreadyStarted),
		errors.Is(err, ErrTeleconsultTooEarly):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func requesterFrom(r *http.Request) (Requester, bool) {
	id, role, ok := middleware.RequesterFromContext(r.Context())
	if !ok {
		return Requester{}, false
	}
	return Requester{ID: id, Role: role}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
