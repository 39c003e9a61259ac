package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"churchsite/internal/ical"
	"churchsite/internal/metrics"
	"churchsite/internal/model"
	"churchsite/internal/schedule"
)

// serviceDTO is the JSON view of a service slot.
type serviceDTO struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	DayOfWeek   int    `json:"dayOfWeek"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
}

func toServiceDTO(s *model.Service) *serviceDTO {
	if s == nil {
		return nil
	}
	return &serviceDTO{
		ID:          s.ID,
		Name:        s.Name,
		DayOfWeek:   s.DayOfWeek,
		StartTime:   fmt.Sprintf("%02d:%02d", s.StartHour, s.StartMinute),
		EndTime:     fmt.Sprintf("%02d:%02d", s.EndHour, s.EndMinute),
		Description: s.Description,
		Language:    s.Language,
	}
}

// liveResponse is the JSON response shape for /api/schedule/live.
type liveResponse struct {
	IsLive         bool        `json:"isLive"`
	CurrentService *serviceDTO `json:"currentService"`
	NextService    *serviceDTO `json:"nextService"`
	TimeUntilNext  *string     `json:"timeUntilNext"`
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	now := s.now().In(s.loc)
	st := schedule.Resolve(now, s.cfg.Services, s.cfg.SpecialEvents)

	resp := liveResponse{
		IsLive:         st.IsLive,
		CurrentService: toServiceDTO(st.Current),
		NextService:    toServiceDTO(st.Next),
	}
	if st.TimeUntilNext != "" {
		resp.TimeUntilNext = &st.TimeUntilNext
	}
	writeJSON(w, http.StatusOK, resp)
}

// occurrenceDTO is the JSON view of one concrete upcoming service.
type occurrenceDTO struct {
	ServiceID string    `json:"serviceId"`
	Name      string    `json:"name"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type upcomingResponse struct {
	Occurrences []occurrenceDTO `json:"occurrences"`
	Weeks       int             `json:"weeks"`
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	weeks := parseIntDefault(r.URL.Query().Get("weeks"), 4)

	now := s.now().In(s.loc)
	occ, err := schedule.UpcomingOccurrences(now, s.cfg.Services, weeks)
	if err != nil {
		s.logger.Error().Err(err).Msg("upcoming occurrences failed")
		writeError(w, http.StatusInternalServerError, "failed to compute upcoming services")
		return
	}

	dtos := make([]occurrenceDTO, 0, len(occ))
	for _, o := range occ {
		dtos = append(dtos, occurrenceDTO{
			ServiceID: o.Service.ID,
			Name:      o.Service.Name,
			Start:     o.Start,
			End:       o.End,
		})
	}
	writeJSON(w, http.StatusOK, upcomingResponse{Occurrences: dtos, Weeks: weeks})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	locale := s.locale(r)
	writeJSON(w, http.StatusOK, s.content.Events(locale))
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, ok := s.content.Event(id, s.locale(r))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// locale picks the request locale, falling back to the configured
// default when the parameter is absent or unknown.
func (s *Server) locale(r *http.Request) string {
	locale := r.URL.Query().Get("locale")
	for _, l := range s.cfg.Locales {
		if l == locale {
			return locale
		}
	}
	return s.cfg.DefaultLocale
}

// prayerRequestPayload is the public prayer-request form body.
type prayerRequestPayload struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=320"`
	Request string `json:"request" validate:"required,max=4000"`
	Private bool   `json:"private"`
	Locale  string `json:"locale" validate:"omitempty,bcp47_language_tag"`
}

type submissionResponse struct {
	ID string `json:"id"`
}

func (s *Server) handlePrayerRequest(w http.ResponseWriter, r *http.Request) {
	var payload prayerRequestPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	pr := model.PrayerRequest{
		ID:        uuid.New(),
		Name:      payload.Name,
		Email:     payload.Email,
		Request:   payload.Request,
		Private:   payload.Private,
		Locale:    payload.Locale,
		CreatedAt: s.now().UTC(),
	}
	if err := s.subs.SavePrayerRequest(r.Context(), pr); err != nil {
		s.logger.Error().Err(err).Msg("save prayer request failed")
		writeError(w, http.StatusInternalServerError, "failed to save prayer request")
		return
	}

	s.sink.SubmissionReceived(metrics.KindPrayerRequest)
	writeJSON(w, http.StatusCreated, submissionResponse{ID: pr.ID.String()})
}

// contactPayload is the public contact form body.
type contactPayload struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Subject string `json:"subject" validate:"max=300"`
	Message string `json:"message" validate:"required,max=8000"`
	Locale  string `json:"locale" validate:"omitempty,bcp47_language_tag"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var payload contactPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cm := model.ContactMessage{
		ID:        uuid.New(),
		Name:      payload.Name,
		Email:     payload.Email,
		Subject:   payload.Subject,
		Message:   payload.Message,
		Locale:    payload.Locale,
		CreatedAt: s.now().UTC(),
	}
	if err := s.subs.SaveContactMessage(r.Context(), cm); err != nil {
		s.logger.Error().Err(err).Msg("save contact message failed")
		writeError(w, http.StatusInternalServerError, "failed to save message")
		return
	}

	s.sink.SubmissionReceived(metrics.KindContactMessage)
	writeJSON(w, http.StatusCreated, submissionResponse{ID: cm.ID.String()})
}

// handleCombinedCalendar serves the "subscribe to everything" feed:
// dated events plus weekly recurring services, cached briefly.
func (s *Server) handleCombinedCalendar(w http.ResponseWriter, _ *http.Request) {
	now := s.now()

	s.feedMu.RLock()
	fc := s.feedCache
	s.feedMu.RUnlock()
	if fc != nil && now.Sub(fc.updatedAt) < feedCacheTTL {
		s.serveCalendar(w, fc.body, s.cfg.SiteName, "combined")
		return
	}

	events := s.content.CalendarEvents(s.cfg.DefaultLocale, s.loc)
	body, err := s.exporter.RenderCombined(events, s.cfg.Services, s.cfg.SiteName, "Events and weekly services")
	if err != nil {
		s.logger.Error().Err(err).Msg("render combined calendar failed")
		writeError(w, http.StatusInternalServerError, "failed to generate calendar")
		return
	}

	s.feedMu.Lock()
	s.feedCache = &feedCache{body: body, updatedAt: now}
	s.feedMu.Unlock()

	s.serveCalendar(w, body, s.cfg.SiteName, "combined")
}

func (s *Server) handleServicesCalendar(w http.ResponseWriter, _ *http.Request) {
	body, err := s.exporter.RenderRecurringServices(s.cfg.Services, s.cfg.SiteName+" Services", "Weekly service times")
	if err != nil {
		s.logger.Error().Err(err).Msg("render services calendar failed")
		writeError(w, http.StatusInternalServerError, "failed to generate calendar")
		return
	}
	s.serveCalendar(w, body, "services", "services")
}

func (s *Server) handleEventCalendar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	for _, ev := range s.content.CalendarEvents(s.locale(r), s.loc) {
		if ev.ID != id {
			continue
		}
		body, err := s.exporter.RenderSingleEvent(ev)
		if err != nil {
			s.logger.Error().Err(err).Str("event_id", id).Msg("render event calendar failed")
			writeError(w, http.StatusInternalServerError, "failed to generate calendar")
			return
		}
		s.serveCalendar(w, body, id, "event")
		return
	}
	writeError(w, http.StatusNotFound, "event not found")
}

func (s *Server) serveCalendar(w http.ResponseWriter, body, filename, feed string) {
	s.sink.CalendarServed(feed)
	w.Header().Set("Content-Type", ical.MIMEType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+ical.SuggestedFilename(filename)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func parseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
