package web

import (
	"net/http"

	"churchsite/internal/ical"
)

func (s *Server) handleAdminPrayerRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.subs.ListPrayerRequests(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list prayer requests failed")
		writeError(w, http.StatusInternalServerError, "failed to list prayer requests")
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *Server) handleAdminContactMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.subs.ListContactMessages(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list contact messages failed")
		writeError(w, http.StatusInternalServerError, "failed to list contact messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type importResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// handleAdminImport ingests an iCalendar document and merges its events
// into the content store under the given locale.
func (s *Server) handleAdminImport(w http.ResponseWriter, r *http.Request) {
	locale := s.locale(r)

	res, err := ical.ImportEvents(r.Body, locale)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid iCalendar document")
		return
	}
	if err := s.content.Upsert(res.Events); err != nil {
		s.logger.Error().Err(err).Msg("persist imported events failed")
		writeError(w, http.StatusInternalServerError, "failed to persist events")
		return
	}

	// Imported events may change the combined feed; drop the cache.
	s.feedMu.Lock()
	s.feedCache = nil
	s.feedMu.Unlock()

	s.logger.Info().Int("imported", len(res.Events)).Int("skipped", res.Skipped).Msg("events imported")
	writeJSON(w, http.StatusOK, importResponse{Imported: len(res.Events), Skipped: res.Skipped})
}
