package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fanatitra/internal/stats"
)

func (s *Server) handleListPersons(w http.ResponseWriter, r *http.Request) {
	if queryBool(r, "withTotals") {
		rows, err := s.stats.DirectoryWithTotals(r.Context())
		if err != nil {
			StatusFail(r, err).Write(w)
			return
		}
		StatusOK(http.StatusOK, map[string]any{"persons": toPersonTotalsDTOs(rows)}).Write(w)
		return
	}
	list, err := s.directory.List(r.Context())
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	StatusOK(http.StatusOK, map[string]any{"persons": toPersonDTOs(list)}).Write(w)
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	p, err := ParseRequestBody(w, r)
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	in, err := newContributor(p)
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	c, err := s.directory.Create(r.Context(), in)
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	StatusOK(http.StatusCreated, map[string]any{"person": toPersonDTO(c)}).Write(w)
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	c, err := s.directory.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	StatusOK(http.StatusOK, map[string]any{"person": toPersonDTO(c)}).Write(w)
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	p, err := ParseRequestBody(w, r)
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	patch, err := contributorPatch(p)
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	c, err := s.directory.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	StatusOK(http.StatusOK, map[string]any{"person": toPersonDTO(c)}).Write(w)
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// handlePersonSummary serves one contributor's totals and history. period
// narrows the history only.
func (s *Server) handlePersonSummary(w http.ResponseWriter, r *http.Request) {
	period, err := stats.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	today, err := s.stats.ResolveToday(r.URL.Query().Get("today"))
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	sum, err := s.stats.ContributorSummary(r.Context(), chi.URLParam(r, "id"), period, today)
	if err != nil {
		StatusFail(r, err).Write(w)
		return
	}
	StatusOK(http.StatusOK, toPersonSummaryDTO(sum)).Write(w)
}
