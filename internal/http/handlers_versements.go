package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fanatitra/internal/ledger"
)

const (
	msgVersementCreated = "Versement ajouté avec succès."
	msgVersementUpdated = "Versement modifié avec succès."
	msgVersementDeleted = "Versement supprimé avec succès."
)

func (s *Server) handleListVersements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.ledger.List(r.Context(), ledger.Query{
		StartDate:     q.Get("startDate"),
		EndDate:       q.Get("endDate"),
		ContributorID: q.Get("personId"),
	})
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	SuccessOK(http.StatusOK, map[string]any{"versements": toVersementDTOs(list)}, "").Write(w)
}

func (s *Server) handleCreateVersement(w http.ResponseWriter, r *http.Request) {
	p, err := ParseRequestBody(w, r)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	draft, err := contributionDraft(p)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	c, err := s.ledger.Create(r.Context(), draft)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	SuccessOK(http.StatusCreated, toVersementDTO(c), msgVersementCreated).Write(w)
}

func (s *Server) handleGetVersement(w http.ResponseWriter, r *http.Request) {
	c, err := s.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	SuccessOK(http.StatusOK, toVersementDTO(c), "").Write(w)
}

func (s *Server) handleUpdateVersement(w http.ResponseWriter, r *http.Request) {
	p, err := ParseRequestBody(w, r)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	patch, err := contributionPatch(p)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	c, err := s.ledger.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	SuccessOK(http.StatusOK, toVersementDTO(c), msgVersementUpdated).Write(w)
}

func (s *Server) handleDeleteVersement(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	SuccessOK(http.StatusOK, nil, msgVersementDeleted).Write(w)
}
