package http

import (
	"net/http"

	"fanatitra/internal/stats"
)

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	today, err := s.stats.ResolveToday(r.URL.Query().Get("today"))
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	t, err := s.stats.Summary(r.Context(), today)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	SuccessOK(http.StatusOK, toSummaryDTO(t), "").Write(w)
}

func (s *Server) handleStatsMonthly(w http.ResponseWriter, r *http.Request) {
	ms, err := s.stats.Monthly(r.Context())
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	SuccessOK(http.StatusOK, map[string]any{"monthly": toMonthDTOs(ms)}, "").Write(w)
}

// handleStatsTop ranks contributors; limit=0 returns everyone.
func (s *Server) handleStatsTop(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "limit", stats.DefaultTopN)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	rs, err := s.stats.Top(r.Context(), n)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	SuccessOK(http.StatusOK, map[string]any{"top": toRankedDTOs(rs)}, "").Write(w)
}

func (s *Server) handleStatsDashboard(w http.ResponseWriter, r *http.Request) {
	today, err := s.stats.ResolveToday(r.URL.Query().Get("today"))
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	recent, err := queryInt(r, "recent", stats.DefaultRecent)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	d, err := s.stats.Dashboard(r.Context(), today, recent)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	SuccessOK(http.StatusOK, toDashboardDTO(d), "").Write(w)
}
