package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/keepwise/analytics-backend/internal/seqguard"
	"github.com/keepwise/analytics-backend/internal/usecase/curve"
	"github.com/keepwise/analytics-backend/internal/usecase/returns"
	"github.com/keepwise/analytics-backend/internal/usecase/wealth"
)

// View names for the refresh guard. Each analytics route is one logical view.
const (
	viewInvestmentReturn = "investment_return"
	viewInvestmentBatch  = "investment_returns"
	viewInvestmentCurve  = "investment_curve"
	viewWealthOverview   = "wealth_overview"
	viewWealthCurve      = "wealth_curve"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInvestmentReturn(w http.ResponseWriter, r *http.Request) {
	ticket := s.guard.Issue(viewInvestmentReturn)
	q := r.URL.Query()
	res, err := s.returnsService.Return(r.Context(), returns.Query{
		AccountID: q.Get("account_id"),
		Preset:    q.Get("preset"),
		From:      q.Get("from"),
		To:        q.Get("to"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	payload := toReturnResponse(res)
	s.publishView(ticket, viewInvestmentReturn, payload)
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleInvestmentReturns(w http.ResponseWriter, r *http.Request) {
	ticket := s.guard.Issue(viewInvestmentBatch)
	q := r.URL.Query()
	limit, err := parseIntParam(r, "limit")
	if err != nil {
		respondError(w, err)
		return
	}
	res, err := s.returnsService.BatchReturns(r.Context(), returns.BatchQuery{
		Preset:  q.Get("preset"),
		From:    q.Get("from"),
		To:      q.Get("to"),
		Keyword: q.Get("keyword"),
		Limit:   limit,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	payload := toBatchResponse(res)
	s.publishView(ticket, viewInvestmentBatch, payload)
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleInvestmentCurve(w http.ResponseWriter, r *http.Request) {
	ticket := s.guard.Issue(viewInvestmentCurve)
	q := r.URL.Query()
	res, err := s.curveService.Curve(r.Context(), curve.Query{
		AccountID: q.Get("account_id"),
		Preset:    q.Get("preset"),
		From:      q.Get("from"),
		To:        q.Get("to"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	payload := toCurveResponse(res)
	s.publishView(ticket, viewInvestmentCurve, payload)
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleWealthOverview(w http.ResponseWriter, r *http.Request) {
	ticket := s.guard.Issue(viewWealthOverview)
	filters, err := parseFilters(r)
	if err != nil {
		respondError(w, err)
		return
	}
	res, err := s.wealthService.Overview(r.Context(), wealth.OverviewQuery{
		AsOf:    r.URL.Query().Get("as_of"),
		Filters: filters,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	payload := toWealthOverviewResponse(res)
	s.publishView(ticket, viewWealthOverview, payload)
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleWealthCurve(w http.ResponseWriter, r *http.Request) {
	ticket := s.guard.Issue(viewWealthCurve)
	filters, err := parseFilters(r)
	if err != nil {
		respondError(w, err)
		return
	}
	q := r.URL.Query()
	res, err := s.wealthService.Curve(r.Context(), wealth.CurveQuery{
		Preset:  q.Get("preset"),
		From:    q.Get("from"),
		To:      q.Get("to"),
		Filters: filters,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	payload := toWealthCurveResponse(res)
	s.publishView(ticket, viewWealthCurve, payload)
	respondJSON(w, http.StatusOK, payload)
}

// handleLatestView serves the most recently published result of a view.
func (s *Server) handleLatestView(w http.ResponseWriter, r *http.Request) {
	view := mux.Vars(r)["view"]
	cached, ok := s.views.Load(view)
	if !ok {
		respondJSON(w, http.StatusNotFound, ErrorResponse{
			Error: ErrorBody{Category: "NO_DATA_ERROR", Message: "no result published for view " + view},
		})
		return
	}
	respondJSON(w, http.StatusOK, cached)
}

// publishView stores a computed result as the view's latest, unless a newer
// request for the same view has already been issued.
func (s *Server) publishView(ticket seqguard.Ticket, view string, payload interface{}) {
	ticket.Apply(func() {
		s.views.Store(view, cachedView{ComputedAt: time.Now().UTC(), Payload: payload})
	})
}

func parseFilters(r *http.Request) (wealth.Filters, error) {
	var filters wealth.Filters
	var err error
	if filters.IncludeInvestment, err = parseBoolParam(r, "include_investment", true); err != nil {
		return filters, err
	}
	if filters.IncludeCash, err = parseBoolParam(r, "include_cash", true); err != nil {
		return filters, err
	}
	if filters.IncludeRealEstate, err = parseBoolParam(r, "include_real_estate", true); err != nil {
		return filters, err
	}
	if filters.IncludeLiability, err = parseBoolParam(r, "include_liability", true); err != nil {
		return filters, err
	}
	return filters, nil
}
