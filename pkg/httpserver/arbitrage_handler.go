package httpserver

import (
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/nmoreno/poolarb/internal/manager"
	"go.uber.org/zap"
)

// ArbitrageHandler handles HTTP requests for opportunity and statistics
// data.
type ArbitrageHandler struct {
	manager *manager.Manager
	logger  *zap.Logger
}

// NewArbitrageHandler creates a new arbitrage handler.
func NewArbitrageHandler(mgr *manager.Manager, logger *zap.Logger) *ArbitrageHandler {
	return &ArbitrageHandler{
		manager: mgr,
		logger:  logger,
	}
}

// OpportunitySummary is the API projection of one active opportunity.
type OpportunitySummary struct {
	ID                 string  `json:"id"`
	Type               string  `json:"type"`
	InputToken         string  `json:"input_token"`
	HopCount           int     `json:"hop_count"`
	NetProfitUSD       float64 `json:"net_profit_usd"`
	ROI                float64 `json:"roi"`
	MeanRisk           float64 `json:"mean_risk"`
	OverallRisk        string  `json:"overall_risk"`
	Confidence         float64 `json:"confidence"`
	RiskAdjustedReturn float64 `json:"risk_adjusted_return"`
	AgeSeconds         float64 `json:"age_seconds"`
}

// OpportunitiesResponse is the HTTP response for the opportunity listing.
type OpportunitiesResponse struct {
	Count         int                  `json:"count"`
	Opportunities []OpportunitySummary `json:"opportunities"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleOpportunities handles GET /api/opportunities?limit=<n> requests.
func (h *ArbitrageHandler) HandleOpportunities(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	opps := h.manager.ActiveOpportunities()
	if limit > 0 && len(opps) > limit {
		opps = opps[:limit]
	}

	summaries := make([]OpportunitySummary, 0, len(opps))
	for _, opp := range opps {
		summaries = append(summaries, OpportunitySummary{
			ID:                 opp.ID,
			Type:               string(opp.Type),
			InputToken:         opp.InputToken.Symbol,
			HopCount:           len(opp.Route),
			NetProfitUSD:       opp.Profit.NetProfit,
			ROI:                opp.Profit.ROI,
			MeanRisk:           opp.Risk.Mean(),
			OverallRisk:        string(opp.Risk.Overall),
			Confidence:         opp.Confidence,
			RiskAdjustedReturn: opp.RiskAdjustedReturn(),
			AgeSeconds:         opp.Age().Seconds(),
		})
	}

	h.writeJSON(w, OpportunitiesResponse{
		Count:         len(summaries),
		Opportunities: summaries,
	})
}

// HandleStats handles GET /api/stats requests.
func (h *ArbitrageHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.manager.Stats())
}

// HandleSystemHealth handles GET /api/system requests.
func (h *ArbitrageHandler) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.manager.SystemHealth())
}

func (h *ArbitrageHandler) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("response-encode-failed", zap.Error(err))
	}
}

func (h *ArbitrageHandler) writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
