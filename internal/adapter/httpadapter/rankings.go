package httpadapter

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/pipeline"
	"github.com/couchcryptid/snow-rank/internal/weights"
)

// maxTopN bounds the ranking length a client may request.
const maxTopN = 1000

// rankingsResponse is the body of GET /rankings.
type rankingsResponse struct {
	pipeline.Result
	Preset  string `json:"preset,omitempty"`
	Message string `json:"message,omitempty"`
}

// handleRankings serves GET /rankings. Query parameters:
//
//	top=N                 ranking length
//	preset=NAME           weight preset by number, name or alias
//	weight_<metric>=V     weight override, e.g. weight_snow_new=40
//	region=A,B country=X  group filters (repeatable or comma-separated)
//	season=2023/24        winter season filter
//	from=DATE to=DATE     inclusive date range
func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req, preset, err := s.parseRequest(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.ranker.Run(r.Context(), req)
	if err != nil {
		s.logger.Error("ranking request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "ranking failed")
		return
	}

	writeJSON(w, http.StatusOK, rankingsResponse{
		Result:  res,
		Preset:  preset,
		Message: res.Overview.Reason.Message(),
	})
}

func (s *Server) parseRequest(q url.Values) (pipeline.Request, string, error) {
	req := pipeline.Request{TopN: s.topN}

	if raw := q.Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxTopN {
			return req, "", fmt.Errorf("top must be an integer between 1 and %d", maxTopN)
		}
		req.TopN = n
	}

	preset := strings.TrimSpace(q.Get("preset"))
	if preset != "" {
		if _, ok := weights.MatchPreset(preset); !ok {
			return req, "", fmt.Errorf("unknown preset %q", preset)
		}
	}

	// Query weights stand in for the WEIGHT_* environment layer; invalid values are
	// rejected outright rather than skipped.
	overrides := make(map[string]string)
	for _, m := range domain.Metrics() {
		param := strings.ToLower(m.EnvKey)
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		if _, err := weights.ParseValue(raw); err != nil {
			s.metrics.WeightsRejected.Inc()
			return req, "", fmt.Errorf("invalid %s: %w", param, err)
		}
		overrides[m.EnvKey] = raw
	}
	resolver := weights.NewResolver(nil, s.logger).WithEnv(func(key string) (string, bool) {
		v, ok := overrides[key]
		return v, ok
	})
	resolution := resolver.Resolve(weights.Options{Preset: preset})
	req.Weights = resolution.Weights

	filter, err := parseFilter(q)
	if err != nil {
		return req, "", err
	}
	req.Filter = filter
	return req, resolution.Preset, nil
}

func parseFilter(q url.Values) (domain.Filter, error) {
	return domain.ParseFilter(domain.FilterArgs{
		Regions:   q["region"],
		Countries: q["country"],
		Season:    q.Get("season"),
		From:      q.Get("from"),
		To:        q.Get("to"),
	})
}
