package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/liamashdown/polymonitor/internal/analytics"
	"github.com/sirupsen/logrus"
)

func (s *Server) smartMoney(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	opts := analytics.SmartMoneyOptions{
		MinROI:              q.floatParam("min_roi", s.cfg.SmartMoneyMinROI),
		MinWinRate:          q.floatParam("min_win_rate", s.cfg.SmartMoneyMinWinRate),
		MinTrades:           q.intParam("min_trades", s.cfg.SmartMoneyMinTrades),
		SinceDays:           q.intParam("since_days", s.cfg.SmartMoneySinceDays),
		MinAccountAgeDays:   q.intParam("min_account_age_days", 0),
		ReinvestWindowHours: q.intParam("reinvest_window_hours", 0),
	}
	if q.err != nil {
		writeError(w, q.err.Error(), http.StatusBadRequest)
		return
	}
	s.serve(w, r, "smart_money", func() (interface{}, error) {
		return s.queries.SmartMoney(r.Context(), opts)
	})
}

func (s *Server) whales(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	opts := analytics.WhaleOptions{
		MinNetInvested: q.floatParam("min_net_invested", s.cfg.WhaleMinNetInvested),
		SinceHours:     q.intParam("since_hours", s.cfg.WhaleSinceHours),
	}
	if q.err != nil {
		writeError(w, q.err.Error(), http.StatusBadRequest)
		return
	}
	s.serve(w, r, "whales", func() (interface{}, error) {
		return s.queries.Whales(r.Context(), opts)
	})
}

func (s *Server) topProfit(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	opts := analytics.TopProfitOptions{
		Limit:     q.intParam("limit", s.cfg.ResultLimit),
		SinceDays: q.intParam("since_days", s.cfg.TopProfitSinceDays),
	}
	if q.err != nil {
		writeError(w, q.err.Error(), http.StatusBadRequest)
		return
	}
	s.serve(w, r, "top_profit", func() (interface{}, error) {
		return s.queries.TopProfit(r.Context(), opts)
	})
}

func (s *Server) hotMarkets(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	opts := analytics.HotMarketOptions{
		Limit:      q.intParam("limit", s.cfg.ResultLimit),
		SinceHours: q.intParam("since_hours", s.cfg.HotMarketsSinceHours),
	}
	if q.err != nil {
		writeError(w, q.err.Error(), http.StatusBadRequest)
		return
	}
	s.serve(w, r, "hot_markets", func() (interface{}, error) {
		return s.queries.HotMarkets(r.Context(), opts)
	})
}

func (s *Server) userProfit(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	opts := analytics.UserProfitOptions{
		UserID:    chi.URLParam(r, "userID"),
		SinceDays: q.intParam("since_days", s.cfg.TopProfitSinceDays),
	}
	if q.err != nil {
		writeError(w, q.err.Error(), http.StatusBadRequest)
		return
	}
	s.serve(w, r, "user_profit", func() (interface{}, error) {
		return s.queries.UserProfit(r.Context(), opts)
	})
}

// serve answers from the cache when possible, otherwise runs the query and
// caches the encoded response.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, query string, run func() (interface{}, error)) {
	key := cacheKey(r)
	if body, ok := s.cache.Get(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Write(body)
		return
	}

	result, err := run()
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidOption) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.WithError(err).WithField("query", query).Error("Query failed")
		writeError(w, "internal error", http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(map[string]interface{}{"data": result})
	if err != nil {
		s.log.WithError(err).WithField("query", query).Error("Failed to encode response")
		writeError(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.cache.Set(r.Context(), key, body)

	s.log.WithFields(logrus.Fields{
		"query": query,
		"bytes": len(body),
	}).Debug("Query served")

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Write(body)
}
