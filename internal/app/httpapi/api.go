// Package httpapi exposes the REST handlers and translates HTTP requests
// into the voting service's terms: it resolves the device identity, runs the
// external admission checks (rate limit, captcha) and maps typed errors back
// to statuses.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/rakibhasan/jonomot/internal/app/voting"
	"github.com/rakibhasan/jonomot/internal/domain"
	"github.com/rakibhasan/jonomot/internal/platform/captcha"
	"github.com/rakibhasan/jonomot/internal/platform/identity"
	"github.com/rakibhasan/jonomot/internal/platform/metrics"
	"github.com/rakibhasan/jonomot/internal/platform/ratelimit"
)

// Options carries the client-facing configuration the API reports and uses.
type Options struct {
	ServerSalt      string
	CaptchaProvider string
	CaptchaSiteKey  string
}

// API bundles the HTTP handlers bound to the voting service.
type API struct {
	service  domain.VotingService
	verifier domain.Verifier
	limiter  domain.RateLimiter
	opts     Options
	logger   *slog.Logger
}

func New(service domain.VotingService, verifier domain.Verifier, limiter domain.RateLimiter, opts Options, logger *slog.Logger) *API {
	return &API{service: service, verifier: verifier, limiter: limiter, opts: opts, logger: logger}
}

func (a *API) Register(mux *http.ServeMux) {
	// Routes stay centralized so tests and alternative servers can reuse them.
	mux.HandleFunc("/api/health", a.handleHealth)
	mux.HandleFunc("/api/config", a.handleConfig)
	mux.HandleFunc("/api/constituencies", a.listConstituencies)
	mux.HandleFunc("/api/constituencies/", a.handleConstituency)
	mux.HandleFunc("/api/results/overall", a.handleOverall)
	mux.HandleFunc("/api/results/constituency/", a.handleConstituencyResults)
	mux.HandleFunc("/api/vote", a.handleVote)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"captcha_provider": a.opts.CaptchaProvider,
		"captcha_site_key": a.opts.CaptchaSiteKey,
	})
}

type constituencySummary struct {
	ConstituencyNo int    `json:"constituency_no"`
	Division       string `json:"division"`
	Seat           string `json:"seat"`
	Notes          string `json:"notes"`
	IsDisabled     bool   `json:"is_disabled"`
}

func (a *API) listConstituencies(w http.ResponseWriter, r *http.Request) {
	filter := domain.ConstituencyFilter{
		Division: r.URL.Query().Get("division"),
		SeatLike: r.URL.Query().Get("q"),
	}

	constituencies, err := a.service.ListConstituencies(r.Context(), filter)
	if err != nil {
		a.logger.Error("failed to list constituencies", "err", err)
		respondError(w, err)
		return
	}

	items := make([]constituencySummary, len(constituencies))
	for i, c := range constituencies {
		items[i] = constituencySummary{
			ConstituencyNo: c.ConstituencyNo,
			Division:       c.Division,
			Seat:           c.Seat,
			Notes:          c.Notes,
			IsDisabled:     c.IsDisabled,
		}
	}
	respondJSON(w, http.StatusOK, items)
}

func (a *API) handleConstituency(w http.ResponseWriter, r *http.Request) {
	a.constituencyResults(w, r, strings.TrimPrefix(r.URL.Path, "/api/constituencies/"))
}

func (a *API) handleConstituencyResults(w http.ResponseWriter, r *http.Request) {
	a.constituencyResults(w, r, strings.TrimPrefix(r.URL.Path, "/api/results/constituency/"))
}

type candidatePayload struct {
	CandidateID domain.CandidateID `json:"candidate_id"`
	Name        string             `json:"name"`
	Party       string             `json:"party"`
	AllianceKey string             `json:"alliance_key"`
}

type constituencyPayload struct {
	ConstituencyNo int                          `json:"constituency_no"`
	Division       string                       `json:"division"`
	Seat           string                       `json:"seat"`
	Notes          string                       `json:"notes"`
	IsDisabled     bool                         `json:"is_disabled"`
	Candidates     []candidatePayload           `json:"candidates"`
	Totals         map[domain.CandidateID]int64 `json:"totals"`
	Leader         *domain.Leader               `json:"leader"`
	IsTied         bool                         `json:"is_tied"`
}

func (a *API) constituencyResults(w http.ResponseWriter, r *http.Request, rawNo string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	no, err := strconv.Atoi(rawNo)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	result, err := a.service.ConstituencyResults(r.Context(), no)
	if err != nil {
		if errors.Is(err, voting.ErrUnknownConstituency) {
			respondJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
			return
		}
		a.logger.Error("failed to read constituency results", "err", err, "constituency", no)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toConstituencyPayload(result))
}

func toConstituencyPayload(result domain.ConstituencyResult) constituencyPayload {
	candidates := make([]candidatePayload, len(result.Constituency.Candidates))
	for i, cand := range result.Constituency.Candidates {
		candidates[i] = candidatePayload{
			CandidateID: cand.ID,
			Name:        cand.Name,
			Party:       cand.Party,
			AllianceKey: cand.AllianceKey,
		}
	}
	totals := result.Totals
	if totals == nil {
		totals = map[domain.CandidateID]int64{}
	}
	return constituencyPayload{
		ConstituencyNo: result.Constituency.ConstituencyNo,
		Division:       result.Constituency.Division,
		Seat:           result.Constituency.Seat,
		Notes:          result.Constituency.Notes,
		IsDisabled:     result.Constituency.IsDisabled,
		Candidates:     candidates,
		Totals:         totals,
		Leader:         result.Leader,
		IsTied:         result.IsTied,
	}
}

func (a *API) handleOverall(w http.ResponseWriter, r *http.Request) {
	payload, err := a.service.OverallResults(r.Context())
	if err != nil {
		a.logger.Error("failed to compute overall results", "err", err)
		respondError(w, err)
		return
	}

	// Cached bytes are served verbatim, compute timestamp included.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

type voteRequest struct {
	ConstituencyNo int    `json:"constituency_no"`
	CandidateID    string `json:"candidate_id"`
	CaptchaToken   string `json:"captcha_token"`
}

type voteResponse struct {
	OK         bool                         `json:"ok"`
	Message    string                       `json:"message"`
	NewTallies map[domain.CandidateID]int64 `json:"new_tallies"`
	Leader     *domain.Leader               `json:"leader"`
	IsTied     bool                         `json:"is_tied"`
}

func (a *API) handleVote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ip := clientIP(r)
	if err := a.limiter.Allow(r.Context(), identity.IPPrefix(ip), r.UserAgent()); err != nil {
		metrics.ObserveVoteRequest("rate_limited")
		a.logger.Warn("vote rejected by rate limit", "err", err)
		respondError(w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveVoteRequest("invalid_payload")
		a.logger.Warn("invalid vote payload", "err", err)
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
		return
	}

	if err := a.verifier.Verify(r.Context(), req.CaptchaToken, ip); err != nil {
		metrics.ObserveVoteRequest("captcha_failed")
		a.logger.Warn("vote rejected by captcha", "err", err)
		respondError(w, err)
		return
	}

	vid, err := r.Cookie("vid")
	if err != nil || vid.Value == "" {
		metrics.ObserveVoteRequest("missing_device")
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing device id cookie"})
		return
	}

	ballot := domain.Ballot{
		ConstituencyNo: req.ConstituencyNo,
		CandidateID:    domain.CandidateID(req.CandidateID),
		DeviceHash:     identity.DeviceHash(vid.Value, a.opts.ServerSalt),
		IPPrefix:       identity.IPPrefix(ip),
		UAHash:         identity.HashToken(r.UserAgent()),
		LangHash:       identity.HashToken(r.Header.Get("Accept-Language")),
	}

	receipt, err := a.service.CastVote(r.Context(), ballot)
	if err != nil {
		status := statusFromError(err)
		metrics.ObserveVoteRequest(status)
		a.logger.Warn("vote rejected", "err", err, "constituency", req.ConstituencyNo, "candidate", req.CandidateID, "status", status)
		respondError(w, err)
		return
	}

	metrics.ObserveVoteRequest("accepted")
	respondJSON(w, http.StatusOK, voteResponse{
		OK:         true,
		Message:    "Vote recorded",
		NewTallies: receipt.Totals,
		Leader:     receipt.Leader,
		IsTied:     receipt.IsTied,
	})
	a.logger.Info("vote recorded", "constituency", req.ConstituencyNo, "candidate", req.CandidateID)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, voting.ErrUnknownConstituency), errors.Is(err, voting.ErrUnknownCandidate):
		status = http.StatusBadRequest
	case errors.Is(err, voting.ErrMissingDevice):
		status = http.StatusBadRequest
	case errors.Is(err, voting.ErrAlreadyVoted):
		// Deliberately generic: the response must not reveal which uniqueness
		// signal fired.
		status = http.StatusConflict
		message = "Already voted"
	case errors.Is(err, captcha.ErrVerificationFailed):
		status = http.StatusForbidden
		message = "Captcha failed"
	case errors.Is(err, ratelimit.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	default:
		message = "internal error"
	}

	respondJSON(w, status, map[string]string{"error": message})
}

func statusFromError(err error) string {
	switch {
	case errors.Is(err, voting.ErrAlreadyVoted):
		return "duplicate"
	case errors.Is(err, voting.ErrUnknownConstituency), errors.Is(err, voting.ErrUnknownCandidate):
		return "invalid"
	case errors.Is(err, voting.ErrMissingDevice):
		return "missing_device"
	default:
		return "error"
	}
}
