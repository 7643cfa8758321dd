package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vitalloop/insight-engine/internal/application/services"
	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
)

const (
	feedbackRateLimit   = 20
	feedbackRateWindow  = time.Hour
	feedbackDedupWindow = 24 * time.Hour
	maxCommentLength    = 1000
)

// FeedbackHandler handles feedback submission, lookup, annotation and
// enrichment requests. Submissions are rate limited per client IP and
// deduplicated on a normalized payload fingerprint; both checks go through
// the shared cache when one is configured so multiple instances agree.
type FeedbackHandler struct {
	service *services.FeedbackService
	cache   providers.CacheProvider
	local   *localRateLimiter
	deduper *localDeduper
}

// NewFeedbackHandler creates a new feedback handler. cache may be nil, in
// which case rate limiting and dedup fall back to in-process state.
func NewFeedbackHandler(service *services.FeedbackService, cache providers.CacheProvider) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		cache:   cache,
		local:   newLocalRateLimiter(),
		deduper: newLocalDeduper(),
	}
}

// SubmitFeedback handles POST /api/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var feedback entities.InsightFeedback
	if err := json.NewDecoder(r.Body).Decode(&feedback); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	feedback.Comment = strings.TrimSpace(feedback.Comment)
	if len(feedback.Comment) > maxCommentLength {
		respondWithError(w, http.StatusBadRequest, "comment is too long")
		return
	}

	key := "feedback:rate:" + clientIP(r)
	allowed, retryAfter := h.allowRequest(r.Context(), key)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	dupKey := "feedback:dup:" + feedbackFingerprint(&feedback, clientIP(r))
	if h.isDuplicate(r.Context(), dupKey) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}

	if err := h.service.AddFeedback(r.Context(), &feedback); err != nil {
		respondWithAppError(w, err)
		return
	}

	// The fingerprint is only registered once the record is stored, so a
	// rejected payload can be resubmitted after the caller fixes it.
	h.markSubmitted(r.Context(), dupKey)

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"status": "received",
		"id":     feedback.ID,
	})
}

// GetInsightFeedback handles GET /api/insights/{id}/feedback
func (h *FeedbackHandler) GetInsightFeedback(w http.ResponseWriter, r *http.Request) {
	insightID := r.PathValue("id")
	if insightID == "" {
		respondWithError(w, http.StatusBadRequest, "insight ID is required")
		return
	}

	records, err := h.service.GetInsightFeedback(r.Context(), insightID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": records,
		"count":    len(records),
	})
}

// GetFeedbackStats handles GET /api/insights/{id}/feedback/stats
func (h *FeedbackHandler) GetFeedbackStats(w http.ResponseWriter, r *http.Request) {
	insightID := r.PathValue("id")
	if insightID == "" {
		respondWithError(w, http.StatusBadRequest, "insight ID is required")
		return
	}

	stats, err := h.service.GetFeedbackStats(r.Context(), insightID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetUserFeedbackHistory handles GET /api/users/{id}/feedback
func (h *FeedbackHandler) GetUserFeedbackHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	records, err := h.service.GetUserFeedbackHistory(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": records,
		"count":    len(records),
	})
}

// UpdateAnnotations handles PATCH /api/feedback/{id}/annotations
func (h *FeedbackHandler) UpdateAnnotations(w http.ResponseWriter, r *http.Request) {
	feedbackID := r.PathValue("id")
	if feedbackID == "" {
		respondWithError(w, http.StatusBadRequest, "feedback ID is required")
		return
	}

	var partial entities.FeedbackAnnotations
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.service.UpdateAnnotations(r.Context(), feedbackID, &partial); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// EnrichFeedback handles POST /api/feedback/{id}/enrich
func (h *FeedbackHandler) EnrichFeedback(w http.ResponseWriter, r *http.Request) {
	feedbackID := r.PathValue("id")
	if feedbackID == "" {
		respondWithError(w, http.StatusBadRequest, "feedback ID is required")
		return
	}

	if err := h.service.EnrichFeedback(r.Context(), feedbackID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "enriched"})
}

func (h *FeedbackHandler) allowRequest(ctx context.Context, key string) (bool, time.Duration) {
	if h.cache == nil {
		return h.local.allow(key, feedbackRateLimit, feedbackRateWindow)
	}

	state := rateLimitState{}
	if data, err := h.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}

	if state.Count >= feedbackRateLimit {
		return false, feedbackRateWindow
	}

	state.Count++
	data, _ := json.Marshal(state)
	_ = h.cache.Set(ctx, key, data, int(feedbackRateWindow.Seconds()))
	return true, feedbackRateWindow
}

type rateLimitState struct {
	Count int `json:"count"`
}

func (h *FeedbackHandler) isDuplicate(ctx context.Context, key string) bool {
	if h.cache == nil {
		return h.deduper.seen(key)
	}

	exists, err := h.cache.Exists(ctx, key)
	return err == nil && exists
}

func (h *FeedbackHandler) markSubmitted(ctx context.Context, key string) {
	if h.cache == nil {
		h.deduper.mark(key, feedbackDedupWindow)
		return
	}
	_ = h.cache.Set(ctx, key, []byte("1"), int(feedbackDedupWindow.Seconds()))
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

type localDeduper struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		entries: make(map[string]time.Time),
	}
}

func (d *localDeduper) seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	expiresAt, ok := d.entries[key]
	return ok && time.Now().Before(expiresAt)
}

func (d *localDeduper) mark(key string, window time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries[key] = time.Now().Add(window)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func feedbackFingerprint(feedback *entities.InsightFeedback, ip string) string {
	normalized := []string{
		feedback.InsightID,
		string(feedback.Category),
		strconv.Itoa(feedback.Score),
		normalizeComment(feedback.Comment),
		feedback.Metadata.UserID,
		ip,
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

func normalizeComment(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
