package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"speedbet/models"
	"speedbet/service"
	"speedbet/session"
	"speedbet/toast"
	"speedbet/transport"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const (
	defaultLimit   = session.DefaultListLimit
	maxLimit       = 100
	readTimeout    = 10 * time.Second
	mutateTimeout  = 30 * time.Second
	healthyStatus  = "healthy"
	degradedStatus = "degraded"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	session   *session.Session
	service   service.ArenaService
	transport transport.Transport
	toaster   *toast.Toaster
}

// NewHandler creates a new handler with dependencies
func NewHandler(s *session.Session, svc service.ArenaService, t transport.Transport, toaster *toast.Toaster) *Handler {
	return &Handler{
		session:   s,
		service:   svc,
		transport: t,
		toaster:   toaster,
	}
}

func limitParam(r *http.Request) int {
	limit := parseIntParam(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// HealthCheck reports the transport mode and connection state
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := healthyStatus
	body := map[string]interface{}{
		"mode":      h.transport.Mode(),
		"connected": h.transport.IsConnected(),
		"timestamp": time.Now().UTC(),
	}
	if reason := transport.FallbackReason(h.transport); reason != nil {
		status = degradedStatus
		body["fallbackReason"] = reason.Error()
	}
	body["status"] = status

	respondJSON(w, http.StatusOK, body)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handler) GetPlatform(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	info, err := h.service.GetPlatformInfo(ctx)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// GetLeaderboard returns the top players
// Query params: limit
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	limit := limitParam(r)
	result, err := h.service.GetLeaderboard(ctx, limit)
	if err != nil {
		respondFailure(w, err)
		return
	}

	entries := result.Entries
	if len(entries) > limit {
		entries = entries[:limit]
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": entries,
		"count":       len(entries),
		"limit":       limit,
	})
}

// GetRecentDuels returns completed duels, newest first
// Query params: limit
func (h *Handler) GetRecentDuels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	limit := limitParam(r)
	duels, err := h.service.GetRecentDuels(ctx, limit)
	if err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"duels": duels,
		"count": len(duels),
		"limit": limit,
	})
}

// GetDuel returns a duel. Reading the session's own duel also refreshes the session from it.
func (h *Handler) GetDuel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	id := models.ID(chi.URLParam(r, "id"))

	var (
		duel *models.Duel
		err  error
	)
	if id == h.session.CurrentDuelID() {
		duel, err = h.session.RefreshDuelState(ctx, id)
	} else {
		duel, err = h.service.GetDuel(ctx, id)
	}
	if err != nil {
		respondFailure(w, err)
		return
	}
	if duel == nil {
		respondError(w, http.StatusNotFound, "duel not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, duel)
}

func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	player := chi.URLParam(r, "player")
	stats, err := h.service.GetPlayerStats(ctx, player)
	if err != nil {
		respondFailure(w, err)
		return
	}
	if stats == nil {
		respondError(w, http.StatusNotFound, "player not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	asset := models.NormalizeAsset(chi.URLParam(r, "asset"))
	price, err := h.session.FetchPrice(ctx, asset)
	if err != nil {
		respondFailure(w, err)
		return
	}
	if price == nil {
		respondError(w, http.StatusNotFound, "no price for "+asset, nil)
		return
	}
	respondJSON(w, http.StatusOK, price)
}

// GetQueue lists the players waiting for a match
func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	entries, length, err := h.service.GetQueue(ctx)
	if err != nil {
		respondFailure(w, err)
		return
	}
	if entries == nil {
		entries = []models.QueueEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"queue":       entries,
		"queueLength": length,
	})
}

func (h *Handler) GetPlayerBalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	player := chi.URLParam(r, "player")
	balance, err := h.service.GetPlayerBalance(ctx, player)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"player":  player,
		"balance": models.FormatAmount(balance),
	})
}

type joinQueueRequest struct {
	Asset     string `json:"asset"`
	BetAmount string `json:"betAmount"`
}

// mutationResponse is returned by every state-changing endpoint
type mutationResponse struct {
	Success bool                   `json:"success"`
	TxHash  string                 `json:"txHash,omitempty"`
	Session models.SessionSnapshot `json:"session"`
}

func (h *Handler) mutationResponse(result *service.MutationResult) mutationResponse {
	return mutationResponse{
		Success: result.Success,
		TxHash:  result.TxHash,
		Session: h.session.Snapshot(),
	}
}

// failMutation shows an error toast and responds with the mapped status
func (h *Handler) failMutation(w http.ResponseWriter, title string, err error) {
	h.toaster.Error(title, err.Error())
	respondFailure(w, err)
}

func (h *Handler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), mutateTimeout)
	defer cancel()

	var req joinQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	amount, err := models.ParseAmount(req.BetAmount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid betAmount", err)
		return
	}

	result, err := h.session.JoinQueue(ctx, req.Asset, amount)
	if err != nil {
		h.failMutation(w, "Failed to join queue", err)
		return
	}
	respondJSON(w, http.StatusOK, h.mutationResponse(result))
}

func (h *Handler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), mutateTimeout)
	defer cancel()

	result, err := h.session.LeaveQueue(ctx)
	if err != nil {
		h.failMutation(w, "Failed to leave queue", err)
		return
	}
	respondJSON(w, http.StatusOK, h.mutationResponse(result))
}

type predictionRequest struct {
	Direction string `json:"direction"`
}

func (h *Handler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), mutateTimeout)
	defer cancel()

	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	direction, err := models.ParseDirection(req.Direction)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := h.session.SubmitPrediction(ctx, direction)
	if err != nil {
		h.failMutation(w, "Failed to submit prediction", err)
		return
	}
	respondJSON(w, http.StatusOK, h.mutationResponse(result))
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.balanceChange(w, r, "deposit", h.service.Deposit)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.balanceChange(w, r, "withdraw", h.service.Withdraw)
}

func (h *Handler) balanceChange(w http.ResponseWriter, r *http.Request, op string,
	apply func(ctx context.Context, amount decimal.Decimal) (*service.MutationResult, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), mutateTimeout)
	defer cancel()

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	amount, err := models.ParseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}
	if !amount.IsPositive() {
		respondFailure(w, transport.NewPreconditionError(op, "amount must be positive"))
		return
	}

	result, err := apply(ctx, amount)
	if err != nil {
		h.failMutation(w, "Failed to "+op, err)
		return
	}
	h.toaster.Success("Balance updated", op+" of "+models.FormatAmount(amount)+" submitted")
	respondJSON(w, http.StatusOK, h.mutationResponse(result))
}

type priceRequest struct {
	Price string `json:"price"`
}

type resolveRequest struct {
	EndPrice string `json:"endPrice"`
}

// parsePrice parses a positive decimal price
func parsePrice(value string) (decimal.Decimal, error) {
	price, err := models.ParseAmount(value)
	if err != nil {
		return decimal.Zero, err
	}
	if !price.IsPositive() {
		return decimal.Zero, transport.NewPreconditionError("parse price", "price must be positive")
	}
	return price, nil
}

// SetSessionPrice records a price from an external feed as the session's current price
func (h *Handler) SetSessionPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price", err)
		return
	}
	h.session.SetCurrentPrice(price)
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// UpdatePrice publishes an oracle price. The chain rejects callers that are not the oracle.
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), mutateTimeout)
	defer cancel()

	asset := models.NormalizeAsset(chi.URLParam(r, "asset"))
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price", err)
		return
	}

	result, err := h.service.UpdatePrice(ctx, asset, price)
	if err != nil {
		h.failMutation(w, "Failed to update price", err)
		return
	}
	respondJSON(w, http.StatusOK, h.mutationResponse(result))
}

func (h *Handler) CancelDuel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), mutateTimeout)
	defer cancel()

	id := models.ID(chi.URLParam(r, "id"))
	result, err := h.service.CancelDuel(ctx, id)
	if err != nil {
		h.failMutation(w, "Failed to cancel duel", err)
		return
	}
	h.toaster.Info("Cancel submitted", "Duel #"+id.String()+" cancellation submitted")
	respondJSON(w, http.StatusOK, h.mutationResponse(result))
}

func (h *Handler) ResolveDuel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), mutateTimeout)
	defer cancel()

	id := models.ID(chi.URLParam(r, "id"))
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	endPrice, err := parsePrice(req.EndPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid endPrice", err)
		return
	}

	result, err := h.service.ResolveDuel(ctx, id, endPrice)
	if err != nil {
		h.failMutation(w, "Failed to resolve duel", err)
		return
	}
	h.toaster.Info("Resolution submitted", "Duel #"+id.String()+" resolution at "+models.FormatAmount(endPrice)+" submitted")
	respondJSON(w, http.StatusOK, h.mutationResponse(result))
}

func (h *Handler) ListToasts(w http.ResponseWriter, r *http.Request) {
	toasts := h.toaster.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"toasts": toasts,
		"count":  len(toasts),
	})
}

func (h *Handler) DismissToast(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid toast id", err)
		return
	}
	h.toaster.Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
}
