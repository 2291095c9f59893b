package session

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"speedbet/events"
	"speedbet/models"
	"speedbet/observability"
	"speedbet/service"
	"speedbet/transport"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	// ResultGracePeriod is how long a resolved duel stays visible before it is cleared
	ResultGracePeriod = 5 * time.Second

	// DefaultMatchPollInterval is how often PollForMatch checks for an active duel
	DefaultMatchPollInterval = 3 * time.Second

	// DefaultListLimit is the page size used by the leaderboard and history fetchers
	DefaultListLimit = 10
)

// Session owns the local queue and duel state of one player.
// All fields are guarded by mu; consumers read them through Snapshot.
type Session struct {
	mu sync.Mutex

	service service.ArenaService
	bus     *events.Bus
	metrics *observability.MetricsProvider
	player  string

	tickInterval time.Duration
	gracePeriod  time.Duration

	phase         models.SessionPhase
	connected     bool
	transportMode transport.Mode
	queueCount    int64
	timeRemaining int
	currentPrice  decimal.Decimal
	startPrice    decimal.Decimal
	currentDuel   *models.Duel
	leaderboard   []models.LeaderboardEntry
	recentDuels   []models.Duel
	userStats     *models.PlayerStats
	platform      *models.PlatformInfo
	asset         string
	betAmount     decimal.Decimal

	// resolved remembers settled duel IDs so late or repeated deliveries are ignored
	resolved map[models.ID]bool

	timerStop    chan struct{}
	activeTimers atomic.Int32
	graceTimer   *time.Timer
}

// Option configures a Session
type Option func(*Session)

// WithBus publishes session events to bus
func WithBus(bus *events.Bus) Option {
	return func(s *Session) {
		s.bus = bus
	}
}

// WithPlayer sets the local player's address
func WithPlayer(player string) Option {
	return func(s *Session) {
		s.player = player
	}
}

// WithTickInterval overrides the one-second countdown tick
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) {
		s.tickInterval = d
	}
}

// WithGracePeriod overrides how long a resolved duel stays visible
func WithGracePeriod(d time.Duration) Option {
	return func(s *Session) {
		s.gracePeriod = d
	}
}

// New creates an idle session over an arena service
func New(svc service.ArenaService, opts ...Option) *Session {
	s := &Session{
		service:      svc,
		metrics:      observability.GetMetrics(),
		tickInterval: time.Second,
		gracePeriod:  ResultGracePeriod,
		phase:        models.PhaseIdle,
		resolved:     make(map[models.ID]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect connects the transport and records its mode
func (s *Session) Connect(ctx context.Context, t transport.Transport) (transport.Identity, error) {
	identity, err := t.Connect(ctx)
	if err != nil {
		return transport.Identity{}, err
	}

	s.mu.Lock()
	s.connected = true
	s.transportMode = t.Mode()
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"chainId": identity.ChainID,
		"appId":   identity.AppID,
		"mode":    t.Mode(),
	}).Info("Session connected")
	return identity, nil
}

// Disconnect disconnects the transport and resets all session state
func (s *Session) Disconnect(ctx context.Context, t transport.Transport) {
	t.Disconnect()
	s.Reset(ctx)

	s.mu.Lock()
	s.connected = false
	s.transportMode = ""
	s.mu.Unlock()
}

// Player returns the local player's address
func (s *Session) Player() string {
	return s.player
}

// SetCurrentPrice records the latest external price for the duel asset
func (s *Session) SetCurrentPrice(price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPrice = price
}

// Snapshot returns a consistent copy of the session state
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.SessionSnapshot{
		Phase:         s.phase,
		Connected:     s.connected,
		TransportMode: string(s.transportMode),
		IsQueued:      s.phase == models.PhaseQueued,
		InDuel:        s.phase == models.PhaseInDuel || s.phase == models.PhaseResolving,
		QueueCount:    s.queueCount,
		TimeRemaining: s.timeRemaining,
		CurrentPrice:  s.currentPrice,
		StartPrice:    s.startPrice,
		CurrentDuel:   s.currentDuel.Clone(),
		Leaderboard:   append([]models.LeaderboardEntry(nil), s.leaderboard...),
		RecentDuels:   append([]models.Duel(nil), s.recentDuels...),
		Asset:         s.asset,
		BetAmount:     s.betAmount,
	}
	if s.userStats != nil {
		stats := *s.userStats
		snap.UserStats = &stats
	}
	if s.platform != nil {
		platform := *s.platform
		snap.Platform = &platform
	}
	return snap
}

// Reset returns every field to its initial value and stops all timers.
// Connection state is kept.
func (s *Session) Reset(ctx context.Context) {
	batch := events.NewBatch(s.bus)

	s.mu.Lock()
	s.stopTimerLocked()
	s.cancelGraceLocked()
	s.currentDuel = nil
	s.setPhaseLocked(models.PhaseIdle)
	s.queueCount = 0
	s.leaderboard = nil
	s.recentDuels = nil
	s.userStats = nil
	s.platform = nil
	s.currentPrice = decimal.Zero
	s.startPrice = decimal.Zero
	s.asset = ""
	s.betAmount = decimal.Zero
	s.resolved = make(map[models.ID]bool)
	batch.Publish(events.SessionResetEvent{})
	s.mu.Unlock()

	batch.Flush(ctx)
	log.Debug("Session state reset")
}

// setPhaseLocked moves the state machine, recording the transition
func (s *Session) setPhaseLocked(phase models.SessionPhase) {
	if s.phase == phase {
		return
	}
	log.WithFields(log.Fields{
		"from": s.phase,
		"to":   phase,
	}).Info("Session phase changed")
	s.phase = phase
	s.metrics.RecordSessionTransition(string(phase))
}

// enterDuelLocked stores a matched duel and starts its countdown
func (s *Session) enterDuelLocked(duel *models.Duel, batch *events.Batch) {
	s.cancelGraceLocked()
	s.currentDuel = duel.Clone()
	s.startPrice = duel.StartPrice
	s.currentPrice = duel.StartPrice
	s.setPhaseLocked(models.PhaseInDuel)
	s.startTimerLocked(models.DuelDuration)

	batch.Publish(events.MatchFoundEvent{Duel: duel.Clone()})
	log.WithFields(log.Fields{
		"duelId": duel.ID,
		"asset":  duel.Asset,
		"status": duel.Status,
	}).Info("Duel started")
}

// acceptsStartLocked reports whether a start or match event for duel should be applied
func (s *Session) acceptsStartLocked(duel *models.Duel) bool {
	if s.resolved[duel.ID] {
		return false
	}
	if s.currentDuel != nil && s.currentDuel.ID == duel.ID &&
		(s.phase == models.PhaseInDuel || s.phase == models.PhaseResolving) {
		return false
	}
	return true
}

// handleDuelStarted moves the session into the duel carried by a start or match event
func (s *Session) handleDuelStarted(ctx context.Context, duel *models.Duel) {
	batch := events.NewBatch(s.bus)

	s.mu.Lock()
	if !s.acceptsStartLocked(duel) {
		s.mu.Unlock()
		log.WithField("duelId", duel.ID).Debug("Ignoring repeated or stale duel start")
		return
	}
	s.enterDuelLocked(duel, batch)
	s.mu.Unlock()

	batch.Flush(ctx)
}

// handleDuelResolved merges a resolution payload into the current duel.
// Resolutions for another duel and repeated resolutions are ignored.
func (s *Session) handleDuelResolved(ctx context.Context, payload json.RawMessage) {
	var head struct {
		ID models.ID `json:"id"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		log.WithError(err).Warn("Ignoring malformed duel resolution")
		return
	}

	batch := events.NewBatch(s.bus)

	s.mu.Lock()
	current := s.currentDuel
	switch {
	case current == nil:
		// A start delivered after this must not enter a settled duel
		if head.ID != "" {
			s.resolved[head.ID] = true
		}
		s.mu.Unlock()
		log.WithField("duelId", head.ID).Debug("Ignoring resolution without a current duel")
		return
	case head.ID != "" && head.ID != current.ID:
		s.resolved[head.ID] = true
		s.mu.Unlock()
		log.WithFields(log.Fields{
			"duelId":        head.ID,
			"currentDuelId": current.ID,
		}).Debug("Ignoring resolution for another duel")
		return
	case s.resolved[current.ID] || s.phase == models.PhaseResolving:
		s.mu.Unlock()
		log.WithField("duelId", current.ID).Debug("Ignoring repeated duel resolution")
		return
	}

	merged := current.Clone()
	if err := json.Unmarshal(payload, merged); err != nil {
		s.mu.Unlock()
		log.WithError(err).Warn("Ignoring malformed duel resolution")
		return
	}
	// The payload's id may be numeric; keep the one we track
	merged.ID = current.ID
	s.applyResolutionLocked(merged, batch)
	s.mu.Unlock()

	batch.Flush(ctx)

	s.FetchRecentDuels(ctx, DefaultListLimit)
	s.FetchLeaderboard(ctx, DefaultListLimit)
}

// applyResolutionLocked marks duel settled, stops the countdown and schedules the clear
func (s *Session) applyResolutionLocked(duel *models.Duel, batch *events.Batch) {
	if duel.Status != models.DuelStatusCancelled {
		duel.Status = models.DuelStatusResolved
	}
	s.currentDuel = duel
	s.resolved[duel.ID] = true
	s.stopTimerLocked()
	s.setPhaseLocked(models.PhaseResolving)

	id := duel.ID
	s.cancelGraceLocked()
	s.graceTimer = time.AfterFunc(s.gracePeriod, func() {
		s.clearResolved(id)
	})

	batch.Publish(events.DuelResolvedEvent{Duel: duel.Clone()})
	log.WithFields(log.Fields{
		"duelId": duel.ID,
		"winner": duel.Winner,
		"status": duel.Status,
	}).Info("Duel resolved")
}

// clearResolved drops the resolved duel once its grace period is over
func (s *Session) clearResolved(id models.ID) {
	batch := events.NewBatch(s.bus)

	s.mu.Lock()
	if s.phase != models.PhaseResolving || s.currentDuel == nil || s.currentDuel.ID != id {
		s.mu.Unlock()
		return
	}
	s.currentDuel = nil
	s.graceTimer = nil
	s.setPhaseLocked(models.PhaseIdle)
	batch.Publish(events.DuelClearedEvent{DuelID: id})
	s.mu.Unlock()

	batch.Flush(context.Background())
}

func (s *Session) cancelGraceLocked() {
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
}
