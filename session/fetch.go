package session

import (
	"context"

	"speedbet/events"
	"speedbet/models"

	log "github.com/sirupsen/logrus"
)

// The fetchers refresh one slice of the session from the service.
// Failures are logged and the previous value is kept.

func (s *Session) FetchQueueCount(ctx context.Context) {
	count, err := s.service.GetQueueLength(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to fetch queue count")
		return
	}

	s.mu.Lock()
	s.queueCount = count
	s.mu.Unlock()
}

// FetchLeaderboard also picks up player stats and recent duels when the response carries them
func (s *Session) FetchLeaderboard(ctx context.Context, limit int) {
	result, err := s.service.GetLeaderboard(ctx, limit)
	if err != nil {
		log.WithError(err).Error("Failed to fetch leaderboard")
		return
	}
	if result == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if result.Entries != nil {
		s.leaderboard = result.Entries
	}
	if result.PlayerStats != nil {
		s.userStats = result.PlayerStats
	}
	if result.RecentDuels != nil {
		s.recentDuels = result.RecentDuels
	}
}

func (s *Session) FetchRecentDuels(ctx context.Context, limit int) {
	duels, err := s.service.GetRecentDuels(ctx, limit)
	if err != nil {
		log.WithError(err).Error("Failed to fetch recent duels")
		return
	}
	if duels == nil {
		return
	}

	s.mu.Lock()
	s.recentDuels = duels
	s.mu.Unlock()
}

// FetchPlayerStats loads stats for player, or for the session's player when empty
func (s *Session) FetchPlayerStats(ctx context.Context, player string) {
	if player == "" {
		player = s.player
	}
	if player == "" {
		log.Debug("Skipping player stats fetch, no player address")
		return
	}

	stats, err := s.service.GetPlayerStats(ctx, player)
	if err != nil {
		log.WithFields(log.Fields{
			"player": player,
			"error":  err,
		}).Error("Failed to fetch player stats")
		return
	}
	if stats == nil {
		return
	}

	s.mu.Lock()
	s.userStats = stats
	s.mu.Unlock()
}

func (s *Session) FetchPlatformInfo(ctx context.Context) {
	info, err := s.service.GetPlatformInfo(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to fetch platform info")
		return
	}
	if info == nil {
		return
	}

	s.mu.Lock()
	s.platform = info
	s.queueCount = int64(info.QueueLength)
	s.mu.Unlock()
}

// FetchPrice loads the oracle price of asset and records it as the current
// price when asset is the one the session is playing. The price is nil when
// none is published.
func (s *Session) FetchPrice(ctx context.Context, asset string) (*models.PriceData, error) {
	asset = models.NormalizeAsset(asset)
	price, err := s.service.GetPrice(ctx, asset)
	if err != nil {
		log.WithFields(log.Fields{
			"asset": asset,
			"error": err,
		}).Error("Failed to fetch price")
		return nil, err
	}
	if price == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.asset
	if s.currentDuel != nil && s.currentDuel.Asset != "" {
		active = models.NormalizeAsset(s.currentDuel.Asset)
	}
	if active == "" || active == asset {
		s.currentPrice = price.Price
	}
	return price, nil
}

// refreshDuelPrice reloads the price of the asset being played while a duel is live
func (s *Session) refreshDuelPrice(ctx context.Context) {
	s.mu.Lock()
	var asset string
	if s.phase == models.PhaseInDuel && s.currentDuel != nil {
		asset = s.currentDuel.Asset
	}
	s.mu.Unlock()

	if asset != "" {
		_, _ = s.FetchPrice(ctx, asset)
	}
}

// RefreshDuelState reloads a duel and returns it. A live duel puts the
// session in it; a settled duel that is the current one is resolved.
func (s *Session) RefreshDuelState(ctx context.Context, id models.ID) (*models.Duel, error) {
	if id == "" {
		return nil, nil
	}

	duel, err := s.service.GetDuel(ctx, id)
	if err != nil {
		log.WithFields(log.Fields{
			"duelId": id,
			"error":  err,
		}).Error("Failed to refresh duel state")
		return nil, err
	}
	if duel == nil {
		return nil, nil
	}

	batch := events.NewBatch(s.bus)
	resolved := false

	s.mu.Lock()
	isCurrent := s.currentDuel != nil && s.currentDuel.ID == duel.ID
	switch {
	case duel.Status.IsLive() && isCurrent:
		s.currentDuel = duel.Clone()
		if !duel.StartPrice.IsZero() {
			s.startPrice = duel.StartPrice
		}
		if s.phase != models.PhaseResolving {
			s.setPhaseLocked(models.PhaseInDuel)
		}
	case duel.Status.IsLive():
		if s.acceptsStartLocked(duel) {
			s.enterDuelLocked(duel, batch)
		}
	case isCurrent && s.phase == models.PhaseInDuel:
		s.applyResolutionLocked(duel.Clone(), batch)
		resolved = true
	}
	s.mu.Unlock()
	batch.Flush(ctx)

	if resolved {
		s.FetchRecentDuels(ctx, DefaultListLimit)
		s.FetchLeaderboard(ctx, DefaultListLimit)
	}
	return duel, nil
}

// CurrentDuelID returns the ID of the duel the session is in or showing, empty when none
func (s *Session) CurrentDuelID() models.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentDuel == nil {
		return ""
	}
	return s.currentDuel.ID
}
