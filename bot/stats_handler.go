package bot

import (
	"context"
	"strings"

	"speedbet/bot/common"
	"speedbet/session"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleLeaderboard displays the global leaderboard
func (b *Bot) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	limit := session.DefaultListLimit
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["limit"]; ok && opt.IntValue() > 0 {
		limit = int(opt.IntValue())
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring leaderboard response: %v", err)
		return
	}

	result, err := b.service.GetLeaderboard(context.Background(), limit)
	if err != nil {
		log.Printf("Error getting leaderboard: %v", err)
		common.FollowUpWithError(s, i, userMessage(err, "Unable to retrieve the leaderboard. Please try again."))
		return
	}

	common.FollowUpWithEmbed(s, i, buildLeaderboardEmbed(result.Entries), false)
}

// handleStats displays detailed statistics for a player
func (b *Bot) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	player := b.arena.Player()
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["player"]; ok {
		player = strings.TrimSpace(opt.StringValue())
	}
	if player == "" {
		common.RespondWithError(s, i, "Please provide a player address.")
		return
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring stats response: %v", err)
		return
	}

	stats, err := b.service.GetPlayerStats(context.Background(), player)
	if err != nil {
		log.Printf("Error getting stats for %s: %v", player, err)
		common.FollowUpWithError(s, i, userMessage(err, "Unable to retrieve statistics. Please try again."))
		return
	}
	if stats == nil {
		common.FollowUpWithError(s, i, "No duels found for "+common.ShortAddress(player)+".")
		return
	}

	common.FollowUpWithEmbed(s, i, buildStatsEmbed(player, stats), false)
}
