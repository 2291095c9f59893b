package bot

import (
	"fmt"
	"strings"

	"speedbet/bot/common"
	"speedbet/events"
	"speedbet/models"
	"speedbet/toast"

	"github.com/bwmarrin/discordgo"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
	ColorInfo    = 0x3498DB
)

var toastColors = map[toast.Type]int{
	toast.TypeSuccess: ColorSuccess,
	toast.TypeError:   ColorDanger,
	toast.TypeWarning: ColorWarning,
	toast.TypeInfo:    ColorInfo,
}

// buildToastEmbed mirrors a toast into the arena channel
func buildToastEmbed(t toast.Toast) *discordgo.MessageEmbed {
	color, ok := toastColors[t.Type]
	if !ok {
		color = ColorPrimary
	}
	return &discordgo.MessageEmbed{
		Title:       t.Title,
		Description: t.Message,
		Color:       color,
	}
}

// buildStatusEmbed shows the local session: queue, duel and countdown
func buildStatusEmbed(snap models.SessionSnapshot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "⚡ SpeedBet Arena",
		Color: ColorPrimary,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Transport: %s • Players in queue: %d", snap.TransportMode, snap.QueueCount),
		},
	}

	switch snap.Phase {
	case models.PhaseQueued:
		embed.Description = fmt.Sprintf("🔎 Searching for an opponent\n**%s** for **%s**",
			snap.Asset, common.FormatAmount(snap.BetAmount))
	case models.PhaseInDuel, models.PhaseResolving:
		embed.Description = "⚔️ In a duel"
		if snap.Phase == models.PhaseResolving {
			embed.Description = "🏁 Duel finished"
		}
		if snap.CurrentDuel != nil {
			embed.Fields = duelFields(snap)
		}
	default:
		embed.Description = "Not queued. Use `/duel join` to find an opponent."
	}
	return embed
}

func duelFields(snap models.SessionSnapshot) []*discordgo.MessageEmbedField {
	duel := snap.CurrentDuel
	fields := []*discordgo.MessageEmbedField{
		{
			Name: "Duel",
			Value: fmt.Sprintf("#%s • %s • %s\n%s vs %s",
				duel.ID, duel.Asset, common.FormatAmount(duel.BetAmount),
				common.ShortAddress(duel.Player1), common.ShortAddress(duel.Player2)),
			Inline: false,
		},
		{
			Name:   "Start price",
			Value:  common.FormatAmount(snap.StartPrice),
			Inline: true,
		},
	}

	if !snap.CurrentPrice.IsZero() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Current price",
			Value:  common.FormatAmount(snap.CurrentPrice),
			Inline: true,
		})
	}

	if snap.Phase == models.PhaseResolving {
		winner := "Draw"
		if duel.Winner != "" {
			winner = common.ShortAddress(duel.Winner)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Winner",
			Value:  winner,
			Inline: true,
		})
	} else {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Time left",
			Value:  common.FormatCountdown(snap.TimeRemaining),
			Inline: true,
		})
	}
	return fields
}

// buildLeaderboardEmbed renders the top players as a table
func buildLeaderboardEmbed(entries []models.LeaderboardEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🏆 SpeedBet Leaderboard",
		Color: ColorSuccess,
	}

	if len(entries) == 0 {
		embed.Description = "No duels have been played yet."
		return embed
	}

	var tableContent strings.Builder
	tableContent.WriteString("```\n")
	tableContent.WriteString(fmt.Sprintf("%-4s %-14s %-7s %-5s %s\n", "Rank", "Player", "W/L", "Win%", "Won"))
	tableContent.WriteString(strings.Repeat("-", 44) + "\n")

	for _, entry := range entries {
		rankStr := fmt.Sprintf("#%d", entry.Rank)
		switch entry.Rank {
		case 1:
			rankStr = "🥇"
		case 2:
			rankStr = "🥈"
		case 3:
			rankStr = "🥉"
		}

		tableContent.WriteString(fmt.Sprintf("%-4s %-14s %-7s %-5s %s\n",
			rankStr,
			common.ShortAddress(entry.Player),
			fmt.Sprintf("%d/%d", entry.Wins, entry.Losses),
			fmt.Sprintf("%d%%", entry.WinRate),
			common.FormatAmount(entry.TotalWon)))
	}

	tableContent.WriteString("```")
	embed.Description = tableContent.String()
	return embed
}

// buildStatsEmbed displays one player's record
func buildStatsEmbed(player string, stats *models.PlayerStats) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📊 Statistics for %s", common.ShortAddress(player)),
		Color: ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "🎯 Record",
				Value: fmt.Sprintf("Win Rate: **%d%%** (%d W / %d L)\nStreak: %d (best %d)",
					stats.WinRate, stats.Wins, stats.Losses, stats.WinStreak, stats.BestStreak),
				Inline: true,
			},
			{
				Name: "💰 Volume",
				Value: fmt.Sprintf("Wagered: %s\nWon: %s",
					common.FormatAmount(stats.TotalWagered), common.FormatAmount(stats.TotalWon)),
				Inline: true,
			},
		},
	}
}

// buildEventEmbed announces a session event in the arena channel.
// Events without an announcement return nil.
func buildEventEmbed(event events.Event) *discordgo.MessageEmbed {
	switch e := event.(type) {
	case events.MatchFoundEvent:
		return &discordgo.MessageEmbed{
			Title: "⚔️ Match found!",
			Description: fmt.Sprintf("Duel #%s on **%s** for **%s**\nStart price: %s",
				e.Duel.ID, e.Duel.Asset, common.FormatAmount(e.Duel.BetAmount), common.FormatAmount(e.Duel.StartPrice)),
			Color: ColorPrimary,
		}
	case events.DuelResolvedEvent:
		description := fmt.Sprintf("Duel #%s settled at %s", e.Duel.ID, common.FormatAmount(e.Duel.EndPrice))
		if e.Duel.Winner != "" {
			description += fmt.Sprintf("\nWinner: **%s**", common.ShortAddress(e.Duel.Winner))
		}
		color := ColorSuccess
		if e.Duel.Status == models.DuelStatusCancelled {
			color = ColorWarning
		}
		return &discordgo.MessageEmbed{
			Title:       "🏁 Duel resolved",
			Description: description,
			Color:       color,
		}
	case events.QueueJoinedEvent:
		return &discordgo.MessageEmbed{
			Title:       "🔎 Joined the queue",
			Description: fmt.Sprintf("**%s** for **%s**", e.Asset, common.FormatAmount(e.BetAmount)),
			Color:       ColorInfo,
		}
	default:
		return nil
	}
}
