package bot

import (
	"context"
	"fmt"

	"speedbet/bot/common"
	"speedbet/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleDuelCommand handles the /duel command with subcommands
func (b *Bot) handleDuelCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "Please specify a subcommand: join, leave, predict or status")
		return
	}

	switch options[0].Name {
	case "join":
		b.handleDuelJoin(s, i, optionMap(options[0].Options))
	case "leave":
		b.handleDuelLeave(s, i)
	case "predict":
		b.handleDuelPredict(s, i, optionMap(options[0].Options))
	case "status":
		b.handleDuelStatus(s, i)
	default:
		common.RespondWithError(s, i, "Unknown subcommand")
	}
}

func (b *Bot) handleDuelJoin(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	assetOpt, amountOpt := opts["asset"], opts["amount"]
	if assetOpt == nil || amountOpt == nil {
		common.RespondWithError(s, i, "Please provide both asset and amount.")
		return
	}

	amount, err := models.ParseAmount(amountOpt.StringValue())
	if err != nil || !amount.IsPositive() {
		common.RespondWithError(s, i, "Amount must be a positive number.")
		return
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring duel join response: %v", err)
		return
	}

	ctx := context.Background()
	if _, err := b.arena.JoinQueue(ctx, assetOpt.StringValue(), amount); err != nil {
		log.WithError(err).Warn("Discord join queue failed")
		common.FollowUpWithError(s, i, userMessage(err, "Unable to join the queue. Please try again."))
		return
	}

	common.FollowUpWithEmbed(s, i, buildStatusEmbed(b.arena.Snapshot()), false)
}

func (b *Bot) handleDuelLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring duel leave response: %v", err)
		return
	}

	if _, err := b.arena.LeaveQueue(context.Background()); err != nil {
		log.WithError(err).Warn("Discord leave queue failed")
		common.FollowUpWithError(s, i, userMessage(err, "Unable to leave the queue. Please try again."))
		return
	}

	common.FollowUpWithEmbed(s, i, buildStatusEmbed(b.arena.Snapshot()), true)
}

func (b *Bot) handleDuelPredict(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	dirOpt := opts["direction"]
	if dirOpt == nil {
		common.RespondWithError(s, i, "Please choose a direction.")
		return
	}
	direction, err := models.ParseDirection(dirOpt.StringValue())
	if err != nil {
		common.RespondWithError(s, i, "Direction must be up or down.")
		return
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Error deferring prediction response: %v", err)
		return
	}

	result, err := b.arena.SubmitPrediction(context.Background(), direction)
	if err != nil {
		log.WithError(err).Warn("Discord prediction failed")
		common.FollowUpWithError(s, i, userMessage(err, "Unable to submit your prediction. Please try again."))
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎯 Prediction submitted",
		Description: fmt.Sprintf("You predicted **%s**", direction),
		Color:       ColorSuccess,
	}
	if result != nil && result.TxHash != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "tx " + result.TxHash}
	}
	common.FollowUpWithEmbed(s, i, embed, true)
}

func (b *Bot) handleDuelStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := common.RespondWithEmbed(s, i, buildStatusEmbed(b.arena.Snapshot()), true); err != nil {
		log.Errorf("Error responding to duel status: %v", err)
	}
}
