package bot

import (
	"fmt"

	"speedbet/models"

	"github.com/bwmarrin/discordgo"
)

var assetChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: models.AssetBTC, Value: models.AssetBTC},
	{Name: models.AssetETH, Value: models.AssetETH},
}

var minLeaderboardLimit = 1.0

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "duel",
			Description: "Play 60 second price prediction duels",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "join",
					Description: "Join the matchmaking queue",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "asset",
							Description: "Asset to duel on",
							Required:    true,
							Choices:     assetChoices,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "amount",
							Description: "Bet amount, e.g. 5 or 2.5",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leave",
					Description: "Leave the matchmaking queue",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "predict",
					Description: "Predict the price move of your current duel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "direction",
							Description: "Where the price goes by the end of the duel",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "📈 Up", Value: "up"},
								{Name: "📉 Down", Value: "down"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show the queue, your duel and the countdown",
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Display the top players",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "limit",
					Description: "Number of players to show (defaults to 10)",
					Required:    false,
					MinValue:    &minLeaderboardLimit,
					MaxValue:    25,
				},
			},
		},
		{
			Name:        "stats",
			Description: "Display duel statistics for a player",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "player",
					Description: "Chain address of the player (defaults to the arena player)",
					Required:    false,
				},
			},
		},
	}
}

func (b *Bot) registerCommands() error {
	for _, cmd := range commandDefinitions() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}
	return nil
}

// optionMap indexes interaction options by name
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
