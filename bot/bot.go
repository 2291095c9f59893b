package bot

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"speedbet/events"
	"speedbet/service"
	"speedbet/session"
	"speedbet/toast"
	"speedbet/transport"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token     string
	GuildID   string
	ChannelID string // Arena channel that receives match and result announcements
}

// Bot is a Discord front end over the local arena session
type Bot struct {
	config   Config
	session  *discordgo.Session
	arena    *session.Session
	service  service.ArenaService
	toaster  *toast.Toaster
	eventBus *events.Bus
}

// New connects to Discord, registers the slash commands and starts
// announcing session events in the arena channel.
func New(config Config, arena *session.Session, svc service.ArenaService, toaster *toast.Toaster, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	bot := &Bot{
		config:   config,
		session:  dg,
		arena:    arena,
		service:  svc,
		toaster:  toaster,
		eventBus: eventBus,
	}

	// Register slash command handlers
	dg.AddHandler(bot.handleCommands)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	if eventBus != nil {
		eventBus.SubscribeAll(bot.announce,
			events.EventTypeQueueJoined,
			events.EventTypeMatchFound,
			events.EventTypeDuelResolved,
		)
	}
	if toaster != nil {
		toaster.AddSink(bot)
	}

	log.WithField("channel", config.ChannelID).Info("Discord bot connected")
	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "duel":
		b.handleDuelCommand(s, i)
	case "leaderboard":
		b.handleLeaderboard(s, i)
	case "stats":
		b.handleStats(s, i)
	}
}

// announce posts session events to the arena channel
func (b *Bot) announce(ctx context.Context, event events.Event) {
	embed := buildEventEmbed(event)
	if embed == nil {
		return
	}
	b.sendToChannel(embed)
}

// ToastShown mirrors error and warning toasts into the arena channel.
// Success and info toasts duplicate the event announcements.
func (b *Bot) ToastShown(t toast.Toast) {
	if t.Type != toast.TypeError && t.Type != toast.TypeWarning {
		return
	}
	b.sendToChannel(buildToastEmbed(t))
}

func (b *Bot) ToastDismissed(id int64) {}

func (b *Bot) sendToChannel(embed *discordgo.MessageEmbed) {
	if b.config.ChannelID == "" {
		return
	}
	if _, err := b.session.ChannelMessageSendEmbed(b.config.ChannelID, embed); err != nil {
		log.WithError(err).WithField("title", embed.Title).Error("Failed to post to arena channel")
	}
}

// userMessage turns an operation error into something safe to show a user
func userMessage(err error, fallback string) string {
	var pe *transport.PreconditionError
	if errors.As(err, &pe) {
		return "Cannot " + pe.Op + ": " + pe.Reason
	}
	var ge *transport.GraphQLError
	if errors.As(err, &ge) {
		return "Rejected by the arena: " + ge.Message
	}
	if transport.IsConnection(err) {
		return "The arena service is unreachable. Please try again later."
	}
	return fallback
}
