package main

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// serverBot ties the Discord session to the tracker, poller, game API and
// audit store.
type serverBot struct {
	session *discordgo.Session
	cfg     Config
	api     *gameAPIClient
	tracker *presenceTracker
	poller  *statusPoller
	audit   *auditStore
}

func newServerBot(cfg Config, api *gameAPIClient, tracker *presenceTracker, audit *auditStore) (*serverBot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds)

	bot := &serverBot{
		session: session,
		cfg:     cfg,
		api:     api,
		tracker: tracker,
		audit:   audit,
	}
	bot.poller = newStatusPoller(tracker, &discordStatusEditor{session: session}, cfg.EmbedTitle, cfg.pollInterval())

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onInteraction)
	return bot, nil
}

func (b *serverBot) open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

func (b *serverBot) close() {
	if b == nil || b.session == nil {
		return
	}
	if b.poller != nil && b.poller.running() {
		// Shutdown path; channel filter does not apply.
		b.poller.stopAny()
	}
	if err := b.session.Close(); err != nil {
		logger.Warn("close discord session failed", "error", err)
	}
}

func (b *serverBot) onReady(s *discordgo.Session, _ *discordgo.Ready) {
	logger.Info("discord session ready", "user", s.State.User.Username)
	if err := b.registerCommands(); err != nil {
		logger.Error("register slash commands failed", "error", err)
	}
}

func (b *serverBot) registerCommands() error {
	nameOption := func(desc string) []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "player_name",
			Description: desc,
			Required:    true,
		}}
	}
	commands := []*discordgo.ApplicationCommand{
		{Name: "mtstats", Description: "Start live server status updates in this channel"},
		{Name: "mtstats-stop", Description: "Stop live server status updates"},
		{
			Name:        "mtmsg",
			Description: "Send a chat message to the game server",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "message",
				Description: "Message text",
				Required:    true,
			}},
		},
		{Name: "mtban", Description: "Ban a player by name", Options: nameOption("Name of the player to ban")},
		{Name: "mtkick", Description: "Kick a player by name", Options: nameOption("Name of the player to kick")},
		{Name: "mtunban", Description: "Unban a player by name", Options: nameOption("Name of the player to unban")},
		{Name: "mtshowbanned", Description: "Show the server ban list"},
		{Name: "mtaudit", Description: "Show recent moderation actions taken through this bot"},
	}
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.cfg.GuildID, commands)
	if err != nil {
		return fmt.Errorf("bulk overwrite commands: %w", err)
	}
	logger.Info("slash commands registered", "count", len(commands), "guild", b.cfg.GuildID)
	return nil
}

// isAdmin reports whether the interaction member carries the configured
// admin role. Interactions outside a guild have no member and are denied.
func (b *serverBot) isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	for _, role := range i.Member.Roles {
		if role == b.cfg.AdminRoleID {
			return true
		}
	}
	return false
}

// discordStatusEditor adapts *discordgo.Session to the poller's editor
// interface.
type discordStatusEditor struct {
	session *discordgo.Session
}

func (e *discordStatusEditor) EditStatusMessage(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := e.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: channelID,
		ID:      messageID,
		Embeds:  &[]*discordgo.MessageEmbed{embed},
	})
	return err
}
