package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	replyPermissionDenied = "You do not have permission to use this command."
	replyStatsStarted     = "Player statistics updates started in this channel."
	replyStatsRunning     = "Player statistics updates are already running."
	replyStatsStopped     = "Player statistics updates stopped."
	replyStatsNotRunning  = "Player statistics updates are not running."
	replyListFetchFailed  = "Failed to fetch the player list from the server."
)

func (b *serverBot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	if !b.isAdmin(i) {
		b.respondEphemeral(i, replyPermissionDenied)
		return
	}

	ctx := context.Background()
	switch name {
	case "mtstats":
		b.handleStatsStart(ctx, i)
	case "mtstats-stop":
		b.handleStatsStop(i)
	case "mtmsg":
		b.handleMessage(ctx, i)
	case "mtban":
		b.handleBan(ctx, i)
	case "mtkick":
		b.handleKick(ctx, i)
	case "mtunban":
		b.handleUnban(ctx, i)
	case "mtshowbanned":
		b.handleShowBanned(ctx, i)
	case "mtaudit":
		b.handleAudit(ctx, i)
	default:
		logger.Warn("unknown command", "name", name)
	}
}

func (b *serverBot) handleStatsStart(ctx context.Context, i *discordgo.InteractionCreate) {
	if b.poller.running() {
		b.respondEphemeral(i, replyStatsRunning)
		return
	}
	if !b.deferReply(i, true) {
		return
	}
	b.tracker.refresh(ctx)
	snap := b.tracker.snapshot()
	embed := buildStatusEmbed(b.cfg.EmbedTitle, snap, b.tracker.uptimeString(time.Now()))
	msg, err := b.session.ChannelMessageSendEmbed(i.ChannelID, embed)
	if err != nil {
		logger.Error("post status message failed", "channel", i.ChannelID, "error", err)
		b.followUp(i, "Failed to post the status message in this channel.")
		return
	}
	if b.poller.start(context.Background(), i.ChannelID, msg.ID) == pollAlreadyRunning {
		// Raced with a concurrent start; drop our message.
		_ = b.session.ChannelMessageDelete(i.ChannelID, msg.ID)
		b.followUp(i, replyStatsRunning)
		return
	}
	b.followUp(i, replyStatsStarted)
}

func (b *serverBot) handleStatsStop(i *discordgo.InteractionCreate) {
	outcome, channelID := b.poller.stop(i.ChannelID)
	switch outcome {
	case pollStopped:
		b.respondEphemeral(i, replyStatsStopped)
	case pollNotRunning:
		b.respondEphemeral(i, replyStatsNotRunning)
	case pollRunningElsewhere:
		b.respondEphemeral(i, fmt.Sprintf("Player statistics updates are running in <#%s>.", channelID))
	}
}

func (b *serverBot) handleMessage(ctx context.Context, i *discordgo.InteractionCreate) {
	text := strings.TrimSpace(commandOption(i, "message"))
	if text == "" {
		b.respondEphemeral(i, "Message text is required.")
		return
	}
	if !b.deferReply(i, true) {
		return
	}
	if err := b.api.SendChat(ctx, text); err != nil {
		logger.Error("send chat failed", "error", err)
		b.followUp(i, "Failed to send the message to the server.")
		return
	}
	b.followUp(i, "Message sent to server.")
}

func (b *serverBot) handleBan(ctx context.Context, i *discordgo.InteractionCreate) {
	b.moderatePlayer(ctx, i, "ban", func(ctx context.Context, p Player) error {
		return b.api.BanPlayer(ctx, p.UniqueID)
	}, "Player `%s` banned from server.")
}

func (b *serverBot) handleKick(ctx context.Context, i *discordgo.InteractionCreate) {
	b.moderatePlayer(ctx, i, "kick", func(ctx context.Context, p Player) error {
		return b.api.KickPlayer(ctx, p.UniqueID)
	}, "Player `%s` kicked from server.")
}

// moderatePlayer is the shared resolve-then-act flow for ban and kick: the
// player must currently be online so their unique id can be looked up by
// name.
func (b *serverBot) moderatePlayer(ctx context.Context, i *discordgo.InteractionCreate, action string, act func(context.Context, Player) error, successFormat string) {
	name := strings.TrimSpace(commandOption(i, "player_name"))
	if name == "" {
		b.respondEphemeral(i, "Player name is required.")
		return
	}
	if !b.deferReply(i, true) {
		return
	}
	player, ok, err := b.api.FindPlayerByName(ctx, name)
	if err != nil {
		logger.Error("fetch player list failed", "action", action, "error", err)
		b.followUp(i, replyListFetchFailed)
		return
	}
	if !ok {
		b.followUp(i, fmt.Sprintf("Player `%s` not found on server.", name))
		return
	}
	if err := act(ctx, player); err != nil {
		logger.Error("moderation action failed", "action", action, "player", player.Name, "error", err)
		b.followUp(i, fmt.Sprintf("Failed to %s player `%s`.", action, player.Name))
		return
	}
	b.audit.Record(ctx, action, player.Name, player.UniqueID, interactionActorID(i))
	logger.Info("moderation action", "action", action, "player", player.Name, "unique_id", player.UniqueID)
	b.followUp(i, fmt.Sprintf(successFormat, player.Name))
}

func (b *serverBot) handleUnban(ctx context.Context, i *discordgo.InteractionCreate) {
	name := strings.TrimSpace(commandOption(i, "player_name"))
	if name == "" {
		b.respondEphemeral(i, "Player name is required.")
		return
	}
	if !b.deferReply(i, true) {
		return
	}
	player, ok, err := b.api.FindBannedPlayerByName(ctx, name)
	if err != nil {
		logger.Error("fetch ban list failed", "error", err)
		b.followUp(i, "Failed to fetch the ban list from the server.")
		return
	}
	if !ok {
		b.followUp(i, fmt.Sprintf("Player `%s` not found in the ban list.", name))
		return
	}
	if err := b.api.UnbanPlayer(ctx, player.UniqueID); err != nil {
		logger.Error("unban failed", "player", player.Name, "error", err)
		b.followUp(i, fmt.Sprintf("Failed to unban player `%s`.", player.Name))
		return
	}
	b.audit.Record(ctx, "unban", player.Name, player.UniqueID, interactionActorID(i))
	logger.Info("moderation action", "action", "unban", "player", player.Name, "unique_id", player.UniqueID)
	b.followUp(i, fmt.Sprintf("Player `%s` unbanned from server.", player.Name))
}

func (b *serverBot) handleShowBanned(ctx context.Context, i *discordgo.InteractionCreate) {
	if !b.deferReply(i, false) {
		return
	}
	banned, err := b.api.BanList(ctx)
	if err != nil {
		logger.Error("fetch ban list failed", "error", err)
		b.followUp(i, "Failed to fetch the ban list from the server.")
		return
	}
	embed := buildBanListEmbed(banned)
	if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		logger.Warn("send ban list failed", "error", err)
	}
}

func (b *serverBot) handleAudit(ctx context.Context, i *discordgo.InteractionCreate) {
	entries, err := b.audit.Recent(ctx, 15)
	if err != nil {
		logger.Error("read moderation log failed", "error", err)
		b.respondEphemeral(i, "Failed to read the moderation log.")
		return
	}
	if len(entries) == 0 {
		b.respondEphemeral(i, "No moderation actions recorded yet.")
		return
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s — %s `%s` by <@%s>\n",
			e.CreatedAt.UTC().Format("2006-01-02 15:04"), e.Action, e.PlayerName, e.ActorID)
	}
	b.respondEphemeral(i, sb.String())
}

// commandOption returns the named string option, or "".
func commandOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func interactionActorID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (b *serverBot) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Warn("interaction response failed", "error", err)
	}
}

// deferReply acknowledges the interaction so slow game API calls do not hit
// Discord's 3 second response deadline.
func (b *serverBot) deferReply(i *discordgo.InteractionCreate, ephemeral bool) bool {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		logger.Warn("defer interaction failed", "error", err)
		return false
	}
	return true
}

func (b *serverBot) followUp(i *discordgo.InteractionCreate, content string) {
	if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	}); err != nil {
		logger.Warn("interaction follow-up failed", "error", err)
	}
}
