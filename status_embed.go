package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	embedColorOnline  = 0x57F287
	embedColorOffline = 0xED4245

	noPlayersPlaceholder = "No players online"
	noBannedPlaceholder  = "No banned players"
	offlineStatusText    = "Offline"
	onlineStatusText     = "Online"
	offlineStatusDetail  = "Server is not responding"
	banListEmbedTitle    = "Banned Players"
)

// buildStatusEmbed renders the tracked-message embed from a snapshot. Pure:
// no clock reads, no I/O; the caller supplies the already-formatted uptime.
func buildStatusEmbed(title string, snap statusSnapshot, uptime string) *discordgo.MessageEmbed {
	if !snap.online {
		return &discordgo.MessageEmbed{
			Title: title,
			Color: embedColorOffline,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Status", Value: offlineStatusText, Inline: true},
				{Name: "Details", Value: offlineStatusDetail, Inline: false},
			},
		}
	}
	return &discordgo.MessageEmbed{
		Title: title,
		Color: embedColorOnline,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: onlineStatusText, Inline: true},
			{Name: "Uptime", Value: uptime, Inline: true},
			{Name: "Players", Value: fmt.Sprintf("%d", snap.playerCount), Inline: true},
			{Name: "Online Players", Value: playerNamesBlock(snap.players), Inline: false},
		},
	}
}

// playerNamesBlock joins player names one per line, sorted so the embed is
// stable across renders of the same snapshot.
func playerNamesBlock(players map[string]Player) string {
	if len(players) == 0 {
		return noPlayersPlaceholder
	}
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n")
}

func buildBanListEmbed(players map[string]Player) *discordgo.MessageEmbed {
	value := noBannedPlaceholder
	if len(players) > 0 {
		names := make([]string, 0, len(players))
		for _, p := range players {
			names = append(names, p.Name)
		}
		sort.Strings(names)
		value = strings.Join(names, "\n")
	}
	return &discordgo.MessageEmbed{
		Title: banListEmbedTitle,
		Color: embedColorOffline,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Players", Value: value, Inline: false},
		},
	}
}
