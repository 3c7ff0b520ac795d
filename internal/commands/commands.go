package commands

import (
	"go-logbot/internal/auth"

	"github.com/bwmarrin/discordgo"
)

type runFunc func(h *Handler, s *discordgo.Session, i *discordgo.InteractionCreate) error

// command ties a registered slash command to its access requirement.
type command struct {
	def *discordgo.ApplicationCommand
	req auth.Requirement
	run runFunc
}

func perms(flag int64) *int64 { return &flag }

var guildOnly = new(bool)

func userOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionUser,
		Required:    required,
	}
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionString,
		Required:    required,
	}
}

func textChannelOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionChannel,
		Required:    required,
		ChannelTypes: []discordgo.ChannelType{
			discordgo.ChannelTypeGuildText,
			discordgo.ChannelTypeGuildNews,
		},
	}
}

// moderated declares a guild-only command gated on a permission. Discord hides
// it from members without the flag; the gate checks again on every call.
func moderated(def *discordgo.ApplicationCommand, flag int64, run runFunc) *command {
	def.DefaultMemberPermissions = perms(flag)
	def.DMPermission = guildOnly
	return &command{def: def, req: auth.RequirePermission(flag), run: run}
}

func ownerOnly(def *discordgo.ApplicationCommand, run runFunc) *command {
	return &command{def: def, req: auth.BotOwnerOnly(), run: run}
}

func public(def *discordgo.ApplicationCommand, run runFunc) *command {
	return &command{def: def, req: auth.Public(), run: run}
}

// allCommands returns every command in registration order.
func allCommands() []*command {
	minPurge := float64(1)

	return []*command{
		// Logging configuration
		moderated(&discordgo.ApplicationCommand{
			Name:        "setlogchannel",
			Description: "Set the logging channel for this server (Admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				textChannelOption("channel", "Channel where logs will be sent", true),
			},
		}, discordgo.PermissionAdministrator, (*Handler).handleSetLogChannel),
		moderated(&discordgo.ApplicationCommand{
			Name:        "removelogchannel",
			Description: "Remove logging for this server (Admin only)",
		}, discordgo.PermissionAdministrator, (*Handler).handleRemoveLogChannel),
		moderated(&discordgo.ApplicationCommand{
			Name:        "logstatus",
			Description: "Check current logging status (Admin only)",
		}, discordgo.PermissionAdministrator, (*Handler).handleLogStatus),

		// Moderation
		moderated(&discordgo.ApplicationCommand{
			Name:        "kick",
			Description: "Kick a member from the server",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "The member to kick", true),
				stringOption("reason", "Reason for the kick", false),
			},
		}, discordgo.PermissionKickMembers, (*Handler).handleKick),
		moderated(&discordgo.ApplicationCommand{
			Name:        "ban",
			Description: "Ban a member from the server",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "The member to ban", true),
				stringOption("reason", "Reason for the ban", false),
			},
		}, discordgo.PermissionBanMembers, (*Handler).handleBan),
		moderated(&discordgo.ApplicationCommand{
			Name:        "unban",
			Description: "Unban a user from the server",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("user_id", "The ID of the user to unban", true),
			},
		}, discordgo.PermissionBanMembers, (*Handler).handleUnban),
		moderated(&discordgo.ApplicationCommand{
			Name:        "purge",
			Description: "Delete multiple messages at once",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "amount",
					Description: "Number of messages to delete (1-100)",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Required:    true,
					MinValue:    &minPurge,
					MaxValue:    100,
				},
			},
		}, discordgo.PermissionManageMessages, (*Handler).handlePurge),
		moderated(&discordgo.ApplicationCommand{
			Name:        "mute",
			Description: "Mute a member so they cannot type",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "The member to mute", true),
				stringOption("reason", "Reason for the mute", false),
			},
		}, discordgo.PermissionManageRoles, (*Handler).handleMute),
		moderated(&discordgo.ApplicationCommand{
			Name:        "unmute",
			Description: "Unmute a member",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "The member to unmute", true),
			},
		}, discordgo.PermissionManageRoles, (*Handler).handleUnmute),
		moderated(&discordgo.ApplicationCommand{
			Name:        "warn",
			Description: "Issue a warning to a member",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "The member to warn", true),
				stringOption("reason", "Reason for the warning", false),
			},
		}, discordgo.PermissionManageMessages, (*Handler).handleWarn),
		moderated(&discordgo.ApplicationCommand{
			Name:        "cases",
			Description: "Show recent moderation actions against a member",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "The member to look up", true),
			},
		}, discordgo.PermissionManageMessages, (*Handler).handleCases),

		// Messaging
		moderated(&discordgo.ApplicationCommand{
			Name:        "send",
			Description: "Send a message to a specific channel",
			Options: []*discordgo.ApplicationCommandOption{
				textChannelOption("channel", "The channel to send the message to", true),
				stringOption("message", "The message to send", true),
			},
		}, discordgo.PermissionManageMessages, (*Handler).handleSend),
		moderated(&discordgo.ApplicationCommand{
			Name:        "sendembed",
			Description: "Send an embed message to a specific channel",
			Options: []*discordgo.ApplicationCommandOption{
				textChannelOption("channel", "The channel to send the embed to", true),
				stringOption("title", "Title of the embed", true),
				stringOption("description", "Description/content of the embed", true),
			},
		}, discordgo.PermissionManageMessages, (*Handler).handleSendEmbed),
		moderated(&discordgo.ApplicationCommand{
			Name:        "announce",
			Description: "Send an announcement to a specific channel",
			Options: []*discordgo.ApplicationCommandOption{
				textChannelOption("channel", "The channel to send the announcement to", true),
				stringOption("message", "The announcement message", true),
			},
		}, discordgo.PermissionAdministrator, (*Handler).handleAnnounce),

		// Owner
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "security",
			Description: "Security status (Owner only)",
		}, (*Handler).handleSecurity),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "shutdown",
			Description: "Safely shutdown the bot (Owner only)",
		}, (*Handler).handleShutdown),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "restart",
			Description: "Restart the bot (Owner only)",
		}, (*Handler).handleRestart),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "status",
			Description: "Change bot status (Owner only)",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("activity_type", "Type of activity (playing, watching, listening, streaming)", true),
				stringOption("text", "Status text", true),
			},
		}, (*Handler).handleStatus),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "servers",
			Description: "List all servers the bot is in (Owner only)",
		}, (*Handler).handleServers),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "leave",
			Description: "Leave a server (Owner only)",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("server_id", "Server ID to leave", true),
			},
		}, (*Handler).handleLeave),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "globalban",
			Description: "Ban user from all mutual servers (Owner only)",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("user_id", "User ID to ban globally", true),
				stringOption("reason", "Reason for global ban", false),
			},
		}, (*Handler).handleGlobalBan),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "userinfo_global",
			Description: "Get detailed user info across all servers (Owner only)",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("user_id", "User ID to check", true),
			},
		}, (*Handler).handleUserInfoGlobal),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "stats",
			Description: "Detailed bot statistics (Owner only)",
		}, (*Handler).handleStats),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "logs",
			Description: "View recent bot logs (Owner only)",
		}, (*Handler).handleLogs),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "emergency_stop",
			Description: "Emergency bot shutdown (Owner only)",
		}, (*Handler).handleEmergencyStop),
		ownerOnly(&discordgo.ApplicationCommand{
			Name:        "maintenance",
			Description: "Toggle maintenance mode (Owner only)",
		}, (*Handler).handleMaintenance),

		// Public
		public(&discordgo.ApplicationCommand{
			Name:        "ping",
			Description: "Check gateway and API latency",
		}, (*Handler).handlePing),
		public(&discordgo.ApplicationCommand{
			Name:         "serverinfo",
			Description:  "Display detailed information about the current server",
			DMPermission: guildOnly,
		}, (*Handler).handleServerInfo),
		public(&discordgo.ApplicationCommand{
			Name:         "userinfo",
			Description:  "Display information about a user",
			DMPermission: guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "The user to get information about (leave empty for yourself)", false),
			},
		}, (*Handler).handleUserInfo),
		public(&discordgo.ApplicationCommand{
			Name:        "avatar",
			Description: "Display a user's avatar in full size",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "The user whose avatar you want to see (leave empty for yourself)", false),
			},
		}, (*Handler).handleAvatar),
		public(&discordgo.ApplicationCommand{
			Name:         "membercount",
			Description:  "Show detailed member statistics for the server",
			DMPermission: guildOnly,
		}, (*Handler).handleMemberCount),
		public(&discordgo.ApplicationCommand{
			Name:         "channelinfo",
			Description:  "Get information about a channel",
			DMPermission: guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				textChannelOption("channel", "The channel to get information about (leave empty for current channel)", false),
			},
		}, (*Handler).handleChannelInfo),
		public(&discordgo.ApplicationCommand{
			Name:         "test",
			Description:  "Test if the bot is working properly",
			DMPermission: guildOnly,
		}, (*Handler).handleTest),
	}
}
