package bot

import (
	"errors"
	"fmt"
	"time"

	"go-logbot/internal/config"
	"go-logbot/internal/logging"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/websocket"
)

// closeAuthenticationFailed is the gateway close code for a rejected token.
const closeAuthenticationFailed = 4004

type Session struct {
	discord *discordgo.Session
	BotID   string
	roster  *roster
	started time.Time
}

// New creates the Discord session with the intents and state cache the
// logging handlers depend on.
func New(sec *config.Security, cfg config.StateConfig) (*Session, error) {
	dg, err := discordgo.New("Bot " + sec.Token())
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Message content and member events are privileged intents.
	dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	// Handlers run on the gateway reader in arrival order. Slow work must
	// leave that goroutine.
	dg.SyncEvents = true

	dg.StateEnabled = true
	dg.State.MaxMessageCount = cfg.MaxMessageCount
	dg.State.TrackMembers = true
	dg.State.TrackVoice = true
	dg.State.TrackChannels = true
	dg.State.TrackRoles = true

	return &Session{
		discord: dg,
		roster:  newRoster(),
		started: time.Now(),
	}, nil
}

// GetDiscord returns the underlying discordgo session
func (s *Session) GetDiscord() *discordgo.Session {
	return s.discord
}

func (s *Session) StartedAt() time.Time { return s.started }

// Connect opens the gateway connection. A rejected token is reported as a
// configuration error.
func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		if isAuthenticationFailure(err) {
			return &config.ConfigurationError{Field: "DISCORD_BOT_TOKEN", Reason: "rejected by Discord (invalid token)"}
		}
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if s.discord.State.User != nil {
		s.BotID = s.discord.State.User.ID
		logging.Info("Bot ID: %s", s.BotID)
	}

	logging.Info("Discord bot connected successfully")
	return nil
}

func isAuthenticationFailure(err error) bool {
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr) && closeErr.Code == closeAuthenticationFailed
}

// Close closes the Discord connection
func (s *Session) Close() error {
	if s.discord != nil {
		return s.discord.Close()
	}
	return nil
}

// RegisterCommands replaces the application's slash commands. An empty
// guildID registers them globally.
func (s *Session) RegisterCommands(appID, guildID string, commands []*discordgo.ApplicationCommand) error {
	if appID == "" && s.discord.State.User != nil {
		appID = s.discord.State.User.ID
	}
	logging.Info("Registering %d slash commands...", len(commands))

	created, err := s.discord.ApplicationCommandBulkOverwrite(appID, guildID, commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	for _, cmd := range created {
		logging.Debug("Registered command: /%s", cmd.Name)
	}
	return nil
}

// AddHandler adds an event handler to the Discord session
func (s *Session) AddHandler(handler interface{}) {
	s.discord.AddHandler(handler)
}

// HeartbeatLatency is the last gateway round trip.
func (s *Session) HeartbeatLatency() time.Duration {
	return s.discord.HeartbeatLatency()
}

// LastHeartbeatAck is zero until the gateway has acknowledged a heartbeat.
func (s *Session) LastHeartbeatAck() time.Time {
	s.discord.RLock()
	defer s.discord.RUnlock()
	if s.discord.DataReady {
		return s.discord.LastHeartbeatAck
	}
	return time.Time{}
}

// Guilds lists the guilds currently held in state.
func (s *Session) Guilds() []*discordgo.Guild {
	s.discord.State.RLock()
	defer s.discord.State.RUnlock()
	return append([]*discordgo.Guild(nil), s.discord.State.Guilds...)
}

// Guild returns a guild from state, falling back to REST.
func (s *Session) Guild(guildID string) (*discordgo.Guild, error) {
	if g, err := s.discord.State.Guild(guildID); err == nil {
		return g, nil
	}
	g, err := s.discord.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild %s: %w", guildID, err)
	}
	return g, nil
}

// SetPresence updates the bot's activity. kind is one of playing,
// watching, listening or streaming.
func (s *Session) SetPresence(kind, text string) error {
	var err error
	switch kind {
	case "playing", "":
		err = s.discord.UpdateGameStatus(0, text)
	case "watching":
		err = s.discord.UpdateWatchStatus(0, text)
	case "listening":
		err = s.discord.UpdateListeningStatus(text)
	case "streaming":
		err = s.discord.UpdateStreamingStatus(0, text, "https://twitch.tv/discord")
	default:
		return fmt.Errorf("unknown activity type %q", kind)
	}
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	return nil
}

// LeaveGuild removes the bot from a guild.
func (s *Session) LeaveGuild(guildID string) error {
	if err := s.discord.GuildLeave(guildID); err != nil {
		return classify(err)
	}
	return nil
}
