package commands

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go-logbot/internal/auth"
	"go-logbot/internal/bot"
	"go-logbot/internal/config"
	"go-logbot/internal/database"
	"go-logbot/internal/dispatcher"
	"go-logbot/internal/logging"
	"go-logbot/internal/moderation"
	"go-logbot/internal/notifier"
	"go-logbot/internal/routing"
	"go-logbot/internal/watchdog"

	"github.com/bwmarrin/discordgo"
)

// Lifecycle lets owner commands stop the process.
type Lifecycle interface {
	RequestStop(exitCode int, reason string)
}

// Deps are the collaborators the commands act on.
type Deps struct {
	Config     *config.Config
	Security   *config.Security
	Session    *bot.Session
	Store      *routing.Store
	Gate       *auth.Gate
	Moderation *moderation.Service
	Notifier   *notifier.Discord
	Dispatcher *dispatcher.Dispatcher
	HTTP       *dispatcher.HTTPPool
	DB         *database.Database
	Health     *watchdog.Watchdog
	Lifecycle  Lifecycle
}

// Handler manages all command interactions
type Handler struct {
	deps        Deps
	commands    map[string]*command
	maintenance atomic.Bool
}

// NewHandler builds the command table without touching Discord.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		deps:     deps,
		commands: make(map[string]*command),
	}
	for _, cmd := range allCommands() {
		h.commands[cmd.def.Name] = cmd
	}
	return h
}

// Initialize registers the interaction handler and the slash commands.
func Initialize(deps Deps) (*Handler, error) {
	h := NewHandler(deps)

	// Events run on the gateway reader; commands make REST calls.
	deps.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		go h.handleInteraction(s, i)
	})

	defs := h.Definitions()
	if err := deps.Session.RegisterCommands(deps.Config.Bot.ClientID, deps.Config.Bot.GuildID, defs); err != nil {
		return nil, err
	}

	logging.Info("Command handler initialized with %d commands", len(defs))
	return h, nil
}

// Definitions returns the application commands in registration order.
func (h *Handler) Definitions() []*discordgo.ApplicationCommand {
	cmds := allCommands()
	defs := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, cmd := range cmds {
		defs = append(defs, cmd.def)
	}
	return defs
}

func (h *Handler) InMaintenance() bool { return h.maintenance.Load() }

// handleInteraction routes all interactions
func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Critical("Panic in command handler: %v", r)
		}
	}()
	h.handleCommand(s, i)
}

// handleCommand authorizes the caller, then runs the command.
func (h *Handler) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	cmd, ok := h.commands[data.Name]
	if !ok {
		respondError(s, i, fmt.Sprintf("unknown command: %s", data.Name))
		return
	}

	p := h.principal(s, i)
	if err := h.deps.Gate.Authorize(p, cmd.req); err != nil {
		logging.Warn("Denied /%s for %s in guild %s: %v", data.Name, p.UserID, p.GuildID, err)
		respondPermissionError(s, i, denialReason(err))
		return
	}

	if h.maintenance.Load() && cmd.req.Tier() != auth.TierBotOwner {
		respondEphemeral(s, i, "🔧 The bot is in maintenance mode. Please try again later.")
		return
	}

	logging.Debug("Command /%s by %s (%s) in guild %s", data.Name, p.UserID, h.deps.Gate.Tier(p), p.GuildID)

	if err := cmd.run(h, s, i); err != nil {
		logging.Error("Command error [%s]: %v", data.Name, err)
		respondError(s, i, err.Error())
	}
}

func (h *Handler) principal(s *discordgo.Session, i *discordgo.InteractionCreate) auth.Principal {
	p := principalFrom(i)
	if p.GuildID == "" {
		return p
	}
	if g, err := s.State.Guild(p.GuildID); err == nil {
		p.GuildOwner = g.OwnerID == p.UserID
	} else if g, err := s.Guild(p.GuildID); err == nil {
		p.GuildOwner = g.OwnerID == p.UserID
	}
	return p
}

func denialReason(err error) string {
	msg := err.Error()
	prefix := auth.ErrDenied.Error() + ": "
	if strings.HasPrefix(msg, prefix) {
		return capitalize(strings.TrimPrefix(msg, prefix)) + "."
	}
	return "You do not have access to this command."
}

// failureMessage turns a moderation or routing error into the caller-visible
// text. action completes "I don't have permission to ...".
func failureMessage(action string, err error) (string, bool) {
	var validation *routing.ValidationError
	var persistence *routing.PersistenceError

	switch {
	case errors.Is(err, moderation.ErrSelfTarget):
		return fmt.Sprintf("You cannot %s yourself!", strings.Fields(action)[0]), true
	case errors.Is(err, moderation.ErrBotPermission):
		return fmt.Sprintf("I don't have permission to %s!", action), true
	case errors.Is(err, moderation.ErrNoMutedRole):
		return "No 'Muted' role found! Please create one first.", true
	case errors.Is(err, moderation.ErrValidation):
		return validationText(err), true
	case errors.As(err, &validation):
		return capitalize(validation.Error()) + "!", true
	case errors.As(err, &persistence):
		return "Failed to save the logging configuration. The previous setting is still active.", true
	}
	return "", false
}

func validationText(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, moderation.ErrValidation.Error()+": "); idx >= 0 {
		msg = msg[idx+len(moderation.ErrValidation.Error())+2:]
	}
	if msg == "" {
		return "Invalid input!"
	}
	return capitalize(msg) + "!"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// respondFailure replies to known failures and reports whether it did.
func respondFailure(s *discordgo.Session, i *discordgo.InteractionCreate, action string, err error) bool {
	msg, ok := failureMessage(action, err)
	if !ok {
		return false
	}
	respondEphemeral(s, i, "❌ "+msg)
	return true
}

// respondError sends an ephemeral error message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	respondEphemeral(s, i, fmt.Sprintf("❌ Error: %s", message))
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logging.Debug("Failed to respond to interaction: %v", err)
	}
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

func editEmbeds(s *discordgo.Session, i *discordgo.InteractionCreate, embeds ...*discordgo.MessageEmbed) error {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &embeds,
	})
	return err
}

func editContent(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	return err
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(i *discordgo.InteractionCreate) options {
	data := i.ApplicationCommandData()
	m := make(options, len(data.Options))
	for _, opt := range data.Options {
		m[opt.Name] = opt
	}
	return m
}

func (o options) str(name, fallback string) string {
	if opt, ok := o[name]; ok {
		if v := strings.TrimSpace(opt.StringValue()); v != "" {
			return v
		}
	}
	return fallback
}

func (o options) integer(name string, fallback int64) int64 {
	if opt, ok := o[name]; ok {
		return opt.IntValue()
	}
	return fallback
}

// snowflake reads a user, channel or role option as its ID.
func (o options) snowflake(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	if id, ok := opt.Value.(string); ok {
		return id
	}
	return ""
}

func callerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func callerName(i *discordgo.InteractionCreate) string {
	if i.Member != nil {
		if i.Member.Nick != "" {
			return i.Member.Nick
		}
		if i.Member.User != nil {
			return i.Member.User.Username
		}
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}

func resolved(i *discordgo.InteractionCreate) *discordgo.ApplicationCommandInteractionDataResolved {
	if r := i.ApplicationCommandData().Resolved; r != nil {
		return r
	}
	return &discordgo.ApplicationCommandInteractionDataResolved{}
}

// channelName prefers the partial channel Discord resolved with the options.
func channelName(s *discordgo.Session, i *discordgo.InteractionCreate, channelID string) string {
	if ch, ok := resolved(i).Channels[channelID]; ok && ch.Name != "" {
		return ch.Name
	}
	if ch, err := s.State.Channel(channelID); err == nil {
		return ch.Name
	}
	return channelID
}
