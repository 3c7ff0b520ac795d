package bot

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// roster remembers join time and roles per member. discordgo drops the
// member from state before GuildMemberRemove handlers run.
type roster struct {
	mu      sync.Mutex
	entries map[string]rosterEntry
}

type rosterEntry struct {
	joinedAt time.Time
	roles    []string
}

func newRoster() *roster {
	return &roster{entries: make(map[string]rosterEntry)}
}

func rosterKey(guildID, userID string) string {
	return guildID + ":" + userID
}

func (r *roster) remember(guildID string, m *discordgo.Member) {
	if m == nil || m.User == nil {
		return
	}
	if m.GuildID != "" {
		guildID = m.GuildID
	}
	r.mu.Lock()
	r.entries[rosterKey(guildID, m.User.ID)] = rosterEntry{
		joinedAt: m.JoinedAt,
		roles:    append([]string(nil), m.Roles...),
	}
	r.mu.Unlock()
}

func (r *roster) seed(g *discordgo.Guild) {
	for _, m := range g.Members {
		r.remember(g.ID, m)
	}
}

func (r *roster) forget(guildID, userID string) (rosterEntry, bool) {
	key := rosterKey(guildID, userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	delete(r.entries, key)
	return e, ok
}

func (r *roster) dropGuild(guildID string) {
	prefix := guildID + ":"
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(r.entries, k)
		}
	}
}

func (r *roster) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
