package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordAction appends a moderation action and assigns its case ID.
func (d *Database) RecordAction(a *ModAction) error {
	if a.CaseID == "" {
		a.CaseID = uuid.NewString()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}

	res, err := d.db.Exec(
		`INSERT INTO mod_actions (case_id, guild_id, action, moderator_id, target_id, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.CaseID, a.GuildID, a.Action, a.ModeratorID, a.TargetID, a.Reason, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record %s action: %w", a.Action, err)
	}

	id, err := res.LastInsertId()
	if err == nil {
		a.ID = id
	}
	return nil
}

// ActionsForTarget returns the most recent actions against a user in a guild.
func (d *Database) ActionsForTarget(guildID, targetID string, limit int) ([]*ModAction, error) {
	rows, err := d.db.Query(
		`SELECT id, case_id, guild_id, action, moderator_id, target_id, reason, created_at
		 FROM mod_actions WHERE guild_id = ? AND target_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		guildID, targetID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	var actions []*ModAction
	for rows.Next() {
		a := &ModAction{}
		if err := rows.Scan(&a.ID, &a.CaseID, &a.GuildID, &a.Action, &a.ModeratorID, &a.TargetID, &a.Reason, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// CountActions returns the number of recorded actions, across all guilds when guildID is empty.
func (d *Database) CountActions(guildID string) (int, error) {
	var n int
	var err error
	if guildID == "" {
		err = d.db.QueryRow(`SELECT COUNT(*) FROM mod_actions`).Scan(&n)
	} else {
		err = d.db.QueryRow(`SELECT COUNT(*) FROM mod_actions WHERE guild_id = ?`, guildID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return n, nil
}
