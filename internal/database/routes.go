package database

import (
	"fmt"
	"time"
)

// RouteTable persists the guild log routes in the log_routes table.
type RouteTable struct {
	d *Database
}

func (d *Database) Routes() *RouteTable {
	return &RouteTable{d: d}
}

func (r *RouteTable) Load() (map[string]string, error) {
	rows, err := r.d.db.Query(`SELECT guild_id, channel_id FROM log_routes`)
	if err != nil {
		return nil, fmt.Errorf("failed to query log routes: %w", err)
	}
	defer rows.Close()

	routes := make(map[string]string)
	for rows.Next() {
		var guildID, channelID string
		if err := rows.Scan(&guildID, &channelID); err != nil {
			return nil, fmt.Errorf("failed to scan log route: %w", err)
		}
		routes[guildID] = channelID
	}
	return routes, rows.Err()
}

// Save replaces the whole table in one transaction.
func (r *RouteTable) Save(routes map[string]string) error {
	tx, err := r.d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM log_routes`); err != nil {
		return fmt.Errorf("failed to clear log routes: %w", err)
	}

	now := time.Now().Unix()
	stmt, err := tx.Prepare(`INSERT INTO log_routes (guild_id, channel_id, updated_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for guildID, channelID := range routes {
		if _, err := stmt.Exec(guildID, channelID, now); err != nil {
			return fmt.Errorf("failed to insert route for guild %s: %w", guildID, err)
		}
	}

	return tx.Commit()
}
