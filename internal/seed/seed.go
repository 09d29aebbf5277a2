package seed

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/costdesk/internal/auth"
	"github.com/Simplici0/costdesk/internal/schedule"
)

// BootstrapLabel names the access token created from configuration.
const BootstrapLabel = "bootstrap"

// Config contains the values required by startup seed.
type Config struct {
	BootstrapAccessToken string
	// HashCost overrides the bcrypt cost. Zero means bcrypt.DefaultCost.
	HashCost int
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Skipped int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedBootstrapToken(tx, cfg, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureWorkspace(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

// seedBootstrapToken stores the configured token unless an active bootstrap token exists.
// Revoking the bootstrap token and restarting issues it again only if the value changed.
func seedBootstrapToken(tx *sql.Tx, cfg Config, stats *Stats) error {
	if cfg.BootstrapAccessToken == "" {
		return nil
	}

	rows, err := tx.Query(`SELECT token_hash FROM access_tokens WHERE label = ?`, BootstrapLabel)
	if err != nil {
		return fmt.Errorf("query bootstrap tokens: %w", err)
	}
	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return fmt.Errorf("scan bootstrap token: %w", err)
		}
		hashes = append(hashes, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate bootstrap tokens: %w", err)
	}

	for _, h := range hashes {
		if bcrypt.CompareHashAndPassword([]byte(h), []byte(cfg.BootstrapAccessToken)) == nil {
			stats.Skipped++
			return nil
		}
	}

	var active bool
	if err := tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM access_tokens WHERE label = ? AND revoked_at IS NULL)
	`, BootstrapLabel).Scan(&active); err != nil {
		return fmt.Errorf("check active bootstrap token: %w", err)
	}
	if active {
		if _, err := tx.Exec(`
			UPDATE access_tokens SET revoked_at = ?
			WHERE label = ? AND revoked_at IS NULL
		`, time.Now().UTC().Format(time.RFC3339Nano), BootstrapLabel); err != nil {
			return fmt.Errorf("rotate bootstrap token: %w", err)
		}
	}

	cost := cfg.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := auth.HashToken(cfg.BootstrapAccessToken, cost)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`
		INSERT INTO access_tokens (id, label, token_hash) VALUES (?, ?, ?)
	`, uuid.NewString(), BootstrapLabel, hash); err != nil {
		return fmt.Errorf("insert bootstrap token: %w", err)
	}
	stats.Inserts++
	return nil
}

// ensureWorkspace writes empty schedule values for keys that were never saved.
func ensureWorkspace(tx *sql.Tx, stats *Stats) error {
	defaults := []struct {
		key   string
		value any
	}{
		{schedule.KeyPODetails, schedule.PODetails{}},
		{schedule.KeyAllocations, []schedule.Allocation{}},
		{schedule.KeyRows, []schedule.Row{}},
	}

	for _, d := range defaults {
		raw, err := json.Marshal(d.value)
		if err != nil {
			return fmt.Errorf("encode default %s: %w", d.key, err)
		}
		res, err := tx.Exec(`
			INSERT INTO workspace_state (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO NOTHING
		`, d.key, string(raw))
		if err != nil {
			return fmt.Errorf("insert default %s: %w", d.key, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stats.Inserts++
		}
	}
	return nil
}
