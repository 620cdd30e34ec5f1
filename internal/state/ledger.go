package state

import (
	"database/sql"
	"errors"

	"github.com/mvaillant/aria/internal/ads"
)

// Count returns the play count for (user, ad, day). Missing rows count as
// zero.
func (m *Manager) Count(userID, adID string, day ads.Day) (int, error) {
	var count int
	row := m.db.QueryRow(`
		SELECT play_count FROM ad_ledger
		WHERE user_id = ? AND ad_id = ? AND day = ?
	`, userID, adID, string(day))
	err := row.Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Increment bumps the play count for (user, ad, day).
// Last write wins across concurrent sessions; the cap is a soft limit.
func (m *Manager) Increment(userID, adID string, day ads.Day) error {
	_, err := m.db.Exec(`
		INSERT INTO ad_ledger (user_id, ad_id, day, play_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(user_id, ad_id, day) DO UPDATE SET
			play_count = play_count + 1
	`, userID, adID, string(day))
	return err
}
