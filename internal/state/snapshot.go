package state

import (
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/mvaillant/aria/internal/db"
)

// SnapshotTrack represents a track in the saved queue.
type SnapshotTrack struct {
	ID         string
	Title      string
	ArtistID   string
	MediaURI   string
	ArtworkURI string
	Duration   time.Duration
}

// Snapshot represents the persisted session state: queue contents and
// position, modes, and volume. Read on startup, written on every mutation.
// CurrentTrackID names the selected track by identity; the raw index is
// kept as a fallback but is meaningless once a restored queue re-shuffles.
type Snapshot struct {
	CurrentIndex   int
	CurrentTrackID string
	RepeatMode     int
	Shuffle        bool
	Volume         float64
	Tracks         []SnapshotTrack
}

func getSnapshot(db *sql.DB) (*Snapshot, error) {
	var currentIndex, repeatMode int
	var currentTrackID string
	var shuffle bool
	var volume float64
	row := db.QueryRow(`SELECT current_index, current_track_id, repeat_mode, shuffle, volume FROM session_state WHERE id = 1`)
	err := row.Scan(&currentIndex, &currentTrackID, &repeatMode, &shuffle, &volume)
	if errors.Is(err, sql.ErrNoRows) {
		return &Snapshot{CurrentIndex: -1, Volume: 1.0}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT track_id, title, artist_id, media_uri, artwork_uri, duration_ms
		FROM queue_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []SnapshotTrack
	for rows.Next() {
		var t SnapshotTrack
		var artistID, artworkURI sql.NullString
		var durationMs sql.NullInt64

		if err := rows.Scan(&t.ID, &t.Title, &artistID, &t.MediaURI, &artworkURI, &durationMs); err != nil {
			return nil, err
		}

		t.ArtistID = dbutil.NullStringValue(artistID)
		t.ArtworkURI = dbutil.NullStringValue(artworkURI)
		t.Duration = time.Duration(dbutil.NullInt64Value(durationMs)) * time.Millisecond
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Snapshot{
		CurrentIndex:   currentIndex,
		CurrentTrackID: currentTrackID,
		RepeatMode:     repeatMode,
		Shuffle:        shuffle,
		Volume:         volume,
		Tracks:         tracks,
	}, nil
}

func saveSnapshot(sqlDB *sql.DB, snap Snapshot) error {
	return dbutil.WithTx(sqlDB, func(tx *sql.Tx) error {
		// Clear existing queue
		if _, err := tx.Exec(`DELETE FROM queue_tracks`); err != nil {
			return err
		}

		_, err := tx.Exec(`
			INSERT INTO session_state (id, current_index, current_track_id, repeat_mode, shuffle, volume)
			VALUES (1, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index,
				current_track_id = excluded.current_track_id,
				repeat_mode = excluded.repeat_mode,
				shuffle = excluded.shuffle,
				volume = excluded.volume
		`, snap.CurrentIndex, snap.CurrentTrackID, snap.RepeatMode, snap.Shuffle, snap.Volume)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO queue_tracks (position, track_id, title, artist_id, media_uri, artwork_uri, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range snap.Tracks {
			_, err = stmt.Exec(i, t.ID, t.Title, t.ArtistID, t.MediaURI, t.ArtworkURI, t.Duration.Milliseconds())
			if err != nil {
				return err
			}
		}
		return nil
	})
}
