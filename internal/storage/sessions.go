package storage

import "context"

// SaveSession upserts a session snapshot keyed by chat id. The snapshot is
// opaque JSON; the game registry owns the encoding.
func (s *Storage) SaveSession(ctx context.Context, chatID int64, data []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO sessions (chat_id, state, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (chat_id) DO UPDATE
		 SET state = EXCLUDED.state, updated_at = NOW()`,
		chatID, data)
	return err
}

// LoadSessions returns every stored snapshot, keyed by chat id.
func (s *Storage) LoadSessions(ctx context.Context) (map[int64][]byte, error) {
	rows, err := s.db.Query(ctx, `SELECT chat_id, state FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make(map[int64][]byte)
	for rows.Next() {
		var chatID int64
		var state []byte
		if err := rows.Scan(&chatID, &state); err != nil {
			return nil, err
		}
		sessions[chatID] = state
	}
	return sessions, rows.Err()
}

func (s *Storage) DeleteSession(ctx context.Context, chatID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE chat_id = $1`, chatID)
	return err
}
