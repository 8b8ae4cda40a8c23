package storage

import "context"

// GroupExists reports whether a chat is already registered.
func (s *Storage) GroupExists(ctx context.Context, chatID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM groups WHERE chat_id = $1)`, chatID).Scan(&exists)
	return exists, err
}

// UpsertGroup registers or refreshes a chat and marks it active.
func (s *Storage) UpsertGroup(ctx context.Context, chatID int64, title string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO groups (chat_id, title, active)
		 VALUES ($1, $2, TRUE)
		 ON CONFLICT (chat_id) DO UPDATE
		 SET title = EXCLUDED.title, active = TRUE`,
		chatID, title)
	return err
}

// ActiveGroups lists every chat a broadcast should reach.
func (s *Storage) ActiveGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.Query(ctx,
		`SELECT chat_id, title, active FROM groups WHERE active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ChatID, &g.Title, &g.Active); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// DeactivateGroup marks a chat dead so broadcasts stop trying it.
func (s *Storage) DeactivateGroup(ctx context.Context, chatID int64) error {
	_, err := s.db.Exec(ctx, `UPDATE groups SET active = FALSE WHERE chat_id = $1`, chatID)
	return err
}
