package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/asbhaibsr/groupgamingbot/internal/game"
)

// FetchContent returns the content bank for a game type in authored order.
// Implements game.ContentSource.
func (s *Storage) FetchContent(ctx context.Context, gameType game.GameType) ([]game.ContentItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT prompt, answer, options, correct_option, explanation
		 FROM content
		 WHERE game_type = $1
		 ORDER BY id ASC`,
		string(gameType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []game.ContentItem
	for rows.Next() {
		var it game.ContentItem
		var options []byte
		if err := rows.Scan(&it.Prompt, &it.Answer, &options, &it.CorrectOption, &it.Explanation); err != nil {
			return nil, err
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &it.Options); err != nil {
				return nil, fmt.Errorf("decode options: %w", err)
			}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
