package storage

// Player is one row of durable per-user accounting. Created on a player's
// first scoring event and never deleted.
type Player struct {
	UserID      int64
	DisplayName string
	TotalScore  int
	GamesPlayed int
	GamesWon    int
}

// RoomScore is a player's score within one chat.
type RoomScore struct {
	ChatID    int64
	ChatTitle string
	Score     int
}

// PlayerStats is a player's totals plus the per-chat breakdown.
type PlayerStats struct {
	Player     Player
	RoomScores []RoomScore
}

// LeaderboardEntry is one row of a room or worldwide leaderboard.
type LeaderboardEntry struct {
	UserID      int64
	DisplayName string
	Score       int
}

// Group is a chat the bot has been added to. Inactive groups are skipped by
// broadcasts.
type Group struct {
	ChatID int64
	Title  string
	Active bool
}
