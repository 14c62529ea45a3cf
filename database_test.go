package main

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStatsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreatePlayer("striker", "hash")
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}

	// No stats assigned yet: read-through returns nil, not an error.
	row, err := db.FindStatsByUserID(id)
	if err != nil {
		t.Fatalf("FindStatsByUserID: %v", err)
	}
	if row != nil {
		t.Fatal("expected nil stats before assignment")
	}

	want := SoccerStats{Speed: 6, KickPower: 7, Dribbling: 2}
	if err := db.SaveStats(id, want); err != nil {
		t.Fatalf("SaveStats: %v", err)
	}
	row, err = db.FindStatsByUserID(id)
	if err != nil || row == nil {
		t.Fatalf("FindStatsByUserID after save: %v, %v", row, err)
	}
	if row.Stats != want {
		t.Errorf("stats = %+v, want %+v", row.Stats, want)
	}
	if row.MMR != mmrStartingRating {
		t.Errorf("mmr = %d, want starting %d", row.MMR, mmrStartingRating)
	}
}

func TestSaveStatsEnforcesInvariant(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("cheater", "hash")
	if err := db.SaveStats(id, SoccerStats{Speed: 10, KickPower: 10, Dribbling: 10}); err == nil {
		t.Error("30-point stat split accepted")
	}
	if err := db.SaveStats(id, SoccerStats{Speed: -1, KickPower: 8, Dribbling: 8}); err == nil {
		t.Error("negative stat accepted")
	}
}

func TestUpdateMMRAndStreak(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("winner", "hash")
	db.SaveStats(id, SoccerStats{Speed: 5, KickPower: 5, Dribbling: 5})

	mmr, err := db.UpdateMMR(id, 25, true)
	if err != nil {
		t.Fatalf("UpdateMMR: %v", err)
	}
	if mmr != mmrStartingRating+25 {
		t.Errorf("mmr = %d, want %d", mmr, mmrStartingRating+25)
	}
	db.UpdateMMR(id, 25, true)
	row, _ := db.FindStatsByUserID(id)
	if row.Streak != 2 || row.Wins != 2 {
		t.Errorf("streak/wins = %d/%d, want 2/2", row.Streak, row.Wins)
	}

	// A loss resets the streak and never drives MMR negative.
	db.UpdateMMR(id, -2000, false)
	row, _ = db.FindStatsByUserID(id)
	if row.Streak != 0 || row.Losses != 1 {
		t.Errorf("streak/losses = %d/%d, want 0/1", row.Streak, row.Losses)
	}
	if row.MMR != 0 {
		t.Errorf("mmr = %d, want floored at 0", row.MMR)
	}
}

func TestMatchHistoryAndLeaderboard(t *testing.T) {
	db := openTestDB(t)
	a, _ := db.CreatePlayer("alice", "hash")
	b, _ := db.CreatePlayer("bob", "hash")
	db.SaveStats(a, SoccerStats{Speed: 5, KickPower: 5, Dribbling: 5})
	db.SaveStats(b, SoccerStats{Speed: 5, KickPower: 5, Dribbling: 5})
	db.UpdateMMR(a, 30, true)
	db.UpdateMMR(b, -25, false)

	err := db.AddMatchHistory(MatchHistoryEntry{
		MatchID: "m-1", PlayerID: a, Team: TeamRed,
		Goals: 2, Assists: 1, Interceptions: 0, MVP: true, MMRDelta: 30, Won: true,
	})
	if err != nil {
		t.Fatalf("AddMatchHistory: %v", err)
	}

	entries, err := db.Leaderboard(10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("leaderboard rows = %d, want 2", len(entries))
	}
	if entries[0].Username != "alice" || entries[0].Rank != 1 {
		t.Errorf("top entry = %+v, want alice at rank 1", entries[0])
	}
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)
	if v := db.GetSetting("missing"); v != "" {
		t.Errorf("missing setting = %q, want empty", v)
	}
	db.SetSetting("jwt_secret", "abc")
	db.SetSetting("jwt_secret", "def")
	if v := db.GetSetting("jwt_secret"); v != "def" {
		t.Errorf("setting = %q, want def", v)
	}
}

func TestAuthRegisterLoginToken(t *testing.T) {
	db := openTestDB(t)
	auth := NewAuth(db, "", testLogger())

	id, token, err := auth.Register("striker", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id == 0 || token == "" {
		t.Fatal("empty id or token")
	}

	if _, _, err := auth.Register("striker", "other"); err == nil {
		t.Error("duplicate username accepted")
	}
	if _, _, err := auth.Login("striker", "wrong", "1.2.3.4"); err == nil {
		t.Error("wrong password accepted")
	}

	id2, _, err := auth.Login("striker", "s3cret", "1.2.3.4")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if id2 != id {
		t.Errorf("login id = %d, want %d", id2, id)
	}

	pid, username, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if pid != id || username != "striker" {
		t.Errorf("claims = (%d, %q)", pid, username)
	}
	if _, _, err := auth.ValidateToken("garbage"); err == nil {
		t.Error("garbage token validated")
	}
}

func TestRegisterRejectsBadUsernames(t *testing.T) {
	db := openTestDB(t)
	auth := NewAuth(db, "", testLogger())

	for _, name := range []string{"x", "has space", "semi;colon", "waaaaaaaaaaaaaaaytoolong"} {
		if _, _, err := auth.Register(name, "s3cret"); err == nil {
			t.Errorf("username %q accepted", name)
		}
	}
	if _, _, err := auth.Register("ok_name3", "s3cret"); err != nil {
		t.Errorf("valid username rejected: %v", err)
	}
}

func TestGuestAccounts(t *testing.T) {
	db := openTestDB(t)
	auth := NewAuth(db, "", testLogger())

	id, username, token, err := auth.Guest()
	if err != nil {
		t.Fatalf("Guest: %v", err)
	}
	if id == 0 || token == "" || len(username) < len("Guest_") {
		t.Fatalf("guest = (%d, %q, %q)", id, username, token)
	}

	pid, usr, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("guest token invalid: %v", err)
	}
	if pid != id || usr != username {
		t.Errorf("guest claims = (%d, %q), want (%d, %q)", pid, usr, id, username)
	}

	// Guests hold stats like anyone else but stay off the leaderboard.
	if err := db.SaveStats(id, SoccerStats{Speed: 5, KickPower: 5, Dribbling: 5}); err != nil {
		t.Fatalf("guest SaveStats: %v", err)
	}
	db.UpdateMMR(id, 50, true)
	entries, err := db.Leaderboard(10)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Username == username {
			t.Error("guest appeared on the leaderboard")
		}
	}
}

func TestTokenSurvivesRestart(t *testing.T) {
	db := openTestDB(t)
	auth1 := NewAuth(db, "", testLogger())
	id, token, err := auth1.Register("keeper", "s3cret")
	if err != nil {
		t.Fatal(err)
	}

	// A second Auth over the same database loads the persisted secret.
	auth2 := NewAuth(db, "", testLogger())
	pid, _, err := auth2.ValidateToken(token)
	if err != nil {
		t.Fatalf("token rejected after restart: %v", err)
	}
	if pid != id {
		t.Errorf("subject = %d, want %d", pid, id)
	}
}

func TestLoginRateLimit(t *testing.T) {
	db := openTestDB(t)
	auth := NewAuth(db, "", testLogger())
	auth.Register("player", "s3cret")

	var lastErr error
	for i := 0; i < maxLoginAttempts+2; i++ {
		_, _, lastErr = auth.Login("player", "wrong", "9.9.9.9")
	}
	if lastErr == nil || lastErr.Error() != "too many login attempts, try again later" {
		t.Errorf("rate limit not applied: %v", lastErr)
	}
}
