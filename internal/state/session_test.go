package state

import (
	"testing"
	"time"
)

func TestCreateSession(t *testing.T) {
	db := setupTestDB(t)

	startedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	if err := db.CreateSession("agent-001", "fix the login bug", startedAt); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := db.Session("agent-001")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got == nil {
		t.Fatal("Session returned nil")
	}
	if got.ID != "agent-001" {
		t.Errorf("expected ID 'agent-001', got %q", got.ID)
	}
	if got.Prompt != "fix the login bug" {
		t.Errorf("expected prompt to round-trip, got %q", got.Prompt)
	}
	if got.Status != SessionActive {
		t.Errorf("expected status active, got %q", got.Status)
	}
	if !got.StartedAt.Equal(startedAt) {
		t.Errorf("expected started_at %v, got %v", startedAt, got.StartedAt)
	}
	if got.CompletedAt != nil {
		t.Errorf("expected nil completed_at, got %v", got.CompletedAt)
	}
}

func TestSessionNotFound(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.Session("agent-missing")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing session, got %+v", got)
	}
}

func TestRecordModel(t *testing.T) {
	db := setupTestDB(t)

	if err := db.CreateSession("agent-001", "task", time.Now()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := db.RecordModel("agent-001", "gpt-5.2-codex"); err != nil {
		t.Fatalf("RecordModel failed: %v", err)
	}

	got, err := db.Session("agent-001")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got.Model != "gpt-5.2-codex" {
		t.Errorf("expected model 'gpt-5.2-codex', got %q", got.Model)
	}
}

func TestTranscriptReassembly(t *testing.T) {
	db := setupTestDB(t)

	if err := db.CreateSession("agent-001", "task", time.Now()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	for _, delta := range []string{"Hel", "lo ", "world"} {
		if err := db.AppendCaption("agent-001", delta); err != nil {
			t.Fatalf("AppendCaption failed: %v", err)
		}
	}

	transcript, err := db.Transcript("agent-001")
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	if transcript != "Hello world" {
		t.Errorf("expected 'Hello world', got %q", transcript)
	}
}

func TestFileTouchesDeduplicated(t *testing.T) {
	db := setupTestDB(t)

	if err := db.CreateSession("agent-001", "task", time.Now()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	touches := []struct{ path, kind string }{
		{"main.go", "modified"},
		{"main.go", "modified"},
		{"go.mod", "read"},
		{"main.go", "read"},
	}
	for _, touch := range touches {
		if err := db.RecordFileTouch("agent-001", touch.path, touch.kind); err != nil {
			t.Fatalf("RecordFileTouch failed: %v", err)
		}
	}

	got, err := db.FileTouches("agent-001")
	if err != nil {
		t.Fatalf("FileTouches failed: %v", err)
	}
	want := []FileTouch{
		{Path: "main.go", Kind: "modified"},
		{Path: "go.mod", Kind: "read"},
		{Path: "main.go", Kind: "read"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d touches, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("touch %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRecordFollowUp(t *testing.T) {
	db := setupTestDB(t)

	if err := db.CreateSession("agent-001", "first task", time.Now()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := db.CompleteSession("agent-001", 2*time.Second); err != nil {
		t.Fatalf("CompleteSession failed: %v", err)
	}
	if err := db.RecordFollowUp("agent-001", "now do the next thing"); err != nil {
		t.Fatalf("RecordFollowUp failed: %v", err)
	}

	got, err := db.Session("agent-001")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got.Respawns != 1 {
		t.Errorf("expected 1 respawn, got %d", got.Respawns)
	}
	if got.Status != SessionActive {
		t.Errorf("expected follow-up to reactivate session, got %q", got.Status)
	}

	followUps, err := db.FollowUps("agent-001")
	if err != nil {
		t.Fatalf("FollowUps failed: %v", err)
	}
	if len(followUps) != 1 || followUps[0].Prompt != "now do the next thing" {
		t.Errorf("expected recorded follow-up, got %+v", followUps)
	}
}

func TestCompleteSession(t *testing.T) {
	db := setupTestDB(t)

	if err := db.CreateSession("agent-001", "task", time.Now()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := db.CompleteSession("agent-001", 1500*time.Millisecond); err != nil {
		t.Fatalf("CompleteSession failed: %v", err)
	}

	got, err := db.Session("agent-001")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got.Status != SessionCompleted {
		t.Errorf("expected status completed, got %q", got.Status)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("expected duration 1.5s, got %v", got.Duration)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestMarkDismissed(t *testing.T) {
	db := setupTestDB(t)

	if err := db.CreateSession("agent-001", "task", time.Now()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := db.MarkDismissed("agent-001"); err != nil {
		t.Fatalf("MarkDismissed failed: %v", err)
	}

	got, err := db.Session("agent-001")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got.Status != SessionDismissed {
		t.Errorf("expected status dismissed, got %q", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set on dismissal")
	}
}

func TestRecentSessionsNewestFirst(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		if err := db.CreateSession("agent-"+id, "task "+id, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	sessions, err := db.RecentSessions(3)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "agent-e" || sessions[1].ID != "agent-d" || sessions[2].ID != "agent-c" {
		t.Errorf("expected newest first, got %s, %s, %s", sessions[0].ID, sessions[1].ID, sessions[2].ID)
	}
}
