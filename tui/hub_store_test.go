package main

import "testing"

func openTestHubStore(t *testing.T) *hubStore {
	t.Helper()
	s, err := openHubStore(t.TempDir())
	if err != nil {
		t.Fatalf("openHubStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHubStoreRemembersDirectories(t *testing.T) {
	s := openTestHubStore(t)

	for _, dir := range []string{"/home/dev/projects", "/home/dev/experiments"} {
		if err := s.RememberDirectory(dir); err != nil {
			t.Fatalf("RememberDirectory(%q): %v", dir, err)
		}
	}
	// Re-remembering must not duplicate.
	if err := s.RememberDirectory("/home/dev/projects"); err != nil {
		t.Fatal(err)
	}

	dirs, err := s.Directories()
	if err != nil {
		t.Fatalf("Directories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("got %d directories, want 2: %v", len(dirs), dirs)
	}

	if err := s.ForgetDirectory("/home/dev/experiments"); err != nil {
		t.Fatal(err)
	}
	dirs, err = s.Directories()
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 1 || dirs[0] != "/home/dev/projects" {
		t.Fatalf("after forget: %v", dirs)
	}
}

func TestHubStoreIgnoresEmptyDirectory(t *testing.T) {
	s := openTestHubStore(t)
	if err := s.RememberDirectory("   "); err != nil {
		t.Fatal(err)
	}
	dirs, err := s.Directories()
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 0 {
		t.Fatalf("blank directory stored: %v", dirs)
	}
}

func TestHubStoreStageEventsInOrder(t *testing.T) {
	s := openTestHubStore(t)

	transitions := []struct{ from, to string }{
		{"initialized", "idea"},
		{"idea", "designed"},
		{"designed", "tech-spec-ready"},
	}
	for _, tr := range transitions {
		if err := s.RecordStageEvent("/projects/app", tr.from, tr.to); err != nil {
			t.Fatalf("RecordStageEvent(%s→%s): %v", tr.from, tr.to, err)
		}
	}
	if err := s.RecordStageEvent("/projects/other", "idea", "designed"); err != nil {
		t.Fatal(err)
	}

	events, err := s.StageEvents("/projects/app")
	if err != nil {
		t.Fatalf("StageEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, tr := range transitions {
		if events[i].FromStatus != tr.from || events[i].ToStatus != tr.to {
			t.Fatalf("event %d = %s→%s, want %s→%s",
				i, events[i].FromStatus, events[i].ToStatus, tr.from, tr.to)
		}
	}

	recent, err := s.RecentEvents(2)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("limit not applied: %d events", len(recent))
	}
}

func TestHubStoreSkipsBlankStageEvents(t *testing.T) {
	s := openTestHubStore(t)
	if err := s.RecordStageEvent("/projects/app", "idea", "  "); err != nil {
		t.Fatal(err)
	}
	events, err := s.StageEvents("/projects/app")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("blank transition stored: %+v", events)
	}
}
