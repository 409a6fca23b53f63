package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestProject(t *testing.T, root, name string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Join(path, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanFindsOnlyGitRepos(t *testing.T) {
	root := t.TempDir()
	newTestProject(t, root, "app-one")
	newTestProject(t, root, "app-two")
	if err := os.MkdirAll(filepath.Join(root, "not-a-repo"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray-file"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := &localBackend{configDir: t.TempDir()}
	projects, err := b.Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("found %d projects, want 2", len(projects))
	}
	for _, p := range projects {
		if p.ID == "" {
			t.Fatal("scan must mint an id")
		}
		if p.Status != "initialized" {
			t.Fatalf("default status = %q, want initialized", p.Status)
		}
	}
}

func TestScanMintsFreshIDs(t *testing.T) {
	root := t.TempDir()
	newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	first, err := b.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].ID == second[0].ID {
		t.Fatal("ids must differ between scans")
	}
	if first[0].Path != second[0].Path {
		t.Fatal("path is the durable key and must not change")
	}
}

func TestFeedbackLifecycle(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	item, err := b.AddFeedback(path, "crashes on save", 1)
	if err != nil {
		t.Fatalf("AddFeedback: %v", err)
	}
	if item.Status != feedbackStatusPending || item.CreatedAt == "" {
		t.Fatalf("bad defaults: %+v", item)
	}

	status := feedbackStatusCompleted
	completedAt := "2026-09-01T12:00:00Z"
	err = b.UpdateFeedback(path, item.ID, feedbackPatch{Status: &status, CompletedAt: &completedAt})
	if err != nil {
		t.Fatalf("UpdateFeedback: %v", err)
	}
	items, err := b.Feedback(path)
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Status != feedbackStatusCompleted || items[0].CompletedAt != completedAt {
		t.Fatalf("patch not applied: %+v", items[0])
	}

	if err := b.UpdateFeedback(path, "missing", feedbackPatch{Status: &status}); !errors.Is(err, errFeedbackNotFound) {
		t.Fatalf("update missing id: %v", err)
	}
	// Delete of a missing id is silent.
	if err := b.DeleteFeedback(path, "missing"); err != nil {
		t.Fatalf("delete missing id: %v", err)
	}
	if err := b.DeleteFeedback(path, item.ID); err != nil {
		t.Fatalf("DeleteFeedback: %v", err)
	}
	items, err = b.Feedback(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("ledger not empty after delete: %+v", items)
	}
}

func TestFeedbackSortedByPriority(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	for _, priority := range []int{4, 1, 3} {
		if _, err := b.AddFeedback(path, "item", priority); err != nil {
			t.Fatal(err)
		}
	}
	items, err := b.Feedback(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 3, 4}
	for i, item := range items {
		if item.Priority != want[i] {
			t.Fatalf("position %d: priority %d, want %d", i, item.Priority, want[i])
		}
	}
}

func TestAddFeedbackRejectsBadPriority(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	for _, priority := range []int{0, 6, -1} {
		if _, err := b.AddFeedback(path, "x", priority); err == nil {
			t.Errorf("priority %d accepted", priority)
		}
	}
}

func TestArchiveFeedbackAndDanglingLinkCleanup(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	item, err := b.AddFeedback(path, "refine me", 2)
	if err != nil {
		t.Fatal(err)
	}
	created, err := b.AddIssue(path, issue{Title: "the issue", OriginalFeedbackID: item.ID, Priority: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ArchiveFeedback(path, item.ID, []string{created.ID}); err != nil {
		t.Fatalf("ArchiveFeedback: %v", err)
	}

	active, err := b.Feedback(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatal("archived item still active")
	}
	archived, err := b.ArchivedFeedback(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 || archived[0].RefinedIntoIssueIDs[0] != created.ID {
		t.Fatalf("archive contents: %+v", archived)
	}

	// Deleting the issue removes the refined-into link from the archive.
	if err := b.DeleteIssue(path, created.ID); err != nil {
		t.Fatalf("DeleteIssue: %v", err)
	}
	archived, err = b.ArchivedFeedback(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived[0].RefinedIntoIssueIDs) != 0 {
		t.Fatalf("dangling link survived: %+v", archived[0])
	}
}

func TestArchiveFeedbackMissingID(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	if err := b.ArchiveFeedback(path, "missing", nil); !errors.Is(err, errFeedbackNotFound) {
		t.Fatalf("expected errFeedbackNotFound, got %v", err)
	}
}

func TestAddIssueDefaults(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	created, err := b.AddIssue(path, issue{Title: "no status or complexity", Priority: 2})
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != issueStatusPending {
		t.Fatalf("status = %q, want pending", created.Status)
	}
	if created.Complexity != 3 {
		t.Fatalf("complexity = %d, want 3", created.Complexity)
	}
	if created.ID == "" || created.CreatedAt == "" {
		t.Fatalf("missing id or timestamp: %+v", created)
	}
}

func TestUpdateProjectStatusValidation(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	if err := b.UpdateProjectStatus(path, "not-a-status"); err == nil {
		t.Fatal("unknown status accepted")
	}
	if err := b.UpdateProjectStatus(path, "idea"); err != nil {
		t.Fatalf("valid status rejected: %v", err)
	}
	detail, err := b.ProjectDetail(path)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Status != "idea" {
		t.Fatalf("status = %q, want idea", detail.Status)
	}
}

func TestSaveProjectIdeaWritesDocAndBumpsStatus(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	idea := projectIdea{
		Summary:           "A tiny app",
		Problem:           "Too much friction",
		CoreFunctionality: "One button",
		ValueProposition:  "Less friction",
	}
	if err := b.SaveProjectIdea(path, idea); err != nil {
		t.Fatalf("SaveProjectIdea: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(path, filepath.FromSlash(ideaDoc)))
	if err != nil {
		t.Fatalf("idea doc not written: %v", err)
	}
	for _, section := range []string{"## Summary", "## Problem", "## Core Functionality", "## Value Proposition"} {
		if !strings.Contains(string(data), section) {
			t.Errorf("idea doc missing %q", section)
		}
	}
	detail, err := b.ProjectDetail(path)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Status != "idea" {
		t.Fatalf("status = %q, want idea after saving the pitch", detail.Status)
	}

	// Saving again at a later stage must not regress the status.
	if err := b.UpdateProjectStatus(path, "designed"); err != nil {
		t.Fatal(err)
	}
	if err := b.SaveProjectIdea(path, idea); err != nil {
		t.Fatal(err)
	}
	detail, _ = b.ProjectDetail(path)
	if detail.Status != "designed" {
		t.Fatalf("status regressed to %q", detail.Status)
	}
}

func TestAssignColorIfMissingIsStableAndPersisted(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	first, err := b.AssignColorIfMissing(path)
	if err != nil {
		t.Fatalf("AssignColorIfMissing: %v", err)
	}
	if first == "" {
		t.Fatal("no color assigned")
	}
	second, err := b.AssignColorIfMissing(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("color changed between calls: %q vs %q", first, second)
	}
	detail, err := b.ProjectDetail(path)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Color != first || detail.TextColor == "" {
		t.Fatalf("color not persisted: %+v", detail)
	}
}

func TestSettingsRoundTripAndDefaults(t *testing.T) {
	b := &localBackend{configDir: t.TempDir()}

	got, err := b.Settings()
	if err != nil {
		t.Fatalf("Settings with no file: %v", err)
	}
	if !got.SoundEffectsEnabled {
		t.Fatal("defaults should enable sound effects")
	}

	got.ProjectsDirectory = "/somewhere"
	got.SoundEffectsEnabled = false
	if err := b.UpdateSettings(got); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	reread, err := b.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if reread.ProjectsDirectory != "/somewhere" || reread.SoundEffectsEnabled {
		t.Fatalf("settings did not round-trip: %+v", reread)
	}
}

func TestSessionStatusWithoutSessionFile(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	info, err := b.SessionStatus(path)
	if err != nil {
		t.Fatalf("SessionStatus: %v", err)
	}
	if info.State != sessionNotStarted {
		t.Fatalf("state = %q, want not_started", info.State)
	}
}

func TestSessionStatusReportsLiveAndDeadPids(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}

	// Our own pid is definitely alive.
	rec := sessionRecord{PID: os.Getpid(), StartedAt: "2026-09-01T10:00:00Z"}
	if err := writeJSONFile(sessionFilePath(path), rec); err != nil {
		t.Fatal(err)
	}
	info, err := b.SessionStatus(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.State != sessionRunning {
		t.Fatalf("state = %q, want running", info.State)
	}

	rec.PID = 1 << 30 // far outside any real pid range
	if err := writeJSONFile(sessionFilePath(path), rec); err != nil {
		t.Fatal(err)
	}
	info, err = b.SessionStatus(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.State != sessionIdle {
		t.Fatalf("state = %q, want idle", info.State)
	}
}

func TestListStageDocs(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")

	if got := listStageDocs(path); len(got) != 0 {
		t.Fatalf("no docs expected, got %+v", got)
	}
	vibe := filepath.Join(path, vibeDir)
	if err := os.MkdirAll(vibe, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vibe, "idea.md"), []byte("# Idea"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vibe, "design-spec.md"), []byte("# Design"), 0o644); err != nil {
		t.Fatal(err)
	}

	docs := listStageDocs(path)
	if len(docs) != 2 {
		t.Fatalf("found %d docs, want 2", len(docs))
	}
	content, err := loadStageDoc(path, docs[0])
	if err != nil {
		t.Fatalf("loadStageDoc: %v", err)
	}
	if content != "# Idea" {
		t.Fatalf("content = %q", content)
	}
}

func TestUpdateProjectMetadataKeepsStatus(t *testing.T) {
	root := t.TempDir()
	path := newTestProject(t, root, "app")
	b := &localBackend{configDir: t.TempDir()}
	if err := b.UpdateProjectStatus(path, "designed"); err != nil {
		t.Fatal(err)
	}

	meta := projectMetadata{
		Description:   "A tiny habit tracker",
		TechStack:     []string{"Go", "SQLite"},
		DeploymentURL: "https://example.com",
	}
	if err := b.UpdateProjectMetadata(path, meta); err != nil {
		t.Fatalf("UpdateProjectMetadata: %v", err)
	}

	p, err := b.ProjectDetail(path)
	if err != nil {
		t.Fatalf("ProjectDetail: %v", err)
	}
	if p.Description != meta.Description || p.DeploymentURL != meta.DeploymentURL {
		t.Fatalf("metadata not persisted: %+v", p)
	}
	if strings.Join(p.TechStack, ", ") != "Go, SQLite" {
		t.Fatalf("tech stack not persisted: %v", p.TechStack)
	}
	if p.Status != "designed" {
		t.Fatalf("status changed to %q", p.Status)
	}
}
