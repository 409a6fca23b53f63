package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"
)

// fakeBackend keeps everything in memory and mints a fresh id on every
// scan, matching the real backend's id semantics.
type fakeBackend struct {
	projects map[string]project
	feedback map[string][]feedbackItem
	archived map[string][]feedbackItem
	issues   map[string][]issue
	config   settings

	scanErr     error
	feedbackErr error
	issuesErr   error
	archivedErr error
	colorErr    error

	idSeq       int
	colorCalls  int
	detailCalls int
}

func newFakeBackend(paths ...string) *fakeBackend {
	b := &fakeBackend{
		projects: map[string]project{},
		feedback: map[string][]feedbackItem{},
		archived: map[string][]feedbackItem{},
		issues:   map[string][]issue{},
		config:   settings{ProjectsDirectory: "/projects"},
	}
	for _, path := range paths {
		b.projects[path] = project{Name: path, Path: path, Status: "deployed"}
	}
	return b
}

func (b *fakeBackend) nextID() string {
	b.idSeq++
	return fmt.Sprintf("id-%d", b.idSeq)
}

func (b *fakeBackend) Scan(projectsDir string) ([]project, error) {
	if b.scanErr != nil {
		return nil, b.scanErr
	}
	var out []project
	for _, p := range b.projects {
		p.ID = b.nextID()
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (b *fakeBackend) ProjectDetail(projectPath string) (project, error) {
	b.detailCalls++
	p, ok := b.projects[projectPath]
	if !ok {
		return project{}, errProjectNotFound
	}
	p.ID = b.nextID()
	return p, nil
}

func (b *fakeBackend) CreateProject(projectsDir, projectName string) (string, error) {
	path := projectsDir + "/" + projectName
	b.projects[path] = project{Name: projectName, Path: path, Status: "initialized"}
	return path, nil
}

func (b *fakeBackend) SaveProjectIdea(projectPath string, idea projectIdea) error {
	p := b.projects[projectPath]
	if p.Status == "initialized" {
		p.Status = "idea"
		b.projects[projectPath] = p
	}
	return nil
}

func (b *fakeBackend) UpdateProjectMetadata(projectPath string, meta projectMetadata) error {
	p := b.projects[projectPath]
	p.Description = meta.Description
	p.TechStack = meta.TechStack
	p.DeploymentURL = meta.DeploymentURL
	b.projects[projectPath] = p
	return nil
}

func (b *fakeBackend) UpdateProjectStatus(projectPath, newStatus string) error {
	if !knownStatus(newStatus) {
		return fmt.Errorf("unknown status %q", newStatus)
	}
	p := b.projects[projectPath]
	p.Status = newStatus
	b.projects[projectPath] = p
	return nil
}

func (b *fakeBackend) AssignColorIfMissing(projectPath string) (string, error) {
	b.colorCalls++
	if b.colorErr != nil {
		return "", b.colorErr
	}
	p := b.projects[projectPath]
	if p.Color == "" {
		p.Color = "#ff6ac1"
		b.projects[projectPath] = p
	}
	return p.Color, nil
}

func (b *fakeBackend) Feedback(projectPath string) ([]feedbackItem, error) {
	if b.feedbackErr != nil {
		return nil, b.feedbackErr
	}
	items := append([]feedbackItem(nil), b.feedback[projectPath]...)
	sortFeedback(items)
	return items, nil
}

func (b *fakeBackend) AddFeedback(projectPath string, text string, priority int) (feedbackItem, error) {
	item := feedbackItem{
		ID:        b.nextID(),
		Text:      text,
		Priority:  priority,
		Status:    feedbackStatusPending,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	b.feedback[projectPath] = append(b.feedback[projectPath], item)
	return item, nil
}

func (b *fakeBackend) UpdateFeedback(projectPath, feedbackID string, patch feedbackPatch) error {
	items := b.feedback[projectPath]
	for i := range items {
		if items[i].ID == feedbackID {
			applyFeedbackPatch(&items[i], patch)
			return nil
		}
	}
	return errFeedbackNotFound
}

func (b *fakeBackend) DeleteFeedback(projectPath, feedbackID string) error {
	items := b.feedback[projectPath]
	kept := items[:0]
	for _, item := range items {
		if item.ID != feedbackID {
			kept = append(kept, item)
		}
	}
	b.feedback[projectPath] = kept
	return nil
}

func (b *fakeBackend) ArchivedFeedback(projectPath string) ([]feedbackItem, error) {
	if b.archivedErr != nil {
		return nil, b.archivedErr
	}
	return append([]feedbackItem(nil), b.archived[projectPath]...), nil
}

func (b *fakeBackend) ArchiveFeedback(projectPath, feedbackID string, refinedInto []string) error {
	items := b.feedback[projectPath]
	kept := items[:0]
	for _, item := range items {
		if item.ID == feedbackID {
			item.RefinedIntoIssueIDs = refinedInto
			b.archived[projectPath] = append(b.archived[projectPath], item)
			continue
		}
		kept = append(kept, item)
	}
	b.feedback[projectPath] = kept
	return nil
}

func (b *fakeBackend) Issues(projectPath string) ([]issue, error) {
	if b.issuesErr != nil {
		return nil, b.issuesErr
	}
	return append([]issue(nil), b.issues[projectPath]...), nil
}

func (b *fakeBackend) AddIssue(projectPath string, newIssue issue) (issue, error) {
	newIssue.ID = b.nextID()
	if newIssue.Status == "" {
		newIssue.Status = issueStatusPending
	}
	b.issues[projectPath] = append(b.issues[projectPath], newIssue)
	return newIssue, nil
}

func (b *fakeBackend) UpdateIssue(projectPath, issueID string, patch issuePatch) error {
	items := b.issues[projectPath]
	for i := range items {
		if items[i].ID == issueID {
			applyIssuePatch(&items[i], patch)
			return nil
		}
	}
	return errIssueNotFound
}

func (b *fakeBackend) DeleteIssue(projectPath, issueID string) error {
	items := b.issues[projectPath]
	kept := items[:0]
	for _, item := range items {
		if item.ID != issueID {
			kept = append(kept, item)
		}
	}
	b.issues[projectPath] = kept
	return nil
}

func (b *fakeBackend) Settings() (settings, error) {
	return b.config, nil
}

func (b *fakeBackend) UpdateSettings(s settings) error {
	b.config = s
	return nil
}

func (b *fakeBackend) Prompt(name string, replacements map[string]string) (string, error) {
	return "prompt:" + name, nil
}

func (b *fakeBackend) SessionStatus(projectPath string) (sessionInfo, error) {
	return sessionInfo{State: sessionNotStarted}, nil
}

func (b *fakeBackend) LaunchAssistant(projectPath, prompt string) error { return nil }
func (b *fakeBackend) OpenInExplorer(projectPath string) error         { return nil }
func (b *fakeBackend) OpenURL(url string) error                        { return nil }

func newTestStore(t *testing.T, b *fakeBackend) *projectStore {
	t.Helper()
	s := newProjectStore(b)
	if err := s.LoadSettings(); err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	return s
}

func openProject(t *testing.T, s *projectStore, path string) project {
	t.Helper()
	if err := s.LoadProjects(); err != nil {
		t.Fatalf("LoadProjects: %v", err)
	}
	for _, p := range s.Projects() {
		if p.Path == path {
			if err := s.SetCurrentProject(p.ID); err != nil {
				t.Fatalf("SetCurrentProject: %v", err)
			}
			return p
		}
	}
	t.Fatalf("project %s not scanned", path)
	return project{}
}

func TestLoadProjectsEmptyDirectoryIsNotAnError(t *testing.T) {
	b := newFakeBackend("/projects/app")
	s := newTestStore(t, b)
	s.settings.ProjectsDirectory = ""

	if err := s.LoadProjects(); err != nil {
		t.Fatalf("LoadProjects with empty directory: %v", err)
	}
	if got := s.Projects(); len(got) != 0 {
		t.Fatalf("expected no projects, got %d", len(got))
	}
	if s.LastError() != "" {
		t.Fatalf("unexpected error state: %q", s.LastError())
	}
}

func TestLoadProjectsSwallowsColorFailures(t *testing.T) {
	b := newFakeBackend("/projects/a", "/projects/b")
	b.colorErr = errors.New("disk full")
	s := newTestStore(t, b)

	if err := s.LoadProjects(); err != nil {
		t.Fatalf("LoadProjects: %v", err)
	}
	if got := len(s.Projects()); got != 2 {
		t.Fatalf("expected 2 projects despite color failures, got %d", got)
	}
	if b.colorCalls != 2 {
		t.Fatalf("expected a color attempt per project, got %d", b.colorCalls)
	}
}

func TestLoadProjectsRecordsScanError(t *testing.T) {
	b := newFakeBackend("/projects/a")
	b.scanErr = errors.New("permission denied")
	s := newTestStore(t, b)

	if err := s.LoadProjects(); err == nil {
		t.Fatal("expected scan error")
	}
	if s.LastError() == "" {
		t.Fatal("scan failure should set the store error")
	}
	if s.Loading() {
		t.Fatal("loading flag should clear on failure")
	}
}

func TestSetCurrentProjectStaleIDLeavesSelectionUnchanged(t *testing.T) {
	b := newFakeBackend("/projects/a", "/projects/b")
	s := newTestStore(t, b)
	opened := openProject(t, s, "/projects/a")

	if err := s.SetCurrentProject("id-does-not-exist"); !errors.Is(err, errProjectNotFound) {
		t.Fatalf("expected errProjectNotFound, got %v", err)
	}
	current, ok := s.CurrentProject()
	if !ok {
		t.Fatal("current project should survive a failed switch")
	}
	if current.ID != opened.ID {
		t.Fatalf("current project changed: got %s, want %s", current.ID, opened.ID)
	}
	if s.LastError() == "" {
		t.Fatal("failed switch should set the store error")
	}
}

func TestSetCurrentProjectCommitsAllOrNothing(t *testing.T) {
	b := newFakeBackend("/projects/a", "/projects/b")
	b.feedback["/projects/a"] = []feedbackItem{{ID: "f1", Priority: 1, Status: feedbackStatusPending}}
	s := newTestStore(t, b)
	openProject(t, s, "/projects/a")

	b.issuesErr = errors.New("issues.json corrupted")
	var otherID string
	for _, p := range s.Projects() {
		if p.Path == "/projects/b" {
			otherID = p.ID
		}
	}
	if err := s.SetCurrentProject(otherID); err == nil {
		t.Fatal("expected switch to fail when one fetch fails")
	}

	current, _ := s.CurrentProject()
	if current.Path != "/projects/a" {
		t.Fatalf("selection moved to %s on a failed switch", current.Path)
	}
	if got := s.Feedback(); len(got) != 1 || got[0].ID != "f1" {
		t.Fatalf("feedback was partially replaced: %+v", got)
	}
}

func TestRefreshProjectPreservesKnownID(t *testing.T) {
	b := newFakeBackend("/projects/a")
	s := newTestStore(t, b)
	opened := openProject(t, s, "/projects/a")

	p := b.projects["/projects/a"]
	p.Description = "now with a description"
	b.projects["/projects/a"] = p

	s.RefreshProject(opened.ID)

	current, _ := s.CurrentProject()
	if current.ID != opened.ID {
		t.Fatalf("refresh replaced the id: got %s, want %s", current.ID, opened.ID)
	}
	if current.Description != "now with a description" {
		t.Fatalf("refresh did not pick up backend changes: %+v", current)
	}
	for _, listed := range s.Projects() {
		if listed.Path == "/projects/a" && listed.ID != opened.ID {
			t.Fatalf("list entry lost the id: %s", listed.ID)
		}
	}
}

func TestRefreshProjectUnknownIDIsNoOp(t *testing.T) {
	b := newFakeBackend("/projects/a")
	s := newTestStore(t, b)
	openProject(t, s, "/projects/a")

	before := b.detailCalls
	s.RefreshProject("id-unknown")
	if b.detailCalls != before {
		t.Fatal("unknown id should not reach the backend")
	}
}

func TestToggleFeedbackCompleteRoundTrip(t *testing.T) {
	b := newFakeBackend("/projects/a")
	s := newTestStore(t, b)
	openProject(t, s, "/projects/a")

	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.AddFeedback("/projects/a", "fix the login flow", 2); err != nil {
		t.Fatalf("AddFeedback: %v", err)
	}
	id := s.Feedback()[0].ID

	if err := s.ToggleFeedbackComplete("/projects/a", id); err != nil {
		t.Fatalf("toggle to completed: %v", err)
	}
	item := s.Feedback()[0]
	if item.Status != feedbackStatusCompleted {
		t.Fatalf("status = %q, want completed", item.Status)
	}
	if item.CompletedAt != fixed.Format(time.RFC3339) {
		t.Fatalf("completedAt = %q, want %q", item.CompletedAt, fixed.Format(time.RFC3339))
	}

	if err := s.ToggleFeedbackComplete("/projects/a", id); err != nil {
		t.Fatalf("toggle back to pending: %v", err)
	}
	item = s.Feedback()[0]
	if item.Status != feedbackStatusPending {
		t.Fatalf("status = %q, want pending", item.Status)
	}
	if item.CompletedAt != "" {
		t.Fatalf("completedAt should be cleared, got %q", item.CompletedAt)
	}
}

func TestToggleFeedbackCompleteMissingIDIsNoOp(t *testing.T) {
	b := newFakeBackend("/projects/a")
	s := newTestStore(t, b)
	openProject(t, s, "/projects/a")

	if err := s.ToggleFeedbackComplete("/projects/a", "missing"); err != nil {
		t.Fatalf("missing id should be a silent no-op, got %v", err)
	}
}

func TestFeedbackStaysSortedByPriority(t *testing.T) {
	b := newFakeBackend("/projects/a")
	s := newTestStore(t, b)
	openProject(t, s, "/projects/a")

	for _, f := range []struct {
		text     string
		priority int
	}{
		{"polish animations", 5},
		{"crash on startup", 1},
		{"slow search", 3},
	} {
		if err := s.AddFeedback("/projects/a", f.text, f.priority); err != nil {
			t.Fatalf("AddFeedback(%q): %v", f.text, err)
		}
	}

	got := s.Feedback()
	want := []int{1, 3, 5}
	for i, item := range got {
		if item.Priority != want[i] {
			t.Fatalf("position %d has priority %d, want %d", i, item.Priority, want[i])
		}
	}

	// Bumping an item re-sorts the list.
	id := got[2].ID
	priority := 2
	if err := s.UpdateFeedback("/projects/a", id, feedbackPatch{Priority: &priority}); err != nil {
		t.Fatalf("UpdateFeedback: %v", err)
	}
	got = s.Feedback()
	if got[1].ID != id {
		t.Fatalf("updated item should move to position 1, got order %+v", got)
	}
}

func TestDeleteFeedbackMissingIDIsNoOp(t *testing.T) {
	b := newFakeBackend("/projects/a")
	s := newTestStore(t, b)
	openProject(t, s, "/projects/a")

	if err := s.AddFeedback("/projects/a", "keep me", 3); err != nil {
		t.Fatalf("AddFeedback: %v", err)
	}
	if err := s.DeleteFeedback("/projects/a", "missing"); err != nil {
		t.Fatalf("delete missing id: %v", err)
	}
	if got := len(s.Feedback()); got != 1 {
		t.Fatalf("feedback count changed: %d", got)
	}
}

func TestFeedbackMutationsKeepPendingCountInStep(t *testing.T) {
	b := newFakeBackend("/projects/a")
	s := newTestStore(t, b)
	openProject(t, s, "/projects/a")

	if err := s.AddFeedback("/projects/a", "one", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.AddFeedback("/projects/a", "two", 2); err != nil {
		t.Fatal(err)
	}
	current, _ := s.CurrentProject()
	if current.FeedbackCount != 2 {
		t.Fatalf("pending count = %d, want 2", current.FeedbackCount)
	}

	id := s.Feedback()[0].ID
	if err := s.ToggleFeedbackComplete("/projects/a", id); err != nil {
		t.Fatal(err)
	}
	current, _ = s.CurrentProject()
	if current.FeedbackCount != 1 {
		t.Fatalf("pending count after toggle = %d, want 1", current.FeedbackCount)
	}
}

func TestArchiveFeedbackMovesItemAndRecordsLinks(t *testing.T) {
	b := newFakeBackend("/projects/a")
	s := newTestStore(t, b)
	openProject(t, s, "/projects/a")

	if err := s.AddFeedback("/projects/a", "refine me", 2); err != nil {
		t.Fatal(err)
	}
	id := s.Feedback()[0].ID

	if err := s.ArchiveFeedback("/projects/a", id, []string{"issue-1", "issue-2"}); err != nil {
		t.Fatalf("ArchiveFeedback: %v", err)
	}
	if got := len(s.Feedback()); got != 0 {
		t.Fatalf("item still in active ledger: %d", got)
	}
	archived := s.ArchivedFeedback()
	if len(archived) != 1 {
		t.Fatalf("archive length = %d, want 1", len(archived))
	}
	if len(archived[0].RefinedIntoIssueIDs) != 2 {
		t.Fatalf("refined links = %v", archived[0].RefinedIntoIssueIDs)
	}
}

func TestCreateProjectReturnsFreshScanID(t *testing.T) {
	b := newFakeBackend("/projects/a")
	s := newTestStore(t, b)
	if err := s.LoadProjects(); err != nil {
		t.Fatal(err)
	}

	id, err := s.CreateProject("new-app")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	found := false
	for _, p := range s.Projects() {
		if p.ID == id {
			found = true
			if p.Path != "/projects/new-app" {
				t.Fatalf("id resolves to %s", p.Path)
			}
		}
	}
	if !found {
		t.Fatalf("returned id %s not present in the reloaded list", id)
	}
}

func TestCreateProjectRequiresDirectory(t *testing.T) {
	b := newFakeBackend()
	s := newTestStore(t, b)
	s.settings.ProjectsDirectory = ""

	if _, err := s.CreateProject("app"); !errors.Is(err, errNoProjectsDirectory) {
		t.Fatalf("expected errNoProjectsDirectory, got %v", err)
	}
}

func TestAdvanceStageMovesAlongThePipeline(t *testing.T) {
	b := newFakeBackend("/projects/a")
	p := b.projects["/projects/a"]
	p.Status = "deployment"
	b.projects["/projects/a"] = p

	s := newTestStore(t, b)
	opened := openProject(t, s, "/projects/a")

	if err := s.AdvanceStage(opened.ID); err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	current, _ := s.CurrentProject()
	if current.Status != "deployed" {
		t.Fatalf("status = %q, want deployed", current.Status)
	}

	// Terminal status: advancing again is a no-op.
	if err := s.AdvanceStage(opened.ID); err != nil {
		t.Fatalf("advance at terminal status: %v", err)
	}
	current, _ = s.CurrentProject()
	if current.Status != "deployed" {
		t.Fatalf("terminal status changed to %q", current.Status)
	}
}

func TestUpdateProjectMetadataRefreshesCurrentProject(t *testing.T) {
	b := newFakeBackend("/projects/a")
	s := newTestStore(t, b)
	openProject(t, s, "/projects/a")

	meta := projectMetadata{
		Description:   "A tiny habit tracker",
		TechStack:     []string{"Go", "SQLite"},
		DeploymentURL: "https://example.com",
	}
	if err := s.UpdateProjectMetadata("/projects/a", meta); err != nil {
		t.Fatalf("UpdateProjectMetadata: %v", err)
	}

	current, ok := s.CurrentProject()
	if !ok {
		t.Fatal("current project lost after metadata update")
	}
	if current.Description != meta.Description {
		t.Fatalf("description = %q, want %q", current.Description, meta.Description)
	}
	if strings.Join(current.TechStack, ", ") != "Go, SQLite" || current.DeploymentURL != meta.DeploymentURL {
		t.Fatalf("metadata not refreshed: %+v", current)
	}
}
