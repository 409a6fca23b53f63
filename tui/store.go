package main

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// projectStore is the in-memory view of projects, the selected project's
// feedback ledger, and its issues. The backend owns the durable state and
// can change underneath us (direct file edits, git operations, external
// sync); every mutation here is confirm-then-apply: call the backend first,
// only touch memory once the write is acknowledged. No rollback path exists
// because nothing is applied before confirmation.
//
// Concurrency model: one mutex guards the snapshot. Backend calls from two
// goroutines may still resolve in either order and the last write wins on
// the in-memory copy; callers that care about ordering serialize their own
// edits. That limitation is deliberate.
type projectStore struct {
	backend backend

	mu               sync.Mutex
	settings         settings
	projects         []project
	currentProject   *project
	feedback         []feedbackItem
	archivedFeedback []feedbackItem
	issues           []issue
	loading          bool
	lastError        string

	now  func() time.Time
	logf func(format string, args ...any)
}

func newProjectStore(b backend) *projectStore {
	return &projectStore{
		backend: b,
		now:     time.Now,
		logf:    func(string, ...any) {},
	}
}

// LoadSettings populates the process-wide settings singleton. Called once
// at startup; later changes go through SaveSettings with the full object.
func (s *projectStore) LoadSettings() error {
	loaded, err := s.backend.Settings()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()
	return nil
}

func (s *projectStore) SaveSettings(updated settings) error {
	if err := s.backend.UpdateSettings(updated); err != nil {
		return err
	}
	s.mu.Lock()
	s.settings = updated
	s.mu.Unlock()
	return nil
}

func (s *projectStore) Settings() settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *projectStore) Projects() []project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]project(nil), s.projects...)
}

func (s *projectStore) CurrentProject() (project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentProject == nil {
		return project{}, false
	}
	return *s.currentProject, true
}

func (s *projectStore) Feedback() []feedbackItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feedbackItem(nil), s.feedback...)
}

func (s *projectStore) ArchivedFeedback() []feedbackItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feedbackItem(nil), s.archivedFeedback...)
}

func (s *projectStore) Issues() []issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]issue(nil), s.issues...)
}

func (s *projectStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *projectStore) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// LoadProjects replaces the whole project list from a fresh scan. A missing
// projects directory is not an error: the hub simply has nothing to show
// yet. Concurrent calls are not deduplicated; the last one to finish wins,
// including a stale in-flight load overwriting a newer one.
func (s *projectStore) LoadProjects() error {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	dir := s.settings.ProjectsDirectory
	s.mu.Unlock()

	if dir == "" {
		s.mu.Lock()
		s.projects = nil
		s.loading = false
		s.mu.Unlock()
		return nil
	}

	projects, err := s.backend.Scan(dir)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.loading = false
		s.mu.Unlock()
		return err
	}

	for i := range projects {
		if projects[i].Color != "" {
			continue
		}
		color, err := s.backend.AssignColorIfMissing(projects[i].Path)
		if err != nil {
			s.logf("color assignment failed for %s: %v", projects[i].Name, err)
			continue
		}
		projects[i].Color = color
	}

	s.mu.Lock()
	s.projects = projects
	s.loading = false
	s.mu.Unlock()
	return nil
}

// CreateProject delegates creation to the backend, reloads the full list,
// and resolves the new project by path. Ids are minted per scan, so the
// returned id is only valid against the list just loaded.
func (s *projectStore) CreateProject(name string) (string, error) {
	s.mu.Lock()
	dir := s.settings.ProjectsDirectory
	s.mu.Unlock()
	if dir == "" {
		return "", errNoProjectsDirectory
	}

	path, err := s.backend.CreateProject(dir, name)
	if err != nil {
		return "", err
	}
	if err := s.LoadProjects(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.Path == path {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", errProjectNotFound, path)
}

// SetCurrentProject selects a project by id from the list already in
// memory; it never re-scans. The feedback ledger, issues and archive are
// fetched concurrently and committed together: the UI either sees the old
// selection or the complete new one, never a partial swap. A stale id is a
// hard failure because no detail view can be shown for it.
func (s *projectStore) SetCurrentProject(id string) error {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	var selected *project
	for i := range s.projects {
		if s.projects[i].ID == id {
			p := s.projects[i]
			selected = &p
			break
		}
	}
	s.mu.Unlock()

	if selected == nil {
		s.mu.Lock()
		s.lastError = errProjectNotFound.Error()
		s.loading = false
		s.mu.Unlock()
		return errProjectNotFound
	}

	var (
		wg       sync.WaitGroup
		feedback []feedbackItem
		issues   []issue
		archived []feedbackItem
		errs     [3]error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		feedback, errs[0] = s.backend.Feedback(selected.Path)
	}()
	go func() {
		defer wg.Done()
		issues, errs[1] = s.backend.Issues(selected.Path)
	}()
	go func() {
		defer wg.Done()
		archived, errs[2] = s.backend.ArchivedFeedback(selected.Path)
	}()
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			s.mu.Lock()
			s.lastError = err.Error()
			s.loading = false
			s.mu.Unlock()
			return err
		}
	}

	s.mu.Lock()
	s.currentProject = selected
	s.feedback = feedback
	s.issues = issues
	s.archivedFeedback = archived
	s.loading = false
	s.mu.Unlock()
	return nil
}

// RefreshProject re-fetches one project's detail record by path and splices
// it back into the list. The freshly fetched record carries a brand-new id;
// the previously known id is forced back onto it so routes and UI keys
// keep resolving. Best-effort: every failure is swallowed.
func (s *projectStore) RefreshProject(id string) {
	s.mu.Lock()
	var known *project
	for i := range s.projects {
		if s.projects[i].ID == id {
			p := s.projects[i]
			known = &p
			break
		}
	}
	s.mu.Unlock()
	if known == nil {
		return
	}

	detail, err := s.backend.ProjectDetail(known.Path)
	if err != nil {
		s.logf("refresh failed for %s: %v", known.Path, err)
		return
	}
	detail.ID = known.ID

	s.mu.Lock()
	for i := range s.projects {
		if s.projects[i].Path == known.Path {
			s.projects[i] = detail
		}
	}
	isCurrent := s.currentProject != nil && s.currentProject.Path == known.Path
	s.mu.Unlock()

	if !isCurrent {
		return
	}
	feedback, err := s.backend.Feedback(detail.Path)
	if err != nil {
		s.logf("feedback reload failed for %s: %v", detail.Path, err)
		return
	}
	s.mu.Lock()
	s.currentProject = &detail
	s.feedback = feedback
	s.mu.Unlock()
}

// SaveProjectIdea persists the structured pitch and reflects the resulting
// status change (initialized -> idea) through a full reload.
func (s *projectStore) SaveProjectIdea(projectPath string, idea projectIdea) error {
	if err := s.backend.SaveProjectIdea(projectPath, idea); err != nil {
		return err
	}
	if err := s.LoadProjects(); err != nil {
		return err
	}

	s.mu.Lock()
	isCurrent := s.currentProject != nil && s.currentProject.Path == projectPath
	var updated *project
	for i := range s.projects {
		if s.projects[i].Path == projectPath {
			p := s.projects[i]
			updated = &p
			break
		}
	}
	s.mu.Unlock()

	if !isCurrent || updated == nil {
		return nil
	}
	feedback, err := s.backend.Feedback(projectPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.currentProject = updated
	s.feedback = feedback
	s.mu.Unlock()
	return nil
}

func (s *projectStore) UpdateProjectMetadata(projectPath string, meta projectMetadata) error {
	if err := s.backend.UpdateProjectMetadata(projectPath, meta); err != nil {
		return err
	}
	s.mu.Lock()
	var currentID string
	if s.currentProject != nil {
		currentID = s.currentProject.ID
	}
	s.mu.Unlock()
	if currentID != "" {
		s.RefreshProject(currentID)
	}
	return nil
}

// AdvanceStage moves a project to the next pipeline status and refreshes
// its record. No-op for the terminal status.
func (s *projectStore) AdvanceStage(id string) error {
	s.mu.Lock()
	var target *project
	for i := range s.projects {
		if s.projects[i].ID == id {
			p := s.projects[i]
			target = &p
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return errProjectNotFound
	}
	adv := advancementFor(target.Status)
	if adv == nil {
		return nil
	}
	if err := s.backend.UpdateProjectStatus(target.Path, adv.NextStatus); err != nil {
		return err
	}
	s.RefreshProject(id)
	return nil
}

// recountPendingLocked keeps the registry's per-project feedback count in
// step with the ledger. Callers hold s.mu.
func (s *projectStore) recountPendingLocked(projectPath string) {
	pending := 0
	for _, item := range s.feedback {
		if item.Status == feedbackStatusPending {
			pending++
		}
	}
	for i := range s.projects {
		if s.projects[i].Path == projectPath {
			s.projects[i].FeedbackCount = pending
		}
	}
	if s.currentProject != nil && s.currentProject.Path == projectPath {
		s.currentProject.FeedbackCount = pending
	}
}

func (s *projectStore) AddFeedback(projectPath, text string, priority int) error {
	item, err := s.backend.AddFeedback(projectPath, text, priority)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.feedback = append(s.feedback, item)
	sortFeedback(s.feedback)
	s.recountPendingLocked(projectPath)
	s.mu.Unlock()
	return nil
}

func (s *projectStore) UpdateFeedback(projectPath, feedbackID string, patch feedbackPatch) error {
	if err := s.backend.UpdateFeedback(projectPath, feedbackID, patch); err != nil {
		return err
	}
	s.mu.Lock()
	for i := range s.feedback {
		if s.feedback[i].ID == feedbackID {
			applyFeedbackPatch(&s.feedback[i], patch)
		}
	}
	sortFeedback(s.feedback)
	s.recountPendingLocked(projectPath)
	s.mu.Unlock()
	return nil
}

func (s *projectStore) DeleteFeedback(projectPath, feedbackID string) error {
	if err := s.backend.DeleteFeedback(projectPath, feedbackID); err != nil {
		return err
	}
	s.mu.Lock()
	kept := s.feedback[:0]
	for _, item := range s.feedback {
		if item.ID != feedbackID {
			kept = append(kept, item)
		}
	}
	s.feedback = kept
	s.recountPendingLocked(projectPath)
	s.mu.Unlock()
	return nil
}

// ToggleFeedbackComplete flips pending/completed. The status and the
// completedAt timestamp always change as a pair, and only here: every other
// path delegates to UpdateFeedback with both fields set.
func (s *projectStore) ToggleFeedbackComplete(projectPath, feedbackID string) error {
	s.mu.Lock()
	var current *feedbackItem
	for i := range s.feedback {
		if s.feedback[i].ID == feedbackID {
			item := s.feedback[i]
			current = &item
			break
		}
	}
	s.mu.Unlock()
	if current == nil {
		return nil
	}

	status := feedbackStatusCompleted
	completedAt := s.now().UTC().Format(time.RFC3339)
	if current.Status == feedbackStatusCompleted {
		status = feedbackStatusPending
		completedAt = ""
	}
	return s.UpdateFeedback(projectPath, feedbackID, feedbackPatch{
		Status:      &status,
		CompletedAt: &completedAt,
	})
}

// ArchiveFeedback moves a refined item out of the active ledger, recording
// which issues it was refined into.
func (s *projectStore) ArchiveFeedback(projectPath, feedbackID string, refinedInto []string) error {
	if err := s.backend.ArchiveFeedback(projectPath, feedbackID, refinedInto); err != nil {
		return err
	}
	s.mu.Lock()
	kept := s.feedback[:0]
	for _, item := range s.feedback {
		if item.ID == feedbackID {
			item.RefinedIntoIssueIDs = append([]string{}, refinedInto...)
			s.archivedFeedback = append(s.archivedFeedback, item)
			continue
		}
		kept = append(kept, item)
	}
	s.feedback = kept
	s.recountPendingLocked(projectPath)
	s.mu.Unlock()
	return nil
}

func (s *projectStore) LoadArchivedFeedback(projectPath string) error {
	archived, err := s.backend.ArchivedFeedback(projectPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.archivedFeedback = archived
	s.mu.Unlock()
	return nil
}

func (s *projectStore) LoadIssues(projectPath string) error {
	issues, err := s.backend.Issues(projectPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.issues = issues
	s.mu.Unlock()
	return nil
}

func (s *projectStore) AddIssue(projectPath string, newIssue issue) error {
	created, err := s.backend.AddIssue(projectPath, newIssue)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.issues = append(s.issues, created)
	s.mu.Unlock()
	return nil
}

func (s *projectStore) UpdateIssue(projectPath, issueID string, patch issuePatch) error {
	if err := s.backend.UpdateIssue(projectPath, issueID, patch); err != nil {
		return err
	}
	s.mu.Lock()
	for i := range s.issues {
		if s.issues[i].ID == issueID {
			applyIssuePatch(&s.issues[i], patch)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *projectStore) DeleteIssue(projectPath, issueID string) error {
	if err := s.backend.DeleteIssue(projectPath, issueID); err != nil {
		return err
	}
	s.mu.Lock()
	kept := s.issues[:0]
	for _, item := range s.issues {
		if item.ID != issueID {
			kept = append(kept, item)
		}
	}
	s.issues = kept
	s.mu.Unlock()
	return nil
}

// sortFeedback orders ascending by priority, 1 (most urgent) first. Stable
// so same-priority items keep their insertion order.
func sortFeedback(items []feedbackItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority < items[j].Priority
	})
}
