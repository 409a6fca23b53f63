package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// localBackend persists everything as JSON files: hub settings in the user
// config dir, per-project data under each project's .vibe folder. It is the
// sole writer of those files; the store layer only ever sees the decoded
// records.
type localBackend struct {
	configDir string
}

func newLocalBackend() *localBackend {
	return &localBackend{configDir: resolveConfigDir()}
}

func resolveConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "vibe-hub")
}

type feedbackEnvelope struct {
	Feedback []feedbackItem `json:"feedback"`
}

type issueEnvelope struct {
	Issues []issue `json:"issues"`
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSONFile(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// projectRecord is the durable slice of a project stored in .vibe/project.json.
// Scan-time fields (id, path, feedbackCount, lastModified) are never written.
type projectRecord struct {
	DisplayName              string   `json:"displayName,omitempty"`
	Description              string   `json:"description,omitempty"`
	TechStack                []string `json:"techStack,omitempty"`
	Platform                 string   `json:"platform,omitempty"`
	Status                   string   `json:"status,omitempty"`
	DeploymentURL            string   `json:"deploymentUrl,omitempty"`
	Color                    string   `json:"color,omitempty"`
	TextColor                string   `json:"textColor,omitempty"`
	IconPath                 string   `json:"iconPath,omitempty"`
	GithubIntegrationEnabled bool     `json:"githubIntegrationEnabled,omitempty"`
}

func projectRecordPath(projectPath string) string {
	return filepath.Join(projectPath, vibeDir, projectFile)
}

func readProjectRecord(projectPath string) (projectRecord, error) {
	var rec projectRecord
	err := readJSONFile(projectRecordPath(projectPath), &rec)
	return rec, err
}

func writeProjectRecord(projectPath string, rec projectRecord) error {
	return writeJSONFile(projectRecordPath(projectPath), rec)
}

func isGitRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}

func lastModified(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return info.ModTime().UTC().Format(time.RFC3339)
}

func (b *localBackend) buildProject(path string) (project, error) {
	rec, err := readProjectRecord(path)
	if err != nil {
		return project{}, err
	}
	status := rec.Status
	if status == "" {
		status = "initialized"
	}
	feedback, err := b.Feedback(path)
	if err != nil {
		return project{}, err
	}
	pending := 0
	for _, item := range feedback {
		if item.Status == feedbackStatusPending {
			pending++
		}
	}
	return project{
		ID:                       uuid.NewString(),
		Name:                     filepath.Base(path),
		DisplayName:              rec.DisplayName,
		Path:                     path,
		Description:              rec.Description,
		TechStack:                rec.TechStack,
		Platform:                 rec.Platform,
		Status:                   status,
		DeploymentURL:            rec.DeploymentURL,
		Color:                    rec.Color,
		TextColor:                rec.TextColor,
		IconPath:                 rec.IconPath,
		LastModified:             lastModified(path),
		FeedbackCount:            pending,
		GithubIntegrationEnabled: rec.GithubIntegrationEnabled,
	}, nil
}

func (b *localBackend) Scan(projectsDir string) ([]project, error) {
	root := filepath.Clean(projectsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read projects directory: %w", err)
	}
	var projects []project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if !isGitRepo(path) {
			continue
		}
		p, err := b.buildProject(path)
		if err != nil {
			// A broken .vibe folder should not hide the rest of the scan.
			continue
		}
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastModified > projects[j].LastModified
	})
	return projects, nil
}

func (b *localBackend) ProjectDetail(projectPath string) (project, error) {
	if _, err := os.Stat(projectPath); err != nil {
		return project{}, fmt.Errorf("project path does not exist: %w", err)
	}
	return b.buildProject(projectPath)
}

func (b *localBackend) CreateProject(projectsDir, projectName string) (string, error) {
	name := strings.TrimSpace(projectName)
	if name == "" {
		return "", errors.New("project name is empty")
	}
	path := filepath.Join(filepath.Clean(projectsDir), name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("project %q already exists", name)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create project directory: %w", err)
	}
	if out, err := exec.Command("git", "init", path).CombinedOutput(); err != nil {
		return "", fmt.Errorf("git init: %v: %s", err, strings.TrimSpace(string(out)))
	}
	if err := writeProjectRecord(path, projectRecord{Status: "initialized"}); err != nil {
		return "", err
	}
	return path, nil
}

func (b *localBackend) SaveProjectIdea(projectPath string, idea projectIdea) error {
	var sb strings.Builder
	sb.WriteString("# Project Idea\n\n")
	sb.WriteString("## Summary\n\n" + strings.TrimSpace(idea.Summary) + "\n\n")
	sb.WriteString("## Problem\n\n" + strings.TrimSpace(idea.Problem) + "\n\n")
	sb.WriteString("## Core Functionality\n\n" + strings.TrimSpace(idea.CoreFunctionality) + "\n\n")
	sb.WriteString("## Value Proposition\n\n" + strings.TrimSpace(idea.ValueProposition) + "\n")
	if extra := strings.TrimSpace(idea.AdditionalRequirements); extra != "" {
		sb.WriteString("\n## Additional Requirements\n\n" + extra + "\n")
	}
	ideaPath := filepath.Join(projectPath, filepath.FromSlash(ideaDoc))
	if err := os.MkdirAll(filepath.Dir(ideaPath), 0o755); err != nil {
		return fmt.Errorf("create .vibe directory: %w", err)
	}
	if err := os.WriteFile(ideaPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write idea document: %w", err)
	}
	rec, err := readProjectRecord(projectPath)
	if err != nil {
		return err
	}
	if rec.Status == "" || rec.Status == "initialized" {
		rec.Status = "idea"
	}
	return writeProjectRecord(projectPath, rec)
}

func (b *localBackend) UpdateProjectMetadata(projectPath string, meta projectMetadata) error {
	rec, err := readProjectRecord(projectPath)
	if err != nil {
		return err
	}
	rec.Description = meta.Description
	rec.TechStack = meta.TechStack
	rec.DeploymentURL = meta.DeploymentURL
	return writeProjectRecord(projectPath, rec)
}

func (b *localBackend) UpdateProjectStatus(projectPath, newStatus string) error {
	if !knownStatus(newStatus) {
		return fmt.Errorf("unknown project status %q", newStatus)
	}
	rec, err := readProjectRecord(projectPath)
	if err != nil {
		return err
	}
	rec.Status = newStatus
	return writeProjectRecord(projectPath, rec)
}

// Synthwave palette, matching the hub's dashboard cards. Text color is picked
// for contrast against the assigned background.
var projectPalette = []struct {
	color string
	text  string
}{
	{"#ff6ac1", "#000000"},
	{"#bd93f9", "#000000"},
	{"#8be9fd", "#000000"},
	{"#50fa7b", "#000000"},
	{"#f1fa8c", "#000000"},
	{"#ffb86c", "#000000"},
	{"#ff5555", "#FFFFFF"},
	{"#6272a4", "#FFFFFF"},
}

func (b *localBackend) AssignColorIfMissing(projectPath string) (string, error) {
	rec, err := readProjectRecord(projectPath)
	if err != nil {
		return "", err
	}
	if rec.Color != "" {
		return rec.Color, nil
	}
	h := fnv.New32a()
	h.Write([]byte(filepath.Clean(projectPath)))
	pick := projectPalette[int(h.Sum32())%len(projectPalette)]
	rec.Color = pick.color
	rec.TextColor = pick.text
	if err := writeProjectRecord(projectPath, rec); err != nil {
		return "", err
	}
	return rec.Color, nil
}

func feedbackFilePath(projectPath string) string {
	return filepath.Join(projectPath, vibeDir, feedbackFile)
}

func (b *localBackend) Feedback(projectPath string) ([]feedbackItem, error) {
	var env feedbackEnvelope
	if err := readJSONFile(feedbackFilePath(projectPath), &env); err != nil {
		return nil, err
	}
	sort.SliceStable(env.Feedback, func(i, j int) bool {
		return env.Feedback[i].Priority < env.Feedback[j].Priority
	})
	return env.Feedback, nil
}

func (b *localBackend) AddFeedback(projectPath string, text string, priority int) (feedbackItem, error) {
	if priority < 1 || priority > 5 {
		return feedbackItem{}, fmt.Errorf("priority %d out of range", priority)
	}
	var env feedbackEnvelope
	if err := readJSONFile(feedbackFilePath(projectPath), &env); err != nil {
		return feedbackItem{}, err
	}
	item := feedbackItem{
		ID:        uuid.NewString(),
		Text:      text,
		Priority:  priority,
		Status:    feedbackStatusPending,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	env.Feedback = append(env.Feedback, item)
	if err := writeJSONFile(feedbackFilePath(projectPath), env); err != nil {
		return feedbackItem{}, err
	}
	return item, nil
}

func applyFeedbackPatch(item *feedbackItem, patch feedbackPatch) {
	if patch.Text != nil {
		item.Text = *patch.Text
	}
	if patch.Priority != nil {
		item.Priority = *patch.Priority
	}
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	if patch.CompletedAt != nil {
		item.CompletedAt = *patch.CompletedAt
	}
	if patch.ReviewNotes != nil {
		item.ReviewNotes = *patch.ReviewNotes
	}
}

func (b *localBackend) UpdateFeedback(projectPath, feedbackID string, patch feedbackPatch) error {
	var env feedbackEnvelope
	if err := readJSONFile(feedbackFilePath(projectPath), &env); err != nil {
		return err
	}
	for i := range env.Feedback {
		if env.Feedback[i].ID == feedbackID {
			applyFeedbackPatch(&env.Feedback[i], patch)
			return writeJSONFile(feedbackFilePath(projectPath), env)
		}
	}
	return errFeedbackNotFound
}

func (b *localBackend) DeleteFeedback(projectPath, feedbackID string) error {
	var env feedbackEnvelope
	if err := readJSONFile(feedbackFilePath(projectPath), &env); err != nil {
		return err
	}
	kept := env.Feedback[:0]
	for _, item := range env.Feedback {
		if item.ID != feedbackID {
			kept = append(kept, item)
		}
	}
	env.Feedback = kept
	return writeJSONFile(feedbackFilePath(projectPath), env)
}

func archiveFilePath(projectPath string) string {
	return filepath.Join(projectPath, vibeDir, feedbackArchiveFile)
}

func (b *localBackend) ArchivedFeedback(projectPath string) ([]feedbackItem, error) {
	var env feedbackEnvelope
	if err := readJSONFile(archiveFilePath(projectPath), &env); err != nil {
		return nil, err
	}
	return env.Feedback, nil
}

func (b *localBackend) ArchiveFeedback(projectPath, feedbackID string, refinedInto []string) error {
	var env feedbackEnvelope
	if err := readJSONFile(feedbackFilePath(projectPath), &env); err != nil {
		return err
	}
	idx := -1
	for i := range env.Feedback {
		if env.Feedback[i].ID == feedbackID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errFeedbackNotFound
	}
	item := env.Feedback[idx]
	item.RefinedIntoIssueIDs = append([]string{}, refinedInto...)
	env.Feedback = append(env.Feedback[:idx], env.Feedback[idx+1:]...)

	var archive feedbackEnvelope
	if err := readJSONFile(archiveFilePath(projectPath), &archive); err != nil {
		return err
	}
	archive.Feedback = append(archive.Feedback, item)
	if err := writeJSONFile(archiveFilePath(projectPath), archive); err != nil {
		return err
	}
	return writeJSONFile(feedbackFilePath(projectPath), env)
}

func issuesFilePath(projectPath string) string {
	return filepath.Join(projectPath, vibeDir, issuesFile)
}

func (b *localBackend) Issues(projectPath string) ([]issue, error) {
	var env issueEnvelope
	if err := readJSONFile(issuesFilePath(projectPath), &env); err != nil {
		return nil, err
	}
	sort.SliceStable(env.Issues, func(i, j int) bool {
		return env.Issues[i].Priority < env.Issues[j].Priority
	})
	return env.Issues, nil
}

func (b *localBackend) AddIssue(projectPath string, newIssue issue) (issue, error) {
	var env issueEnvelope
	if err := readJSONFile(issuesFilePath(projectPath), &env); err != nil {
		return issue{}, err
	}
	newIssue.ID = uuid.NewString()
	newIssue.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	newIssue.CompletedAt = ""
	if newIssue.Status == "" {
		newIssue.Status = issueStatusPending
	}
	if newIssue.Complexity == 0 {
		newIssue.Complexity = 3
	}
	env.Issues = append(env.Issues, newIssue)
	if err := writeJSONFile(issuesFilePath(projectPath), env); err != nil {
		return issue{}, err
	}
	return newIssue, nil
}

func applyIssuePatch(item *issue, patch issuePatch) {
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Subtasks != nil {
		item.Subtasks = append([]string{}, (*patch.Subtasks)...)
	}
	if patch.Complexity != nil {
		item.Complexity = *patch.Complexity
	}
	if patch.Priority != nil {
		item.Priority = *patch.Priority
	}
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	if patch.CompletedAt != nil {
		item.CompletedAt = *patch.CompletedAt
	}
	if patch.ReviewNotes != nil {
		item.ReviewNotes = *patch.ReviewNotes
	}
}

func (b *localBackend) UpdateIssue(projectPath, issueID string, patch issuePatch) error {
	var env issueEnvelope
	if err := readJSONFile(issuesFilePath(projectPath), &env); err != nil {
		return err
	}
	for i := range env.Issues {
		if env.Issues[i].ID == issueID {
			applyIssuePatch(&env.Issues[i], patch)
			return writeJSONFile(issuesFilePath(projectPath), env)
		}
	}
	return errIssueNotFound
}

func (b *localBackend) DeleteIssue(projectPath, issueID string) error {
	var env issueEnvelope
	if err := readJSONFile(issuesFilePath(projectPath), &env); err != nil {
		return err
	}
	var feedbackID string
	kept := env.Issues[:0]
	for _, item := range env.Issues {
		if item.ID == issueID {
			feedbackID = item.OriginalFeedbackID
			continue
		}
		kept = append(kept, item)
	}
	env.Issues = kept
	if err := writeJSONFile(issuesFilePath(projectPath), env); err != nil {
		return err
	}
	if feedbackID == "" {
		return nil
	}
	// Drop the dangling refined-into link on the archived source item.
	var archive feedbackEnvelope
	if err := readJSONFile(archiveFilePath(projectPath), &archive); err != nil {
		return err
	}
	for i := range archive.Feedback {
		if archive.Feedback[i].ID != feedbackID {
			continue
		}
		ids := archive.Feedback[i].RefinedIntoIssueIDs[:0]
		for _, id := range archive.Feedback[i].RefinedIntoIssueIDs {
			if id != issueID {
				ids = append(ids, id)
			}
		}
		archive.Feedback[i].RefinedIntoIssueIDs = ids
		return writeJSONFile(archiveFilePath(projectPath), archive)
	}
	return nil
}

func (b *localBackend) settingsPath() string {
	return filepath.Join(b.configDir, "settings.json")
}

func (b *localBackend) Settings() (settings, error) {
	s := defaultSettings()
	if err := readJSONFile(b.settingsPath(), &s); err != nil {
		return defaultSettings(), err
	}
	return s, nil
}

func (b *localBackend) UpdateSettings(s settings) error {
	return writeJSONFile(b.settingsPath(), s)
}

type sessionRecord struct {
	PID       int    `json:"pid"`
	StartedAt string `json:"startedAt"`
}

func sessionFilePath(projectPath string) string {
	return filepath.Join(projectPath, vibeDir, sessionFile)
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func (b *localBackend) SessionStatus(projectPath string) (sessionInfo, error) {
	var rec sessionRecord
	if err := readJSONFile(sessionFilePath(projectPath), &rec); err != nil {
		return sessionInfo{}, err
	}
	if rec.PID == 0 {
		return sessionInfo{State: sessionNotStarted}, nil
	}
	info := sessionInfo{PID: rec.PID, StartedAt: rec.StartedAt}
	if processAlive(rec.PID) {
		info.State = sessionRunning
	} else {
		info.State = sessionIdle
	}
	return info, nil
}

func (b *localBackend) LaunchAssistant(projectPath, prompt string) error {
	cmd := assistantCommand(projectPath)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch assistant: %w", err)
	}
	rec := sessionRecord{
		PID:       cmd.Process.Pid,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeJSONFile(sessionFilePath(projectPath), rec); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func assistantCommand(projectPath string) *exec.Cmd {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", "-a", "Terminal", projectPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "Claude Code", "cmd", "/k", "claude")
	default:
		for _, term := range []string{"x-terminal-emulator", "gnome-terminal", "konsole"} {
			if _, err := exec.LookPath(term); err == nil {
				cmd = exec.Command(term, "--", "bash", "-c", "claude; exec bash")
				break
			}
		}
		if cmd == nil {
			cmd = exec.Command("claude")
		}
	}
	cmd.Dir = projectPath
	return cmd
}

func (b *localBackend) OpenInExplorer(projectPath string) error {
	return openWithSystemHandler(projectPath)
}

func (b *localBackend) OpenURL(url string) error {
	return openWithSystemHandler(url)
}

func openWithSystemHandler(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
