package main

import "errors"

var (
	errNoProjectsDirectory = errors.New("projects directory not configured")
	errProjectNotFound     = errors.New("project not found")
	errFeedbackNotFound    = errors.New("feedback item not found")
	errIssueNotFound       = errors.New("issue not found")
	errPromptNotFound      = errors.New("prompt template not found")
)

// sessionState reflects whether an assistant session is attached to a project.
type sessionState string

const (
	sessionNotStarted sessionState = "not_started"
	sessionIdle       sessionState = "idle"
	sessionRunning    sessionState = "running"
)

type sessionInfo struct {
	State     sessionState
	PID       int
	StartedAt string
}

// backend is the persistence and OS-integration boundary. The store never
// touches the filesystem itself; everything durable goes through here.
// Implementations must treat project paths, not ids, as identity: ids are
// minted fresh on every scan.
type backend interface {
	// Project scanning and metadata.
	Scan(projectsDir string) ([]project, error)
	ProjectDetail(projectPath string) (project, error)
	CreateProject(projectsDir, projectName string) (string, error)
	SaveProjectIdea(projectPath string, idea projectIdea) error
	UpdateProjectMetadata(projectPath string, meta projectMetadata) error
	UpdateProjectStatus(projectPath, newStatus string) error
	AssignColorIfMissing(projectPath string) (string, error)

	// Feedback ledger.
	Feedback(projectPath string) ([]feedbackItem, error)
	AddFeedback(projectPath string, text string, priority int) (feedbackItem, error)
	UpdateFeedback(projectPath, feedbackID string, patch feedbackPatch) error
	DeleteFeedback(projectPath, feedbackID string) error
	ArchivedFeedback(projectPath string) ([]feedbackItem, error)
	ArchiveFeedback(projectPath, feedbackID string, refinedInto []string) error

	// Issues.
	Issues(projectPath string) ([]issue, error)
	AddIssue(projectPath string, newIssue issue) (issue, error)
	UpdateIssue(projectPath, issueID string, patch issuePatch) error
	DeleteIssue(projectPath, issueID string) error

	// Settings singleton; UpdateSettings always writes the full object.
	Settings() (settings, error)
	UpdateSettings(s settings) error

	// Prompt templates by name, with {KEY} replacements applied.
	Prompt(name string, replacements map[string]string) (string, error)

	// Session and OS actions. Fire-and-forget beyond the returned error.
	SessionStatus(projectPath string) (sessionInfo, error)
	LaunchAssistant(projectPath, prompt string) error
	OpenInExplorer(projectPath string) error
	OpenURL(url string) error
}
