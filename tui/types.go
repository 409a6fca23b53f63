package main

// Core data model for the hub. Projects are discovered by scanning the
// configured projects directory; feedback, issues and the archive live in
// each project's .vibe folder and are owned by the backend.

const (
	vibeDir             = ".vibe"
	projectFile         = "project.json"
	feedbackFile        = "feedback.json"
	issuesFile          = "issues.json"
	feedbackArchiveFile = "feedback-archive.json"
	sessionFile         = "session.json"
)

// Stage documents referenced by generated prompts. The backend never parses
// these; the paths are part of the prompt contract and must match exactly.
const (
	ideaDoc           = ".vibe/idea.md"
	designSpecDoc     = ".vibe/design-spec.md"
	technicalSpecDoc  = ".vibe/technical-spec.md"
	metadataDoc       = ".vibe/metadata.md"
	testChecklistDoc  = ".vibe/test-checklist.md"
	designFeedbackDoc = ".vibe/design-feedback.md"
)

type project struct {
	// ID is regenerated on every scan. Anything that must survive a refresh
	// keys on Path instead; see (*projectStore).RefreshProject.
	ID                       string   `json:"id"`
	Name                     string   `json:"name"`
	DisplayName              string   `json:"displayName,omitempty"`
	Path                     string   `json:"path"`
	Description              string   `json:"description"`
	TechStack                []string `json:"techStack"`
	Platform                 string   `json:"platform,omitempty"`
	Status                   string   `json:"status"`
	DeploymentURL            string   `json:"deploymentUrl,omitempty"`
	Color                    string   `json:"color,omitempty"`
	TextColor                string   `json:"textColor,omitempty"`
	IconPath                 string   `json:"iconPath,omitempty"`
	LastModified             string   `json:"lastModified,omitempty"`
	FeedbackCount            int      `json:"feedbackCount"`
	GithubIntegrationEnabled bool     `json:"githubIntegrationEnabled,omitempty"`
}

type feedbackItem struct {
	ID                  string   `json:"id"`
	Text                string   `json:"text"`
	Priority            int      `json:"priority"` // 1..5, 1 is most urgent
	Status              string   `json:"status"`   // pending | completed | needs-review
	CreatedAt           string   `json:"createdAt"`
	CompletedAt         string   `json:"completedAt,omitempty"`
	ReviewNotes         string   `json:"reviewNotes,omitempty"`
	GithubIssueNumber   int64    `json:"githubIssueNumber,omitempty"`
	GithubIssueURL      string   `json:"githubIssueUrl,omitempty"`
	RefinedIntoIssueIDs []string `json:"refinedIntoIssueIds,omitempty"`
}

// feedbackPatch carries partial updates for a feedback item. Nil fields are
// left untouched; Status and CompletedAt always travel together when the
// pending/completed flip is involved (see ToggleFeedbackComplete).
type feedbackPatch struct {
	Text        *string `json:"text,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
	CompletedAt *string `json:"completedAt,omitempty"`
	ReviewNotes *string `json:"reviewNotes,omitempty"`
}

type issue struct {
	ID                 string   `json:"id"`
	OriginalFeedbackID string   `json:"originalFeedbackId,omitempty"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Subtasks           []string `json:"subtasks"`
	Complexity         int      `json:"complexity"` // 1..5
	Priority           int      `json:"priority"`   // 1..5
	Status             string   `json:"status"`     // pending | in-progress | for-review | completed
	CreatedAt          string   `json:"createdAt"`
	CompletedAt        string   `json:"completedAt,omitempty"`
	ReviewNotes        string   `json:"reviewNotes,omitempty"`
	GithubIssueNumber  int64    `json:"githubIssueNumber,omitempty"`
	GithubIssueURL     string   `json:"githubIssueUrl,omitempty"`
}

type issuePatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Subtasks    *[]string `json:"subtasks,omitempty"`
	Complexity  *int      `json:"complexity,omitempty"`
	Priority    *int      `json:"priority,omitempty"`
	Status      *string   `json:"status,omitempty"`
	CompletedAt *string   `json:"completedAt,omitempty"`
	ReviewNotes *string   `json:"reviewNotes,omitempty"`
}

// settings is a process-wide singleton loaded once at startup and always
// written back as a whole object; there are no partial settings patches.
type settings struct {
	ProjectsDirectory        string `json:"projectsDirectory"`
	SoundEffectsEnabled      bool   `json:"soundEffectsEnabled"`
	LaunchOnStartup          bool   `json:"launchOnStartup"`
	AutoRefineOnStartup      bool   `json:"autoRefineOnStartup"`
	GithubIntegrationEnabled bool   `json:"githubIntegrationEnabled"`
}

func defaultSettings() settings {
	return settings{SoundEffectsEnabled: true}
}

type projectIdea struct {
	Summary                string
	Problem                string
	CoreFunctionality      string
	ValueProposition       string
	AdditionalRequirements string
}

type projectMetadata struct {
	Description   string
	TechStack     []string
	DeploymentURL string
}

const (
	feedbackStatusPending     = "pending"
	feedbackStatusCompleted   = "completed"
	feedbackStatusNeedsReview = "needs-review"
)

const (
	issueStatusPending    = "pending"
	issueStatusInProgress = "in-progress"
	issueStatusForReview  = "for-review"
	issueStatusCompleted  = "completed"
)

var priorityLabels = map[int]string{
	1: "Critical",
	2: "High Priority",
	3: "Medium",
	4: "Low Priority",
	5: "Nice to Have",
}

var complexityLabels = map[int]string{
	1: "Trivial",
	2: "Simple",
	3: "Moderate",
	4: "Complex",
	5: "Very Complex",
}

func priorityLabel(priority int) string {
	if label, ok := priorityLabels[priority]; ok {
		return label
	}
	return "Medium"
}

func complexityLabel(complexity int) string {
	if label, ok := complexityLabels[complexity]; ok {
		return label
	}
	return "Moderate"
}
