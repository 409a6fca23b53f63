package main

// The project pipeline is a linear status progression from first pitch to
// live deployment. There is no branching and no modeled back-transition;
// "deployed" is terminal.

var pipelineStatuses = []string{
	"initialized",
	"idea",
	"designed",
	"tech-spec-ready",
	"metadata-ready",
	"mvp-implemented",
	"technical-testing",
	"design-testing",
	"deployment",
	"deployed",
}

var statusLabels = map[string]string{
	"initialized":       "Initialized",
	"idea":              "Idea",
	"designed":          "Designed",
	"tech-spec-ready":   "Tech Spec Ready",
	"metadata-ready":    "Metadata Ready",
	"mvp-implemented":   "MVP Implemented",
	"technical-testing": "Technical Testing",
	"design-testing":    "Design Testing",
	"deployment":        "Deployment",
	"deployed":          "Deployed",
}

func knownStatus(status string) bool {
	_, ok := statusLabels[status]
	return ok
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// stageAdvancement describes how a project moves out of its current status:
// the status it lands on, the action shown to the user, and the name of the
// prompt template that drives the step. The initialized stage is the one
// exception: it is advanced through the structured idea form, so its prompt
// name is empty and callers must branch on the status value, not on the
// rendered prompt text.
type stageAdvancement struct {
	NextStatus  string
	ActionLabel string
	PromptName  string
}

var stageAdvancements = map[string]stageAdvancement{
	"initialized":       {NextStatus: "idea", ActionLabel: "Write Project Pitch", PromptName: ""},
	"idea":              {NextStatus: "designed", ActionLabel: "Refine Idea with Claude", PromptName: "ideaRefinement"},
	"designed":          {NextStatus: "tech-spec-ready", ActionLabel: "Generate Design Spec with Claude", PromptName: "designSpec"},
	"tech-spec-ready":   {NextStatus: "metadata-ready", ActionLabel: "Generate Tech Spec with Claude", PromptName: "technicalSpec"},
	"metadata-ready":    {NextStatus: "mvp-implemented", ActionLabel: "Fill Project Metadata with Claude", PromptName: "metadata"},
	"mvp-implemented":   {NextStatus: "technical-testing", ActionLabel: "Start Implementation with Claude", PromptName: "implementation"},
	"technical-testing": {NextStatus: "design-testing", ActionLabel: "Create Test Checklist with Claude", PromptName: "technicalTesting"},
	"design-testing":    {NextStatus: "deployment", ActionLabel: "Review Design & UX with Claude", PromptName: "designTesting"},
	"deployment":        {NextStatus: "deployed", ActionLabel: "Mark as Deployed", PromptName: "deployment"},
}

// advancementFor returns nil for the terminal status and for anything the
// pipeline does not know about.
func advancementFor(status string) *stageAdvancement {
	adv, ok := stageAdvancements[status]
	if !ok {
		return nil
	}
	return &adv
}

// isSetupStatus reports whether feedback management should stay hidden for a
// project: every stage up to and including deployment counts as setup, only
// deployed projects collect feedback.
func isSetupStatus(status string) bool {
	for _, s := range pipelineStatuses {
		if s == "deployed" {
			break
		}
		if s == status {
			return true
		}
	}
	return false
}

func stageIndex(status string) int {
	for i, s := range pipelineStatuses {
		if s == status {
			return i
		}
	}
	return -1
}

func stageName(status string) string {
	switch status {
	case "initialized":
		return "Project Initialization"
	case "idea":
		return "Idea Refinement"
	case "designed":
		return "Design Specification"
	case "tech-spec-ready":
		return "Technical Specification"
	case "metadata-ready":
		return "Project Metadata"
	case "mvp-implemented":
		return "MVP Implementation"
	case "technical-testing":
		return "Technical Testing"
	case "design-testing":
		return "Design & UX Review"
	case "deployment":
		return "Deployment"
	case "deployed":
		return "Deployed"
	default:
		return "Project Setup"
	}
}

func stageDescription(status string) string {
	switch status {
	case "initialized":
		return "Write a clear project pitch describing what you want to build and why."
	case "idea":
		return "Refine your idea with Claude - research alternatives, validate the approach, and finalize the concept."
	case "designed":
		return "Work with Claude to design the MVP scope, user flows, and core features."
	case "tech-spec-ready":
		return "Generate a technical specification with Claude to plan the architecture and tech stack."
	case "metadata-ready":
		return "Have Claude fill out the project metadata based on your specifications."
	case "mvp-implemented":
		return "Start implementing the MVP with Claude using the design and technical specs."
	case "technical-testing":
		return "Test all functionality with Claude's test checklist and fix bugs until everything works."
	case "design-testing":
		return "Review the design and UX - document feedback and work with Claude to refine the MVP."
	case "deployment":
		return "Deploy your app to production with Claude's guidance and verify it works live."
	default:
		return ""
	}
}

func stageIcon(status string) string {
	switch status {
	case "initialized":
		return "💡"
	case "idea":
		return "🔍"
	case "designed":
		return "📐"
	case "tech-spec-ready":
		return "🔧"
	case "metadata-ready":
		return "📝"
	case "mvp-implemented":
		return "⚡"
	case "technical-testing":
		return "🧪"
	case "design-testing":
		return "🎨"
	case "deployment":
		return "🚀"
	case "deployed":
		return "✅"
	default:
		return "📋"
	}
}
