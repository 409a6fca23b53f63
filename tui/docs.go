package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// Stage documents live under each project's .vibe folder and are written by
// the assistant during pipeline stages. The hub only lists and previews
// them.

type stageDoc struct {
	Title string
	Rel   string
}

var stageDocs = []stageDoc{
	{Title: "Project Idea", Rel: ideaDoc},
	{Title: "Design Spec", Rel: designSpecDoc},
	{Title: "Technical Spec", Rel: technicalSpecDoc},
	{Title: "Metadata", Rel: metadataDoc},
	{Title: "Test Checklist", Rel: testChecklistDoc},
	{Title: "Design Feedback", Rel: designFeedbackDoc},
}

// listStageDocs returns the documents that exist on disk for a project.
func listStageDocs(projectPath string) []stageDoc {
	var docs []stageDoc
	for _, doc := range stageDocs {
		if _, err := os.Stat(filepath.Join(projectPath, filepath.FromSlash(doc.Rel))); err == nil {
			docs = append(docs, doc)
		}
	}
	return docs
}

func loadStageDoc(projectPath string, doc stageDoc) (string, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, filepath.FromSlash(doc.Rel)))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", doc.Rel, err)
	}
	return string(data), nil
}
