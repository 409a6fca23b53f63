// Command feedbackreport summarizes pending feedback across every project
// in a projects directory. It reads the same .vibe files the hub writes and
// prints a per-project breakdown, optionally as CSV for spreadsheets.
//
// Usage:
//
//	feedbackreport [-dir /path/to/projects] [-min-priority 3] [-csv out.csv]
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

type feedbackItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Priority  int    `json:"priority"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type feedbackEnvelope struct {
	Feedback []feedbackItem `json:"feedback"`
}

type hubSettings struct {
	ProjectsDirectory string `json:"projectsDirectory"`
}

type projectReport struct {
	Name    string
	Pending []feedbackItem
}

var priorityNames = map[int]string{
	1: "Critical",
	2: "High Priority",
	3: "Medium",
	4: "Low Priority",
	5: "Nice to Have",
}

func main() {
	dir := flag.String("dir", "", "Projects directory (defaults to the hub's configured directory)")
	minPriority := flag.Int("min-priority", 5, "Only include feedback at this priority or more urgent (1-5)")
	csvPath := flag.String("csv", "", "Write the report as CSV to this file instead of printing text")
	flag.Parse()

	root := *dir
	if root == "" {
		root = configuredProjectsDirectory()
	}
	if root == "" {
		fmt.Fprintln(os.Stderr, "no projects directory: pass -dir or configure the hub first")
		os.Exit(1)
	}

	reports, err := collectReports(root, *minPriority)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if *csvPath != "" {
		if err := writeCSV(*csvPath, reports); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *csvPath)
		return
	}
	printReports(reports)
}

func configuredProjectsDirectory() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(configDir, "vibe-hub", "settings.json"))
	if err != nil {
		return ""
	}
	var s hubSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s.ProjectsDirectory
}

func collectReports(root string, minPriority int) ([]projectReport, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read projects directory: %w", err)
	}

	var reports []projectReport
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		feedbackPath := filepath.Join(root, entry.Name(), ".vibe", "feedback.json")
		data, err := os.ReadFile(feedbackPath)
		if err != nil {
			continue
		}
		var env feedbackEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", entry.Name(), err)
			continue
		}
		var pending []feedbackItem
		for _, item := range env.Feedback {
			if item.Status == "pending" && item.Priority <= minPriority {
				pending = append(pending, item)
			}
		}
		if len(pending) == 0 {
			continue
		}
		sort.SliceStable(pending, func(i, j int) bool {
			return pending[i].Priority < pending[j].Priority
		})
		reports = append(reports, projectReport{Name: entry.Name(), Pending: pending})
	}

	sort.Slice(reports, func(i, j int) bool {
		return len(reports[i].Pending) > len(reports[j].Pending)
	})
	return reports, nil
}

func priorityName(priority int) string {
	if name, ok := priorityNames[priority]; ok {
		return name
	}
	return "Medium"
}

func printReports(reports []projectReport) {
	if len(reports) == 0 {
		fmt.Println("No pending feedback. 🎉")
		return
	}
	total := 0
	for _, report := range reports {
		fmt.Printf("%s (%d pending)\n", report.Name, len(report.Pending))
		for i, item := range report.Pending {
			fmt.Printf("  %d. [%s] %s\n", i+1, priorityName(item.Priority), item.Text)
		}
		fmt.Println()
		total += len(report.Pending)
	}
	fmt.Printf("%d pending items across %d projects\n", total, len(reports))
}

func writeCSV(path string, reports []projectReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"project", "priority", "priority_label", "status", "created_at", "text"}); err != nil {
		return err
	}
	for _, report := range reports {
		for _, item := range report.Pending {
			record := []string{
				report.Name,
				strconv.Itoa(item.Priority),
				priorityName(item.Priority),
				item.Status,
				item.CreatedAt,
				item.Text,
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}
	return w.Error()
}
