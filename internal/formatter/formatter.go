// package formatter provides functions to export task data to various formats (CSV, Markdown, YAML, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format is an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
	FormatText     Format = "txt"
)

const dateLayout = "2006-01-02"

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json", "":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, yaml, txt)", shared.ErrInvalidArgument, s)
}

// Ext is the file extension of the format, without the dot.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ExportToCSV converts tasks to CSV format with columns: ID, Name, Status, Project, Category, Assignee, Due Date, Markers
func ExportToCSV(tasks []models.Task) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Status", "Project", "Category", "Assignee", "Due Date", "Markers"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, task := range tasks {
		record := []string{
			task.ID,
			task.Name,
			string(task.Status),
			refName(task.Project, task.ProjectID),
			refName(task.Category, models.Deref(task.CategoryID)),
			task.Assignee.DisplayName(),
			dueDate(task.DueDate),
			strings.Join(task.MarkerNames(), ";"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts tasks to a Markdown checklist grouped by status.
//
// Overdue tasks are flagged relative to now.
func ExportToMarkdown(title string, tasks []models.Task, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Tasks**: %d\n\n", len(tasks)))

	for _, status := range models.TaskStatuses {
		group := filterStatus(tasks, status)
		if len(group) == 0 {
			continue
		}

		buf.WriteString(fmt.Sprintf("## %s\n\n", status.Label()))
		for _, task := range group {
			check := " "
			if status.Done() {
				check = "x"
			}
			buf.WriteString(fmt.Sprintf("- [%s] %s", check, task.Name))

			if task.DueDate != nil {
				buf.WriteString(fmt.Sprintf(" (due %s)", dueDate(task.DueDate)))
			}
			if task.IsOverdue(now) {
				buf.WriteString(" **overdue**")
			}
			if names := task.MarkerNames(); len(names) > 0 {
				buf.WriteString(" `" + strings.Join(names, "` `") + "`")
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts tasks to plain text format
func ExportToText(tasks []models.Task) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tasks: %d\n\n", len(tasks)))
	for i, task := range tasks {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s", i+1, task.Status.Label(), task.Name))
		if assignee := task.Assignee.DisplayName(); assignee != "" {
			buf.WriteString(fmt.Sprintf(" @%s", assignee))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToYAML encodes v as YAML with two space indentation.
func ExportToYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportTasks renders tasks in format.
func ExportTasks(tasks []models.Task, format Format, title string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(tasks)
	case FormatMarkdown:
		return ExportToMarkdown(title, tasks, time.Now())
	case FormatText:
		return ExportToText(tasks)
	case FormatYAML:
		return ExportToYAML(tasks)
	case FormatJSON:
		return shared.MarshalJSON(tasks, true)
	}
	return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
}

// Encode renders structured data (snapshots, statistics) as JSON or YAML.
func Encode(v any, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return shared.MarshalJSON(v, true)
	case FormatYAML:
		return ExportToYAML(v)
	}
	return nil, fmt.Errorf("%w: %s cannot hold structured data, use json or yaml", shared.ErrInvalidArgument, format)
}

// WriteExport writes data to path, creating parent directories as needed.
//
// Defaults to {base}.{ext} in the working directory when path is empty.
func WriteExport(data []byte, path, base string, format Format) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.%s", base, format.Ext())
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

func filterStatus(tasks []models.Task, status models.TaskStatus) []models.Task {
	var out []models.Task
	for _, task := range tasks {
		if task.Status == status {
			out = append(out, task)
		}
	}
	return out
}

func refName(ref *models.Ref, id string) string {
	if ref != nil && ref.Name != "" {
		return ref.Name
	}
	return id
}

func dueDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
