package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/Benny93/dec-go/internal/storage"
)

// resolveRun returns the run with the given ID, or the latest run when the
// ID is empty or "latest".
func resolveRun(ctx context.Context, results ResultReader, runID string) (*storage.RunInfo, error) {
	var (
		run *storage.RunInfo
		err error
	)
	if runID == "" || runID == "latest" {
		run, err = results.LatestRun(ctx)
	} else {
		run, err = results.GetRun(ctx, runID)
	}
	if err != nil {
		return nil, err
	}
	if run == nil {
		if runID == "" || runID == "latest" {
			return nil, fmt.Errorf("no runs stored yet. Run `dec run` to process an interval folder")
		}
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return run, nil
}

// Tool Handlers

func handleListRuns(ctx context.Context, results ResultReader) (string, error) {
	runs, err := results.ListRuns(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("## Stored Runs\n\n")
	if len(runs) == 0 {
		sb.WriteString("No runs stored yet. Run `dec run` to process an interval folder.\n")
		return sb.String(), nil
	}

	for _, run := range runs {
		fmt.Fprintf(&sb, "- **%s** (%s)\n", run.Name, run.ID)
		fmt.Fprintf(&sb, "  Source: %s\n", run.Source)
		fmt.Fprintf(&sb, "  Window: %d, Top-k: %d, Intervals: %d\n", run.Window, run.TopK, run.Intervals)
		fmt.Fprintf(&sb, "  Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return trimLines(&sb), nil
}

func handleTopKeywords(ctx context.Context, results ResultReader, runID string, interval, limit int) (string, error) {
	run, err := resolveRun(ctx, results, runID)
	if err != nil {
		return "", err
	}

	if interval < 0 {
		summaries, err := results.ListIntervals(ctx, run.ID)
		if err != nil {
			return "", err
		}
		if len(summaries) == 0 {
			return fmt.Sprintf("Run %s has no stored intervals yet.\n", run.ID), nil
		}
		interval = summaries[len(summaries)-1].Interval
	}

	rec, err := results.GetInterval(ctx, run.ID, interval)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", fmt.Errorf("interval %d not found in run %s", interval, run.ID)
	}

	if limit <= 0 {
		limit = run.TopK
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Top Keywords: interval %d of %s\n\n", rec.Interval, run.Name)
	fmt.Fprintf(&sb, "Documents: %d, Keywords: %d, Co-occurrences: %d\n\n", rec.Documents, rec.Nodes, rec.Edges)

	if !rec.Converged {
		sb.WriteString("Centrality did not converge for this interval; no DEC values were computed.\n")
		return sb.String(), nil
	}

	top := rec.Top(limit)
	if len(top) == 0 {
		sb.WriteString("No keywords in this interval.\n")
		return sb.String(), nil
	}

	sb.WriteString("| Rank | Keyword | DEC | Centrality | Slope |\n")
	sb.WriteString("|------|---------|-----|------------|-------|\n")
	for i, kw := range top {
		fmt.Fprintf(&sb, "| %d | %s | %.4f | %.4f | %.4f |\n", i+1, kw.Keyword, kw.DEC, kw.Centrality, kw.Slope)
	}

	if len(rec.Topics) > 0 {
		sb.WriteString("\n### Topics\n")
		for _, topic := range rec.Topics {
			fmt.Fprintf(&sb, "- %s (DEC %.4f)\n", strings.Join(topic.Keywords, ", "), topic.DEC)
		}
	}

	if len(rec.Removed) > 0 {
		fmt.Fprintf(&sb, "\nDecayed out this interval: %s\n", strings.Join(rec.Removed, ", "))
	}
	return sb.String(), nil
}

func handleKeywordHistory(ctx context.Context, results ResultReader, runID, keyword string) (string, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return "No keyword provided", nil
	}

	run, err := resolveRun(ctx, results, runID)
	if err != nil {
		return "", err
	}

	keyword, points, err := storage.FindKeywordHistory(ctx, results, run.ID, keyword)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## History of '%s' in %s\n\n", keyword, run.Name)
	if len(points) == 0 {
		fmt.Fprintf(&sb, "Keyword '%s' does not appear in any stored interval.\n", keyword)
		return sb.String(), nil
	}

	sb.WriteString("| Interval | DEC | Centrality | Slope |\n")
	sb.WriteString("|----------|-----|------------|-------|\n")
	peak := points[0]
	for _, p := range points {
		fmt.Fprintf(&sb, "| %d | %.4f | %.4f | %.4f |\n", p.Interval, p.DEC, p.Centrality, p.Slope)
		if p.DEC > peak.DEC {
			peak = p
		}
	}
	fmt.Fprintf(&sb, "\nPeak DEC %.4f at interval %d.\n", peak.DEC, peak.Interval)
	return sb.String(), nil
}

func handleListIntervals(ctx context.Context, results ResultReader, runID string) (string, error) {
	run, err := resolveRun(ctx, results, runID)
	if err != nil {
		return "", err
	}

	summaries, err := results.ListIntervals(ctx, run.ID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Intervals of %s\n\n", run.Name)
	if len(summaries) == 0 {
		sb.WriteString("No intervals stored yet.\n")
		return sb.String(), nil
	}

	for _, s := range summaries {
		status := ""
		if !s.Converged {
			status = " (not converged)"
		}
		fmt.Fprintf(&sb, "- %d: %d documents, %d keywords, top '%s'%s\n", s.Interval, s.Documents, s.Nodes, s.Top, status)
	}
	return trimLines(&sb), nil
}

// Resource Handlers

func getOverview(ctx context.Context, results ResultReader) (string, error) {
	runs, err := results.ListRuns(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# DEC Overview\n\n")
	fmt.Fprintf(&sb, "**Runs:** %d\n", len(runs))
	if len(runs) == 0 {
		return sb.String(), nil
	}

	latest := runs[0]
	fmt.Fprintf(&sb, "**Latest run:** %s (%s)\n", latest.Name, latest.ID)
	fmt.Fprintf(&sb, "**Window (P):** %d\n", latest.Window)
	fmt.Fprintf(&sb, "**Intervals:** %d\n\n", latest.Intervals)

	top, err := handleTopKeywords(ctx, results, latest.ID, -1, 0)
	if err != nil {
		return "", err
	}
	sb.WriteString(top)
	return sb.String(), nil
}
