package app

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/zerr"
)

// ListOptions selects and formats records for List.
type ListOptions struct {
	Filter domain.Filter
	// Long adds the reason, executable and tags of each record.
	Long bool
	JSON bool
	// Projects prints the names of every project store under the root instead.
	Projects bool
}

// List prints the records of the project matching the filter in creation order.
func (a *App) List(ctx context.Context, opts ListOptions) error {
	cfg, err := a.project()
	if err != nil {
		return err
	}
	if opts.Projects {
		names, err := a.store.Projects(ctx, cfg.Root)
		if err != nil {
			return err
		}
		if opts.JSON {
			return a.writeJSON(names)
		}
		out := newPrinter(a.stdout)
		for _, name := range names {
			out.line("%s", name)
		}
		return nil
	}

	var records []*domain.Record
	for rec, err := range a.store.List(ctx, cfg.ProjectRef(), opts.Filter) {
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	if opts.JSON {
		summaries := make([]domain.RecordSummary, 0, len(records))
		for _, rec := range records {
			summaries = append(summaries, rec.Summary())
		}
		return a.writeJSON(summaries)
	}

	p := newPrinter(a.stdout)
	if len(records) == 0 {
		p.line("no records")
		return nil
	}
	headers := []string{"LABEL", "STARTED", "PHASE", "SYNC"}
	if opts.Long {
		headers = append(headers, "EXECUTABLE", "TAGS", "REASON")
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := []string{rec.Label, formatTime(rec.StartedAt), string(rec.Phase), p.state(rec.Sync.State)}
		if opts.Long {
			row = append(row, formatExecutable(domain.Executable{Name: rec.Executable.Name, Version: rec.Executable.Version}),
				strings.Join(rec.Tags, ","), rec.Reason)
		}
		rows = append(rows, row)
	}
	p.table(headers, rows)
	return nil
}

// Show prints one record. With jsonOutput the stored document is printed.
func (a *App) Show(ctx context.Context, labelOrID string, jsonOutput bool) error {
	cfg, err := a.project()
	if err != nil {
		return err
	}
	var rec *domain.Record
	if labelOrID == "" {
		rec, err = a.store.MostRecent(ctx, cfg.ProjectRef())
	} else {
		rec, err = a.store.Get(ctx, cfg.ProjectRef(), labelOrID)
	}
	if err != nil {
		return err
	}
	if jsonOutput {
		return a.writeJSON(rec)
	}

	p := newPrinter(a.stdout)
	p.field("Label", rec.Label)
	p.field("ID", rec.ID)
	p.field("Project", rec.Project)
	p.field("Executable", formatExecutable(rec.Executable))
	p.field("Main", rec.MainRef)
	p.field("Arguments", strings.Join(rec.ScriptArgs, " "))
	p.field("Started", formatTime(rec.StartedAt))
	p.field("Duration", rec.Duration.String())
	p.field("Phase", string(rec.Phase))
	p.field("Exit status", fmt.Sprint(rec.Outcome.ExitStatus))
	p.field("Outcome", rec.Outcome.Text)
	p.field("Sync", p.state(rec.Sync.State))
	p.field("Last error", rec.Sync.LastError)
	if r := rec.Sync.Rejection; r != nil {
		p.field("Rejected key", r.IdempotencyKey)
		p.field("Remote said", r.Response)
		p.field("Rejected", r.Payload)
	}
	p.field("VCS", formatVCS(rec.VCS))
	p.field("User", rec.User)
	p.field("Tags", strings.Join(rec.Tags, ", "))
	p.field("Reason", rec.Reason)

	var params []string
	if rec.Parameters != nil {
		for path, value := range rec.Parameters.Flatten() {
			params = append(params, fmt.Sprintf("%s = %v", path, value))
		}
	}
	p.section("Parameters", params)
	p.section("Dependencies", mapSlice(rec.Dependencies, formatDependency))
	p.section("Outputs", mapSlice(rec.Outputs, formatDependency))
	p.section("Warnings", mapSlice(rec.Warnings, formatWarning))
	if out := strings.TrimRight(rec.StdoutStderr, "\n"); out != "" {
		p.section("Output", strings.Split(out, "\n"))
	}
	return nil
}

// Diff prints what differs between two records: executable, script,
// arguments, parameters, dependencies, outputs and outcome.
func (a *App) Diff(ctx context.Context, left, right string) error {
	cfg, err := a.project()
	if err != nil {
		return err
	}
	p := cfg.ProjectRef()
	l, err := a.store.Get(ctx, p, left)
	if err != nil {
		return err
	}
	r, err := a.store.Get(ctx, p, right)
	if err != nil {
		return err
	}

	out := newPrinter(a.stdout)
	d := diffRecords(l, r)
	if d.empty() {
		out.line("%s and %s are equivalent", l.Label, r.Label)
		return nil
	}
	out.section("Executable", d.executable)
	out.section("Main", d.main)
	out.section("Arguments", d.arguments)
	out.section("Parameters", mapSlice(d.parameters, domain.ParameterChange.String))
	out.section("Dependencies", d.dependencies)
	out.section("Outputs", d.outputs)
	out.section("Outcome", d.outcome)
	return nil
}

// Delete removes a record, or every record carrying tag when tag is set.
func (a *App) Delete(ctx context.Context, labelOrID, tag string) error {
	cfg, err := a.project()
	if err != nil {
		return err
	}
	p := cfg.ProjectRef()

	if tag != "" {
		n, err := a.store.DeleteByTag(ctx, p, tag)
		if err != nil {
			return err
		}
		a.logger.Info(fmt.Sprintf("deleted %d records tagged %s", n, tag))
		return nil
	}
	if labelOrID == "" {
		return zerr.Wrap(domain.ErrNotFound, "no record given")
	}
	if err := a.store.Delete(ctx, p, labelOrID); err != nil {
		return err
	}
	a.logger.Info("deleted " + labelOrID)
	return nil
}

// Rename gives a record a new label.
func (a *App) Rename(ctx context.Context, labelOrID, newLabel string, overwrite bool) error {
	cfg, err := a.project()
	if err != nil {
		return err
	}
	rec, err := a.store.Rename(ctx, cfg.ProjectRef(), labelOrID, newLabel, overwrite)
	if err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("renamed %s to %s", labelOrID, rec.Label))
	return nil
}

// Tag adds and removes tags on a record.
func (a *App) Tag(ctx context.Context, labelOrID string, add, remove []string) error {
	cfg, err := a.project()
	if err != nil {
		return err
	}
	rec, err := a.store.Retag(ctx, cfg.ProjectRef(), labelOrID, add, remove)
	if err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("%s tagged [%s]", rec.Label, strings.Join(rec.Tags, ", ")))
	return nil
}

func (a *App) writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	data = append(data, '\n')
	_, err = a.stdout.Write(data)
	return err
}

func mapSlice[T any](in []T, fn func(T) string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

// recordDiff holds the rendered differences between two records.
type recordDiff struct {
	executable   []string
	main         []string
	arguments    []string
	parameters   []domain.ParameterChange
	dependencies []string
	outputs      []string
	outcome      []string
}

func (d recordDiff) empty() bool {
	return len(d.executable) == 0 && len(d.main) == 0 && len(d.arguments) == 0 &&
		len(d.parameters) == 0 && len(d.dependencies) == 0 && len(d.outputs) == 0 &&
		len(d.outcome) == 0
}

func diffRecords(l, r *domain.Record) recordDiff {
	var d recordDiff
	d.executable = changed(formatExecutable(l.Executable), formatExecutable(r.Executable))
	d.main = changed(l.MainRef, r.MainRef)
	if !slices.Equal(l.ScriptArgs, r.ScriptArgs) {
		d.arguments = changed(strings.Join(l.ScriptArgs, " "), strings.Join(r.ScriptArgs, " "))
	}
	d.parameters = domain.DiffParameters(l.Parameters, r.Parameters)
	d.dependencies = diffFiles(l.Dependencies, r.Dependencies)
	d.outputs = diffFiles(l.Outputs, r.Outputs)
	d.outcome = changed(formatOutcome(l.Outcome), formatOutcome(r.Outcome))
	return d
}

func changed(l, r string) []string {
	if l == r {
		return nil
	}
	return []string{"- " + l, "+ " + r}
}

func formatOutcome(o domain.Outcome) string {
	s := fmt.Sprintf("exit %d", o.ExitStatus)
	if o.Text != "" {
		s += ": " + o.Text
	}
	return s
}

// diffFiles compares files by path. Content changes are detected by digest.
func diffFiles(l, r []domain.Dependency) []string {
	right := make(map[string]domain.Dependency, len(r))
	for _, dep := range r {
		right[dep.Path] = dep
	}
	seen := make(map[string]bool, len(l))

	var lines []string
	for _, dep := range l {
		seen[dep.Path] = true
		other, ok := right[dep.Path]
		switch {
		case !ok:
			lines = append(lines, "- "+formatDependency(dep))
		case other.Digest != dep.Digest:
			lines = append(lines, "~ "+dep.Path+": "+short(dep.Digest)+" -> "+short(other.Digest))
		}
	}
	for _, dep := range r {
		if !seen[dep.Path] {
			lines = append(lines, "+ "+formatDependency(dep))
		}
	}
	return lines
}

func short(digest string) string {
	hex := domain.DigestHex(digest)
	if len(hex) > shortDigest {
		return hex[:shortDigest]
	}
	if hex == "" {
		return "missing"
	}
	return hex
}
