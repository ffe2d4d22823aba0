package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/agentsync/internal/agentdef"
	"github.com/kazz187/agentsync/internal/reconcile"
	"github.com/kazz187/agentsync/internal/scope"
	"github.com/kazz187/agentsync/pkg/color"
)

func (a *cliApp) runSync(ctx context.Context, opts reconcile.SyncOptions, confirmer reconcile.Confirmer) error {
	plan, summary, err := a.syncer(confirmer).Sync(ctx, opts)
	if plan != nil {
		a.printPlan(plan)
	}
	if err != nil {
		return err
	}
	switch {
	case opts.DryRun:
		fmt.Fprintln(a.out, "Dry run, nothing changed.")
	case summary == nil:
		fmt.Fprintln(a.out, "Nothing to do.")
	default:
		a.printSummary(summary)
	}
	return nil
}

func (a *cliApp) printPlan(plan *reconcile.Plan) {
	for _, d := range plan.Diagnostics {
		fmt.Fprintln(a.out, color.Warn("warning:"), d.String())
	}
	for _, act := range plan.Actions {
		kind := act.Kind.String()
		line := fmt.Sprintf("%s %s (%s)", color.ForAction(kind).Sprintf("%-15s", kind), color.AgentPrefix(act.Identifier), act.Scope)
		if act.Target != "" && act.Target != act.Identifier {
			line += " -> " + act.Target
		}
		if act.Reason != "" {
			line += ": " + act.Reason
		}
		fmt.Fprintln(a.out, line)
	}
}

func (a *cliApp) printSummary(s *reconcile.Summary) {
	fmt.Fprintf(a.out, "Run %s: %d registered, %d copied, %d renamed, %d removed, %d skipped, %d failed\n",
		s.RunID, s.Registered, s.Copied, s.Renamed, s.Removed, s.Skipped, len(s.Failed))
	for _, f := range s.Failed {
		fmt.Fprintf(a.out, "  %s %s (%s): %s\n", color.Warn("failed"), f.Identifier, f.Scope, f.Reason)
	}
}

func (a *cliApp) runList(ctx context.Context) error {
	statuses, err := a.registry.List(ctx)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Fprintln(a.out, "No agents registered.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tSCOPES\tVERSION\tENABLED")
	for _, st := range statuses {
		scopes := make([]string, 0, len(st.Scopes))
		for _, s := range st.Scopes {
			scopes = append(scopes, s.String())
		}
		version := "-"
		if st.Entry != nil && st.Entry.Version != "" {
			version = st.Entry.Version
		}
		if len(scopes) == 0 {
			scopes = append(scopes, "-")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", st.Identifier, strings.Join(scopes, ","), version, st.Enabled)
	}
	return tw.Flush()
}

func (a *cliApp) runSetEnabled(ctx context.Context, id, scopeName string, enabled bool) error {
	if err := agentdef.ValidateIdentifier(id); err != nil {
		return err
	}
	s, err := scope.Parse(scopeName)
	if err != nil {
		return err
	}
	if err := a.registry.SetEnabled(ctx, s, id, enabled); err != nil {
		return err
	}
	effective, err := a.registry.IsEnabled(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s in %s scope (effective: %t)\n", color.AgentPrefix(id), map[bool]string{true: "enabled", false: "disabled"}[enabled], s, effective)
	return nil
}

func (a *cliApp) runRemove(ctx context.Context, id, scopeName string, purge bool) error {
	if err := agentdef.ValidateIdentifier(id); err != nil {
		return err
	}
	s, err := scope.Parse(scopeName)
	if err != nil {
		return err
	}
	removed, err := a.registry.Remove(ctx, s, id)
	if err != nil {
		return err
	}
	if purge {
		loc, err := a.locations.Get(s)
		if err != nil {
			return err
		}
		for _, p := range []string{loc.DefinitionPath(id), loc.DirectoryPath(id)} {
			if err := loc.Store.DeleteAll(ctx, p); err != nil {
				return fmt.Errorf("failed to delete %s: %w", loc.Describe(p), err)
			}
		}
	}
	if !removed && !purge {
		fmt.Fprintf(a.out, "%s is not registered in %s scope\n", color.AgentPrefix(id), s)
		return nil
	}
	fmt.Fprintf(a.out, "%s removed from %s scope\n", color.AgentPrefix(id), s)
	return nil
}

func (a *cliApp) runDiff(ctx context.Context, id string) error {
	plan, err := a.engine.Scan(ctx, reconcile.ScanOptions{})
	if err != nil {
		return err
	}
	defs := map[scope.Scope]*agentdef.Definition{}
	for _, def := range plan.Definitions {
		if def.Identifier == id {
			defs[def.Scope] = def
		}
	}
	user, project := defs[scope.User], defs[scope.Project]
	if user == nil || project == nil {
		return fmt.Errorf("%s must exist in both scopes to diff", id)
	}
	out, err := reconcile.Diff(user.RawText, project.RawText, user.SourcePath, project.SourcePath)
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Fprintln(a.out, "No differences.")
		return nil
	}
	fmt.Fprint(a.out, out)
	return nil
}

func (a *cliApp) runDeprecated() error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tRESOLUTION\tSUCCESSOR")
	for _, id := range a.migrations.AllDeprecated() {
		r := a.migrations.Resolve(id)
		successor := r.To
		if successor == "" {
			successor = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", id, r.Kind, successor)
	}
	return tw.Flush()
}

func (a *cliApp) runParse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := agentdef.ParseDocument(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	header, err := yaml.Marshal(map[string]any(doc.Header))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "# parsed in %s mode, body %d bytes\n", doc.Mode, len(doc.Body))
	_, err = a.out.Write(header)
	return err
}
