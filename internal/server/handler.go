package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/agentsync/internal/agentdef"
	"github.com/kazz187/agentsync/internal/reconcile"
	"github.com/kazz187/agentsync/internal/registry"
	"github.com/kazz187/agentsync/internal/scope"
	"github.com/kazz187/agentsync/pkg/cerr"
	"github.com/kazz187/agentsync/pkg/clog"
)

type listAgentsResponse struct {
	Agents []registry.Status `json:"agents"`
}

type deprecatedAgent struct {
	Identifier string `json:"identifier"`
	Resolution string `json:"resolution"`
	Successor  string `json:"successor,omitempty"`
}

type listDeprecatedResponse struct {
	Agents []deprecatedAgent `json:"agents"`
}

type syncRequest struct {
	CopyToProject   bool `json:"copyToProject"`
	PruneDeprecated bool `json:"pruneDeprecated"`
}

type syncResponse struct {
	Actions     []reconcile.Action `json:"actions"`
	Diagnostics []string           `json:"diagnostics"`
	Summary     *reconcile.Summary `json:"summary,omitempty"`
}

func newSyncResponse(plan *reconcile.Plan, summary *reconcile.Summary) *syncResponse {
	res := &syncResponse{
		Actions:     plan.Actions,
		Diagnostics: make([]string, 0, len(plan.Diagnostics)),
		Summary:     summary,
	}
	if res.Actions == nil {
		res.Actions = []reconcile.Action{}
	}
	for _, d := range plan.Diagnostics {
		res.Diagnostics = append(res.Diagnostics, d.String())
	}
	return res
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.registry.List(r.Context())
	if err != nil {
		cerr.WriteError(r.Context(), w, err)
		return
	}
	cerr.WriteJSON(r.Context(), w, &listAgentsResponse{Agents: statuses})
}

func (s *Server) listDeprecated(w http.ResponseWriter, r *http.Request) {
	res := &listDeprecatedResponse{Agents: []deprecatedAgent{}}
	for _, id := range s.migrations.AllDeprecated() {
		resolution := s.migrations.Resolve(id)
		res.Agents = append(res.Agents, deprecatedAgent{
			Identifier: id,
			Resolution: resolution.Kind.String(),
			Successor:  resolution.To,
		})
	}
	cerr.WriteJSON(r.Context(), w, res)
}

// plan previews a sync. Options come from the query string.
func (s *Server) plan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	copyToProject, err1 := parseBool(q.Get("copyToProject"))
	prune, err2 := parseBool(q.Get("pruneDeprecated"))
	if err := errors.Join(err1, err2); err != nil {
		cerr.WriteError(r.Context(), w, cerr.NewError(cerr.InvalidArgument, "invalid query parameter", err))
		return
	}

	plan, _, err := s.syncer.Sync(r.Context(), reconcile.SyncOptions{
		ScanOptions: reconcile.ScanOptions{CopyToProject: copyToProject, PruneDeprecated: prune},
		DryRun:      true,
	})
	if err != nil {
		cerr.WriteError(r.Context(), w, err)
		return
	}
	cerr.WriteJSON(r.Context(), w, newSyncResponse(plan, nil))
}

func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		cerr.WriteError(r.Context(), w, cerr.NewError(cerr.InvalidArgument, "invalid request body", err))
		return
	}

	plan, summary, err := s.syncer.Sync(r.Context(), reconcile.SyncOptions{
		ScanOptions: reconcile.ScanOptions{CopyToProject: req.CopyToProject, PruneDeprecated: req.PruneDeprecated},
	})
	if err != nil {
		cerr.WriteError(r.Context(), w, err)
		return
	}
	if summary != nil {
		clog.AddAttribute(r.Context(), clog.RunAttributeKey, summary.RunID)
	}
	cerr.WriteJSON(r.Context(), w, newSyncResponse(plan, summary))
}

// setEnabled toggles an identifier in one scope, the project scope unless
// ?scope= says otherwise.
func (s *Server) setEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")
		if err := agentdef.ValidateIdentifier(id); err != nil {
			cerr.WriteError(ctx, w, cerr.NewError(cerr.InvalidArgument, err.Error(), err))
			return
		}
		sc := scope.Project
		if v := r.URL.Query().Get("scope"); v != "" {
			parsed, err := scope.Parse(v)
			if err != nil {
				cerr.WriteError(ctx, w, cerr.NewError(cerr.InvalidArgument, err.Error(), err))
				return
			}
			sc = parsed
		}
		clog.AddAttributes(ctx, map[string]any{
			clog.AgentAttributeKey: id,
			clog.ScopeAttributeKey: sc.String(),
		})

		if err := s.registry.SetEnabled(ctx, sc, id, enabled); err != nil {
			cerr.WriteError(ctx, w, err)
			return
		}
		enabledNow, err := s.registry.IsEnabled(ctx, id)
		if err != nil {
			cerr.WriteError(ctx, w, err)
			return
		}
		cerr.WriteJSON(ctx, w, map[string]any{"identifier": id, "scope": sc, "enabled": enabledNow})
	}
}

func parseBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
