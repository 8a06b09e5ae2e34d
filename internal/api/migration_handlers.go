package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/storeport/storeport/internal/migration"
	"github.com/storeport/storeport/internal/replay"
)

// SnapshotStore provides thread-safe storage for completed run snapshots,
// keyed by the job that produced them. Replay reads from here, never from
// orchestrator state.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]*replay.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]*replay.Snapshot)}
}

func (ss *SnapshotStore) Store(jobID string, snap *replay.Snapshot) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.snapshots[jobID] = snap
}

func (ss *SnapshotStore) Get(jobID string) *replay.Snapshot {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.snapshots[jobID]
}

func (ss *SnapshotStore) Delete(jobID string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.snapshots, jobID)
}

// StartMigration starts an async migration run against the configured
// source (or an overriding source URL from the request body).
func (s *Server) StartMigration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceURL string `json:"source_url"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	cfg := *s.Config
	if req.SourceURL != "" {
		cfg.Source.BaseURL = req.SourceURL
	}
	if cfg.Source.BaseURL == "" {
		writeError(w, http.StatusBadRequest, "no source URL configured")
		return
	}

	job := s.Jobs.Create("migration-run")

	go func() {
		runner := &migration.Runner{Config: &cfg}
		result, err := runner.Run(job.Context(), job.AppendLog)
		if err != nil {
			// A cancelled job already holds its terminal status; Fail is
			// a no-op in that case.
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		if result.Snapshot != nil {
			s.Snapshots.Store(job.ID, result.Snapshot)
		}
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// GetSnapshotSummary returns entity counts for a completed run's snapshot.
func (s *Server) GetSnapshotSummary(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")

	job := s.Jobs.Get(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	switch job.CurrentStatus() {
	case "running":
		writeJSON(w, http.StatusConflict, map[string]string{
			"status":  "running",
			"message": "migration is still in progress",
		})
		return
	case "failed":
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "failed",
			"error":  job.Error,
		})
		return
	}

	snap := s.Snapshots.Get(jobID)
	if snap == nil {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "completed",
		"store_id": snap.StoreID,
		"run":      snap.Timestamp,
		"summary":  snap.Summary(),
	})
}

// RunReplay provisions a target store from a previously captured snapshot.
func (s *Server) RunReplay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SnapshotJobID string             `json:"snapshot_job_id"`
		Credentials   replay.Credentials `json:"credentials"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	snap := s.Snapshots.Get(req.SnapshotJobID)
	if snap == nil {
		writeError(w, http.StatusNotFound, "snapshot not found: run a migration first")
		return
	}
	if s.Provisioner == nil {
		writeError(w, http.StatusNotImplemented, "no replay provisioner configured")
		return
	}

	job := s.Jobs.Create("replay")

	go func() {
		driver := replay.NewDriver(s.Provisioner)
		err := driver.Replay(job.Context(), req.Credentials, snap, job.AppendLog)
		if err != nil {
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		job.Complete()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}
