package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sort"

	"minhng/pricewatch/internal/catalog"
	"minhng/pricewatch/internal/run"
	"minhng/pricewatch/logger"
	"minhng/pricewatch/services/sheet"
)

// RunService is the slice of the runner the HTTP surface needs
type RunService interface {
	Start(ctx context.Context) bool
	Tracker() *run.Tracker
	PushPrices(ctx context.Context, skus []string, prices map[string]int) ([]run.PushResult, error)
}

// Server exposes the operator endpoints: fetch the table, start a run,
// poll progress, download the artifact and push price overrides.
type Server struct {
	runner       RunService
	store        sheet.Store
	artifactPath string
	log          *logger.Logger
}

// NewServer creates the HTTP surface
func NewServer(runner RunService, store sheet.Store, artifactPath string) *Server {
	return &Server{
		runner:       runner,
		store:        store,
		artifactPath: artifactPath,
		log:          logger.ForServer(),
	}
}

// Handler returns the route mux
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/data", s.handleData)
	mux.HandleFunc("/update", s.handleUpdate)
	mux.HandleFunc("/progress", s.handleProgress)
	mux.HandleFunc("/download", s.handleDownload)
	mux.HandleFunc("/push", s.handlePush)
	return mux
}

// handleData serves the current sheet as a JSON array of row objects
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.LoadAllRows(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load table for /data")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	table := catalog.ParseTable(records)
	writeJSON(w, http.StatusOK, table.Objects())
}

// handleUpdate starts a run in the background. The run keeps its own
// context; it must outlive this request.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.runner.Start(context.Background()) {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "already running"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// handleProgress reports run progress for the polling front-end
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	snapshot := s.runner.Tracker().Snapshot()

	switch snapshot.State {
	case run.StateRunning:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"percent": snapshot.Percent,
			"current": snapshot.Current,
			"total":   snapshot.Total,
			"status":  "processing",
		})
	case run.StateDone:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"percent": 100,
			"status":  "complete",
		})
	case run.StateError:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"percent": 0,
			"status":  snapshot.Message,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "not started"})
	}
}

// handleDownload serves the excel artifact from the last completed run
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.artifactPath); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "excel file not generated yet"})
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="ketqua_gia.xlsx"`)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, s.artifactPath)
}

type pushRequest struct {
	SKUs   []string       `json:"skus"`
	Prices map[string]int `json:"prices"`
}

// handlePush pushes chosen prices to the storefront and persists them
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
		return
	}

	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}
	if len(req.SKUs) == 0 && len(req.Prices) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty payload"})
		return
	}

	// A bare price map is allowed; the SKU list defaults to its keys.
	skus := req.SKUs
	if len(skus) == 0 {
		for sku := range req.Prices {
			skus = append(skus, sku)
		}
		sort.Strings(skus)
	}

	results, err := s.runner.PushPrices(r.Context(), skus, req.Prices)
	if err != nil {
		s.log.Error().Err(err).Msg("Price push failed")
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":   err.Error(),
			"results": results,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
