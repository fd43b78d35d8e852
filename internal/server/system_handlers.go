package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/loonie/internal/database"
	"github.com/aristath/loonie/internal/scheduler"
	"github.com/aristath/loonie/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log          zerolog.Logger
	dataDir      string
	cacheBackend string
	startupTime  time.Time
	clientDataDB *database.DB
	scheduler    *scheduler.Scheduler
	rates        *services.ExchangeRateCacheService
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	cacheBackend string,
	clientDataDB *database.DB,
	sched *scheduler.Scheduler,
	rates *services.ExchangeRateCacheService,
) *SystemHandlers {
	return &SystemHandlers{
		log:          log.With().Str("component", "system_handlers").Logger(),
		dataDir:      dataDir,
		cacheBackend: cacheBackend,
		startupTime:  time.Now(),
		clientDataDB: clientDataDB,
		scheduler:    sched,
		rates:        rates,
	}
}

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status        string             `json:"status"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	CPUPercent    float64            `json:"cpu_percent"`
	RAMPercent    float64            `json:"ram_percent"`
	DataDir       string             `json:"data_dir"`
	CacheBackend  string             `json:"cache_backend"`
	Rate          *services.RateInfo `json:"rate,omitempty"`
	Database      *DBInfo            `json:"database,omitempty"`
	Jobs          []scheduler.Entry  `json:"jobs"`
	LastChecked   string             `json:"last_checked"`
}

// JobsStatusResponse represents scheduler job status
type JobsStatusResponse struct {
	TotalJobs int               `json:"total_jobs"`
	Jobs      []scheduler.Entry `json:"jobs"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	PageCount int64   `json:"page_count"`
	PageSize  int64   `json:"page_size"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		DataDir:       h.dataDir,
		CacheBackend:  h.cacheBackend,
		Jobs:          h.jobEntries(),
		LastChecked:   time.Now().Format(time.RFC3339),
	}

	if h.rates != nil {
		if info, ok := h.rates.RateInfo(r.Context()); ok {
			response.Rate = &info
		}
	}

	if info, err := h.databaseInfo(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to read database stats")
		response.Status = "degraded"
	} else {
		response.Database = info
	}

	h.writeJSON(w, response)
}

// HandleJobsStatus handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobEntries()
	h.writeJSON(w, JobsStatusResponse{
		TotalJobs: len(jobs),
		Jobs:      jobs,
	})
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		http.Error(w, "Scheduler not available", http.StatusServiceUnavailable)
		return
	}

	name := chi.URLParam(r, "name")
	known := false
	for _, entry := range h.scheduler.Entries() {
		if entry.Name == name {
			known = true
			break
		}
	}
	if !known {
		http.Error(w, "Unknown job: "+name, http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")
	if err := h.scheduler.RunByName(name); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]string{"status": "success", "message": name + " completed"})
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	response := DatabaseStatsResponse{
		Databases:   []DBInfo{},
		LastChecked: time.Now().Format(time.RFC3339),
	}

	info, err := h.databaseInfo()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read database stats")
		http.Error(w, "Failed to read database stats", http.StatusInternalServerError)
		return
	}
	if info != nil {
		response.Databases = append(response.Databases, *info)
		response.TotalSizeMB = info.SizeMB + info.WALSizeMB
	}

	h.writeJSON(w, response)
}

func (h *SystemHandlers) jobEntries() []scheduler.Entry {
	if h.scheduler == nil {
		return []scheduler.Entry{}
	}
	return h.scheduler.Entries()
}

// databaseInfo returns nil without error when no database is configured
func (h *SystemHandlers) databaseInfo() (*DBInfo, error) {
	if h.clientDataDB == nil {
		return nil, nil
	}

	stats, err := h.clientDataDB.GetStats()
	if err != nil {
		return nil, err
	}

	return &DBInfo{
		Name:      h.clientDataDB.Name(),
		Path:      h.clientDataDB.Path(),
		SizeMB:    float64(stats.SizeBytes) / 1024 / 1024,
		WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
		PageCount: stats.PageCount,
		PageSize:  stats.PageSize,
	}, nil
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms sample keeps the status call responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
