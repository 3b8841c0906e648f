package system

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"

	domainimage "printpress-server-go/internal/domain/image"
	"printpress-server-go/internal/platform/config"
	"printpress-server-go/internal/platform/errors"
	"printpress-server-go/internal/platform/storage"
	httptransport "printpress-server-go/internal/transport/http"
	"printpress-server-go/internal/utils"
)

// Service exposes health and audit-log endpoints.
type Service struct {
	logger   *utils.Logger
	config   *config.Config
	pipeline *domainimage.Pipeline
	jobs     storage.JobRepository // nil when storage is disabled
	started  time.Time
}

// HealthData is the GET /system/health payload.
type HealthData struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Goroutines    int    `json:"goroutines"`
	HeapAllocMB   uint64 `json:"heap_alloc_mb"`
	HeapSysMB     uint64 `json:"heap_sys_mb"`
	RSSMB         uint64 `json:"rss_mb"`
	InFlight      int64  `json:"in_flight"`
	MaxConcurrent int    `json:"max_concurrent"`
}

func NewService(
	cfg *config.Config,
	logger *utils.Logger,
	pipeline *domainimage.Pipeline,
	jobs storage.JobRepository,
) (*Service, error) {
	if cfg == nil {
		return nil, errors.Wrap(errors.KindConfig, "system.new", "config is required", nil)
	}
	if logger == nil {
		return nil, errors.Wrap(errors.KindConfig, "system.new", "logger is required", nil)
	}
	if pipeline == nil {
		return nil, errors.Wrap(errors.KindConfig, "system.new", "pipeline is required", nil)
	}

	return &Service{
		logger:   logger,
		config:   cfg,
		pipeline: pipeline,
		jobs:     jobs,
		started:  time.Now(),
	}, nil
}

// Register wires the system routes.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	group := router.Group("/system")
	group.GET("/health", s.handleHealth)
	group.GET("/jobs", s.handleJobs)

	s.logger.InfoTag("HTTP", "system service routes registered")
	return nil
}

func (s *Service) handleHealth(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	data := HealthData{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   mem.HeapAlloc >> 20,
		HeapSysMB:     mem.HeapSys >> 20,
		RSSMB:         s.residentSetMB(),
		InFlight:      s.pipeline.InFlight(),
		MaxConcurrent: s.config.Pipeline.MaxConcurrent,
	}

	httptransport.RespondSuccess(c, http.StatusOK, data, "")
}

// residentSetMB reads the process RSS; 0 when the platform query fails.
func (s *Service) residentSetMB() uint64 {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	info, err := proc.MemoryInfo()
	if err != nil || info == nil {
		return 0
	}
	return info.RSS >> 20
}

func (s *Service) handleJobs(c *gin.Context) {
	if s.jobs == nil {
		httptransport.RespondError(c, http.StatusNotFound, "job audit log is disabled", nil)
		return
	}

	limit := s.config.Storage.JobHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httptransport.RespondError(c, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		if limit <= 0 || n < limit {
			limit = n
		}
	}

	jobs, err := s.jobs.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.ErrorTag("SYSTEM", "failed to list resize jobs: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "failed to list resize jobs", nil)
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)}, "")
}
