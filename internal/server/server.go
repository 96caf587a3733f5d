// Package server exposes raw and summary tables over a read-only JSON API.
package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cwbudde/algo-rotation/checkpoint"
	"github.com/cwbudde/algo-rotation/internal/obs"
	"github.com/cwbudde/algo-rotation/lightcurve"
	"github.com/cwbudde/algo-rotation/measure/reconcile"
	"github.com/cwbudde/algo-rotation/measure/rotation"
	"github.com/cwbudde/algo-rotation/table"
)

// Config locates the tables served.
type Config struct {
	Addr        string
	RawPath     string
	SummaryPath string
	// Reconcile is used for stars requested from the raw table.
	Reconcile reconcile.Config
}

// Server bundles router and dependencies for the results API. Tables are
// read on every request so a running pipeline's progress is visible.
type Server struct {
	cfg     Config
	metrics *obs.Metrics
	engine  *gin.Engine
}

// New constructs a server with routes and middleware. metrics may be nil.
func New(cfg Config, metrics *obs.Metrics) *Server {
	if cfg.Reconcile == (reconcile.Config{}) {
		cfg.Reconcile = reconcile.DefaultConfig()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(metricsMiddleware(metrics))

	s := &Server{cfg: cfg, metrics: metrics, engine: engine}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/stars", s.handleListStars)
	s.engine.GET("/stars/:tic", s.handleGetStar)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

func metricsMiddleware(m *obs.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) handleListStars(c *gin.Context) {
	rows, err := table.ReadSummary(s.cfg.SummaryPath)
	if errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no summary table"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	autovalOnly := false
	if v := c.Query("autoval"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid autoval parameter"})
			return
		}
		autovalOnly = b
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	stars := make([]starSummary, 0, len(rows))
	for _, r := range rows {
		if autovalOnly && r.AutoVal != reconcile.AutoValTrue {
			continue
		}
		stars = append(stars, newStarSummary(r))
		if limit > 0 && len(stars) == limit {
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(stars), "stars": stars})
}

func (s *Server) handleGetStar(c *gin.Context) {
	id := checkpoint.NormalizeID(c.Param("tic"))
	raw, err := table.ReadRaw(s.cfg.RawPath)
	if errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no raw table"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	for _, r := range raw.Rows {
		if checkpoint.NormalizeID(r.StarID) != id {
			continue
		}
		rec := s.cfg.Reconcile.Reconcile(r.StarID, r.Sectors)
		sectors := make([]sectorView, 0, len(r.Sectors))
		for _, m := range r.Sectors {
			if m.Valid {
				sectors = append(sectors, newSectorView(m, s.cfg.Reconcile))
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"tic":     r.StarID,
			"extra":   r.Extra,
			"sectors": sectors,
			"summary": newStarSummary(table.SummaryFromRecord(rec, table.Magnitude(r.Extra))),
			"warning": rec.Warning,
		})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "star not found", "tic": id})
}

type sectorView struct {
	Sector      string           `json:"sector"`
	Period      lightcurve.Value `json:"period"`
	Uncertainty lightcurve.Value `json:"uncertainty"`
	Power       lightcurve.Value `json:"power"`
	MedianPower lightcurve.Value `json:"median_power"`
	AliasFlag   lightcurve.Value `json:"alias_flag"`
	SNR         lightcurve.Value `json:"snr"`
	Detected    bool             `json:"detected"`
}

func newSectorView(m rotation.SectorMetric, cfg reconcile.Config) sectorView {
	return sectorView{
		Sector:      m.Sector,
		Period:      lightcurve.Value(m.Period),
		Uncertainty: lightcurve.Value(m.Uncertainty),
		Power:       lightcurve.Value(m.Power),
		MedianPower: lightcurve.Value(m.MedianPower),
		AliasFlag:   lightcurve.Value(m.AliasFlag),
		SNR:         lightcurve.Value(m.SNR()),
		Detected:    cfg.Detect(m),
	}
}

type starSummary struct {
	TIC         string           `json:"tic"`
	FinalProt   lightcurve.Value `json:"final_prot"`
	FinalUnc    lightcurve.Value `json:"final_unc"`
	AutoVal     string           `json:"autoval"`
	Detect      int              `json:"detect"`
	Matches     lightcurve.Value `json:"matches"`
	Sectors     int              `json:"sectors"`
	Reliable    bool             `json:"reliable"`
	GMag        lightcurve.Value `json:"gmag"`
	SNR         lightcurve.Value `json:"snr"`
	Power       lightcurve.Value `json:"power"`
	MedianPower lightcurve.Value `json:"mpower"`
	FracUnc     lightcurve.Value `json:"func"`
}

func newStarSummary(r table.SummaryRow) starSummary {
	return starSummary{
		TIC:         r.StarID,
		FinalProt:   lightcurve.Value(r.FinalProt),
		FinalUnc:    lightcurve.Value(r.FinalUnc),
		AutoVal:     r.AutoVal.String(),
		Detect:      r.Detect,
		Matches:     lightcurve.Value(r.Matches),
		Sectors:     r.Sectors,
		Reliable:    r.Reliable,
		GMag:        lightcurve.Value(r.GMag),
		SNR:         lightcurve.Value(r.SNR),
		Power:       lightcurve.Value(r.Power),
		MedianPower: lightcurve.Value(r.MPower),
		FracUnc:     lightcurve.Value(r.FracUnc),
	}
}
