package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"logtrail/internal/export"
	"logtrail/internal/model"
	"logtrail/internal/query"
	"logtrail/internal/stream"
	"logtrail/internal/util/logx"
	"logtrail/internal/version"
)

// Controller is the narrow contract the HTTP API needs from the stream
// controller.
type Controller interface {
	State() model.StreamState
	Stats() stream.Stats
	LevelCounts() map[string]int
	Records(v query.View) ([]model.LogRecord, error)

	SelectFile(ctx context.Context, path string) error
	StartLoad(ctx context.Context, force bool) error
	ToggleMonitoring(ctx context.Context) error
	ClearLogs(ctx context.Context) error
	CancelLoading(ctx context.Context) error
}

// Server exposes the controller as a small JSON API.
type Server struct {
	addr      string
	ctrl      Controller
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

func NewServer(addr string, ctrl Controller) *Server {
	if addr == "" {
		addr = "127.0.0.1:7070"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		ctrl:   ctrl,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(logx.Writer(logx.Debug)), gin.RecoveryWithWriter(logx.Writer(logx.Error)))

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/state", s.handleState)
	r.GET("/api/levels", s.handleLevels)
	r.GET("/api/logs", s.handleLogs)
	r.POST("/api/select", s.handleSelect)
	r.POST("/api/load", s.handleLoad)
	r.POST("/api/monitoring/toggle", s.handleToggle)
	r.POST("/api/clear", s.handleClear)
	r.POST("/api/cancel", s.handleCancel)
	return r
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = listener.Addr().String()
	s.startTime = time.Now()
	logx.Infof("httpserver: listening on %s", s.addr)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Errorf("httpserver: serve: %v", err)
		}
	}()
	return nil
}

// Addr is the bound address once Start has returned.
func (s *Server) Addr() string { return s.addr }

func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).String(),
		"version": version.String(),
	})
}

func (s *Server) handleState(c *gin.Context) {
	st := s.ctrl.State()
	c.JSON(http.StatusOK, gin.H{
		"state":    st,
		"progress": st.Progress(),
		"stats":    s.ctrl.Stats(),
	})
}

func (s *Server) handleLevels(c *gin.Context) {
	counts := s.ctrl.LevelCounts()
	total := 0
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"levels": counts, "total": total})
}

func (s *Server) handleLogs(c *gin.Context) {
	view, err := viewFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	redact := false
	if raw := c.Query("redact"); raw != "" {
		if redact, err = strconv.ParseBool(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "redact must be a boolean"})
			return
		}
	}
	recs, err := s.ctrl.Records(view)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if redact {
		recs = export.RedactRecords(recs)
	}

	if format == export.FormatJSON {
		if recs == nil {
			recs = []model.LogRecord{}
		}
		c.JSON(http.StatusOK, gin.H{"count": len(recs), "records": recs})
		return
	}
	c.Header("Content-Type", format.ContentType())
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, format, recs); err != nil {
		logx.Warnf("httpserver: write %s export: %v", format, err)
	}
}

func viewFromQuery(c *gin.Context) (query.View, error) {
	v := query.View{
		Search: c.Query("q"),
		Field:  c.Query("field"),
		Expr:   c.Query("expr"),
	}
	for _, l := range c.QueryArray("level") {
		for _, part := range strings.Split(l, ",") {
			if part = strings.TrimSpace(part); part != "" {
				v.Levels = append(v.Levels, part)
			}
		}
	}
	if raw := c.Query("sort"); raw != "" {
		f, err := query.ParseSortField(raw)
		if err != nil {
			return v, err
		}
		v.Sort = f
	}
	switch strings.ToLower(c.DefaultQuery("order", "asc")) {
	case "asc":
	case "desc":
		v.Descending = true
	default:
		return v, errors.New("order must be asc or desc")
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return v, errors.New("limit must be a non-negative integer")
		}
		v.Limit = n
	}
	return v, nil
}

func (s *Server) handleSelect(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing path field"})
		return
	}
	s.command(c, func(ctx context.Context) error { return s.ctrl.SelectFile(ctx, req.Path) })
}

func (s *Server) handleLoad(c *gin.Context) {
	var req struct {
		Force bool `json:"force"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
	}
	s.command(c, func(ctx context.Context) error { return s.ctrl.StartLoad(ctx, req.Force) })
}

func (s *Server) handleToggle(c *gin.Context) {
	s.command(c, s.ctrl.ToggleMonitoring)
}

func (s *Server) handleClear(c *gin.Context) {
	s.command(c, s.ctrl.ClearLogs)
}

func (s *Server) handleCancel(c *gin.Context) {
	s.command(c, s.ctrl.CancelLoading)
}

// command runs fn and answers with the resulting state, or with the error
// mapped to a status code.
func (s *Server) command(c *gin.Context, fn func(context.Context) error) {
	if err := fn(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.ctrl.State()})
}

func statusFor(err error) int {
	var cmdErr *stream.CommandError
	switch {
	case stream.IsConflict(err):
		return http.StatusConflict
	case errors.As(err, &cmdErr):
		return http.StatusBadGateway
	case errors.Is(err, stream.ErrEmptyPath):
		return http.StatusBadRequest
	case errors.Is(err, stream.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
