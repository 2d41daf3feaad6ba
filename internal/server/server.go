// Package server 저장된 리포트 산출물을 HTTP로 제공한다.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"kstock/internal/report"
)

// Server 리포트 보관소 HTTP 서버
type Server struct {
	addr    string
	archive *report.Archive
	engine  *gin.Engine
}

// New 라우트를 등록한 Server 생성
func New(addr string, archive *report.Archive) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{addr: addr, archive: archive, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLogger())

	s.engine.GET("/healthz", s.health)
	s.engine.GET("/reports", s.listReports)
	s.engine.GET("/reports/latest/picks", s.latestPicks)
	s.engine.GET("/reports/:name", s.getReport)
	return s
}

// Handler 테스트용 http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run ctx가 끝나면 graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("Report archive listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down report archive")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listReports(c *gin.Context) {
	list, err := s.archive.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []report.Artifact{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": list})
}

func (s *Server) getReport(c *gin.Context) {
	path, err := s.archive.Path(c.Param("name"))
	switch {
	case errors.Is(err, report.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, report.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", contentType(mtype, path))
	c.File(path)
}

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// contentType zip 컨테이너 순서에 따라 xlsx가 zip으로 감지되는 경우 보정
func contentType(mtype *mimetype.MIME, path string) string {
	if mtype.Is("application/zip") && strings.HasSuffix(path, ".xlsx") {
		return xlsxMIME
	}
	return mtype.String()
}

func (s *Server) latestPicks(c *gin.Context) {
	doc, err := s.archive.Latest()
	if errors.Is(err, report.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no reports yet"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":         doc.Mode,
		"generated_at": doc.GeneratedAt,
		"bonus":        doc.Bonus,
		"picks":        doc.Picks,
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}
