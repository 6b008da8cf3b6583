package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/medscan/internal/config"
	"github.com/ironsheep/medscan/internal/extract"
	"github.com/ironsheep/medscan/internal/httpapi"
	"github.com/ironsheep/medscan/internal/imaging"
	"github.com/ironsheep/medscan/internal/logger"
	"github.com/ironsheep/medscan/internal/ocr"
	"github.com/ironsheep/medscan/internal/records"
	"github.com/ironsheep/medscan/internal/scan"
	"github.com/ironsheep/medscan/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("medscan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "medscan: %v\n", err)
		os.Exit(2)
	}
	logger.SetLevel(cfg.LogLevel)

	server.Version = Version
	httpapi.Version = Version

	logger.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
		"mode":    cfg.Mode,
	}).Debug("medscan starting")

	pipeline, err := newPipeline(cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to build scan pipeline")
	}

	if cfg.Mode == config.ModeScan {
		if err := scanFile(pipeline, cfg.Args[0]); err != nil {
			logger.WithError(err).Fatal("scan failed")
		}
		return
	}

	store, err := records.Open(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to open record store")
	}
	defer store.Close()

	switch cfg.Mode {
	case config.ModeHTTP:
		if logger.Logger.GetLevel() < logrus.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}
		err = serveHTTP(cfg.HTTPAddr, httpapi.NewHandler(pipeline, store, httpapi.Options{}))
	default:
		err = server.New(pipeline, store).Run()
	}
	if err != nil {
		logger.WithError(err).Error("server error")
		store.Close()
		os.Exit(1)
	}
}

func newPipeline(cfg *config.Config) (*scan.Pipeline, error) {
	vocab := extract.DefaultVocabulary()
	if cfg.VocabularyPath != "" {
		var err error
		vocab, err = extract.LoadVocabulary(cfg.VocabularyPath)
		if err != nil {
			return nil, err
		}
	}

	var enhancer *imaging.Enhancer
	if cfg.Enhance {
		enhancer = imaging.NewEnhancer(cfg.Contrast, cfg.MaxDimension)
	}

	p := scan.NewPipeline(enhancer, ocr.NewTesseract(), extract.New(vocab), cfg.TempDir)
	p.Language = cfg.Language
	return p, nil
}

// scanFile runs one image through the pipeline and prints the result as JSON.
func scanFile(pipeline *scan.Pipeline, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	result, err := pipeline.Scan(scan.Input{Data: data, Format: filepath.Ext(path)})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func serveHTTP(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}
