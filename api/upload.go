package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tus/tusd/v2/pkg/filestore"
	tusd "github.com/tus/tusd/v2/pkg/handler"
	"github.com/taskport/taskport/config"
	"github.com/taskport/taskport/log"
)

var (
	tusHandler     http.Handler
	tusHandlerOnce sync.Once
	uploadDir      string
)

// InitTUSHandler initializes the TUS upload handler
func InitTUSHandler() (http.Handler, error) {
	var initErr error
	tusHandlerOnce.Do(func() {
		cfg := config.Get()
		uploadDir = filepath.Join(cfg.DataDir, "app", "taskport", "uploads")

		// Ensure upload directory exists
		if err := os.MkdirAll(uploadDir, 0755); err != nil {
			initErr = err
			return
		}

		// Create file store
		store := filestore.New(uploadDir)

		// Create TUS handler
		composer := tusd.NewStoreComposer()
		store.UseIn(composer)

		handler, err := tusd.NewHandler(tusd.Config{
			BasePath:                "/api/import/tus/",
			StoreComposer:           composer,
			RespectForwardedHeaders: true,
			MaxSize:                 cfg.ImportMaxFileSize,
		})
		if err != nil {
			initErr = err
			return
		}

		tusHandler = handler
		log.Info().Str("dir", uploadDir).Msg("TUS handler initialized")
	})
	return tusHandler, initErr
}

// TUSHandler handles all TUS protocol requests
func (h *Handlers) TUSHandler(c *gin.Context) {
	handler, err := InitTUSHandler()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize TUS handler")
		RespondInternalError(c, "Failed to initialize upload handler")
		return
	}

	log.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("TUS request received")

	// Manually strip the /api/import/tus prefix from the request URL.
	// The TUS handler expects paths relative to its base path, and
	// http.StripPrefix doesn't compose with Gin's wildcard routes.
	originalPath := c.Request.URL.Path
	c.Request.URL.Path = strings.TrimPrefix(originalPath, "/api/import/tus")

	handler.ServeHTTP(c.Writer, c.Request)

	c.Request.URL.Path = originalPath
}

// readTUSUpload reads a completed TUS upload from disk and returns its
// content along with a cleanup func that removes the upload artifacts.
func (h *Handlers) readTUSUpload(uploadID string) ([]byte, func(), error) {
	if _, err := InitTUSHandler(); err != nil {
		return nil, nil, err
	}

	// uploadID comes from the client; never let it escape the upload dir
	id := filepath.Base(uploadID)
	if id == "." || id == ".." || id == "/" {
		return nil, nil, fmt.Errorf("invalid upload id")
	}

	srcPath := filepath.Join(uploadDir, id)
	if _, err := os.Stat(srcPath); err != nil {
		// Some filestore versions append .bin to the data file
		srcPath = srcPath + ".bin"
		if _, err := os.Stat(srcPath); err != nil {
			return nil, nil, fmt.Errorf("upload %s not found", id)
		}
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		os.Remove(srcPath)
		os.Remove(filepath.Join(uploadDir, id+".info"))
	}

	return data, cleanup, nil
}
