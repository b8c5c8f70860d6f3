package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskport/taskport/importer"
	"github.com/taskport/taskport/log"
	"github.com/taskport/taskport/models"
)

// isInputError reports whether a parse failure is the caller's fault (400)
func isInputError(err error) bool {
	return errors.Is(err, importer.ErrUnsupportedType) ||
		errors.Is(err, importer.ErrFileTooLarge) ||
		errors.Is(err, importer.ErrInvalidJSON) ||
		errors.Is(err, importer.ErrInvalidCSV) ||
		errors.Is(err, importer.ErrNoRecords)
}

// readImportFile validates and reads one uploaded multipart file
func (h *Handlers) readImportFile(file multipart.File, header *multipart.FileHeader) (string, []byte, error) {
	if err := importer.ValidateFile(header.Filename, header.Size, h.maxFileSize); err != nil {
		return "", nil, err
	}

	// Size header is client-supplied; cap the actual read too
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > h.maxFileSize {
		return "", nil, importer.ErrFileTooLarge
	}

	return header.Filename, data, nil
}

// ImportTodos handles POST /api/import
// Single-shot path: the whole file is normalized, deduplicated and fanned
// out to the upstream service within this one request.
func (h *Handlers) ImportTodos(c *gin.Context) {
	userID := currentUser(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondBadRequest(c, "A JSON or CSV file is required")
		return
	}
	defer file.Close()

	filename, data, err := h.readImportFile(file, header)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	records, err := importer.ParseFile(filename, data)
	if err != nil {
		if isInputError(err) {
			RespondBadRequest(c, err.Error())
		} else {
			log.Error().Err(err).Msg("import parse failed")
			RespondInternalError(c, "Failed to parse import file")
		}
		return
	}

	h.notif.NotifyImportStarted(userID, "", len(records))

	result, err := importer.RunBatch(c.Request.Context(), h.svc, userID, records, h.concurrency)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("batch import failed")
		RespondInternalError(c, "Import failed")
		return
	}

	// Best-effort; the cache self-corrects on next read-through
	if h.invalidate != nil {
		if err := h.invalidate(userID); err != nil {
			log.Warn().Err(err).Str("user", userID).Msg("todo cache invalidation failed")
		}
	}

	h.notif.NotifyImportCompleted(userID, result.Imported, result.Skipped, result.Total)

	log.Info().
		Str("user", userID).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("total", result.Total).
		Msg("single-shot import completed")

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"importedCount": result.Imported,
		"skippedCount":  result.Skipped,
		"totalCount":    result.Total,
		"message":       fmt.Sprintf("Imported %d todos, skipped %d duplicates", result.Imported, result.Skipped),
	})
}

// stagedInitBody is the JSON alternative to multipart init, referencing a
// completed TUS upload
type stagedInitBody struct {
	UploadID     string `json:"uploadId"`
	Filename     string `json:"filename"`
	SeedExisting bool   `json:"seedExisting"`
}

// StagedInit handles POST /api/import/staged
// Parses and partitions the upload into a new import session; no records
// are created until the caller drives the chunk endpoints.
func (h *Handlers) StagedInit(c *gin.Context) {
	userID := currentUser(c)

	var filename string
	var data []byte
	var seedExisting bool

	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			RespondBadRequest(c, "A JSON or CSV file is required")
			return
		}
		defer file.Close()

		filename, data, err = h.readImportFile(file, header)
		if err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
		seedExisting = c.PostForm("seedExisting") == "true"
	} else {
		var body stagedInitBody
		if err := c.ShouldBindJSON(&body); err != nil || body.UploadID == "" {
			RespondBadRequest(c, "uploadId and filename are required")
			return
		}

		uploaded, cleanup, err := h.readTUSUpload(body.UploadID)
		if err != nil {
			RespondBadRequest(c, "Upload not found")
			return
		}
		defer cleanup()

		filename = body.Filename
		if filename == "" {
			filename = "import.json"
		}
		if err := importer.ValidateFile(filename, int64(len(uploaded)), h.maxFileSize); err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
		data = uploaded
		seedExisting = body.SeedExisting
	}

	records, err := importer.ParseFile(filename, data)
	if err != nil {
		if isInputError(err) {
			RespondBadRequest(c, err.Error())
		} else {
			log.Error().Err(err).Msg("staged init parse failed")
			RespondInternalError(c, "Failed to parse import file")
		}
		return
	}

	result, err := h.orch.Init(c.Request.Context(), userID, records, seedExisting)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("staged init failed")
		RespondInternalError(c, "Failed to create import session")
		return
	}

	h.notif.NotifyImportStarted(userID, result.ImportID, result.Total)

	c.JSON(http.StatusOK, result)
}

// chunkBody is the request shape for both chunk endpoints
type chunkBody struct {
	ImportID string `json:"importId"`
	Cursor   int    `json:"cursor"`
	Limit    int    `json:"limit"`
}

func (h *Handlers) processChunk(c *gin.Context, children bool) {
	userID := currentUser(c)

	var body chunkBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ImportID == "" {
		RespondBadRequest(c, "importId is required")
		return
	}

	var result *importer.ChunkResult
	var err error
	stage := models.StageParents
	if children {
		stage = models.StageChildren
		result, err = h.orch.ProcessChildren(c.Request.Context(), userID, body.ImportID, body.Cursor, body.Limit)
	} else {
		result, err = h.orch.ProcessParents(c.Request.Context(), userID, body.ImportID, body.Cursor, body.Limit)
	}
	if err != nil {
		if errors.Is(err, importer.ErrSessionNotFound) {
			RespondNotFound(c, "Import not found or expired")
			return
		}
		log.Error().Err(err).Str("importId", body.ImportID).Msg("chunk processing failed")
		RespondInternalError(c, "Chunk processing failed")
		return
	}

	h.notif.NotifyImportProgress(userID, body.ImportID, stage, result.Imported, result.Skipped)

	c.JSON(http.StatusOK, result)
}

// StagedParents handles POST /api/import/staged/parents
func (h *Handlers) StagedParents(c *gin.Context) {
	h.processChunk(c, false)
}

// StagedChildren handles POST /api/import/staged/children
func (h *Handlers) StagedChildren(c *gin.Context) {
	h.processChunk(c, true)
}

// StagedProgress handles GET /api/import/staged/progress?importId=
func (h *Handlers) StagedProgress(c *gin.Context) {
	userID := currentUser(c)

	importID := c.Query("importId")
	if importID == "" {
		RespondBadRequest(c, "importId is required")
		return
	}

	status, err := h.orch.Progress(userID, importID)
	if err != nil {
		if errors.Is(err, importer.ErrSessionNotFound) {
			RespondNotFound(c, "Import not found or expired")
			return
		}
		log.Error().Err(err).Str("importId", importID).Msg("progress lookup failed")
		RespondInternalError(c, "Progress lookup failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"importId": importID,
		"stage":    status.Stage,
		"parents":  status.Parents,
		"children": status.Children,
	})
}
