package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matias-olea/inmobrain/internal/knowledge"
	"github.com/matias-olea/inmobrain/internal/storage"
	"github.com/matias-olea/inmobrain/internal/utils"
)

const maxUploadBytes = 10 << 20

type KnowledgeHandler struct {
	svc      knowledge.Service
	uploader storage.Uploader
}

func NewKnowledgeHandler(svc knowledge.Service, uploader storage.Uploader) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc, uploader: uploader}
}

type IngestRequest struct {
	Content string         `json:"content" binding:"required"`
	Source  string         `json:"source"`
	Topic   string         `json:"topic"`
	Tags    []string       `json:"tags"`
	Extra   map[string]any `json:"extra"`
}

func (h *KnowledgeHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "KnowledgeHandler.Ingest", "invalid request body", err))
		return
	}

	id, err := h.svc.Ingest(c.Request.Context(), req.Content, knowledge.Metadata{
		Source: req.Source,
		Topic:  req.Topic,
		Tags:   req.Tags,
		Extra:  req.Extra,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *KnowledgeHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	docs, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *KnowledgeHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("doc_id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Upload ingests a text-bearing file. The raw file is archived to object
// storage before extraction so the original can be re-processed later.
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	const op = "KnowledgeHandler.Upload"

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file is required", err))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file exceeds 10MB limit", nil))
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".txt", ".md", ".csv":
	default:
		writeError(c, utils.E(utils.CodeInvalidArgument, op,
			"Formato de archivo no soportado. Use texto plano (.txt, .md) o CSV.", nil))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}
	content := strings.TrimSpace(string(raw))
	if content == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op,
			"El archivo está vacío o no se pudo extraer texto.", nil))
		return
	}

	meta := knowledge.Metadata{
		Source: fileHeader.Filename,
		Topic:  c.PostForm("topic"),
	}
	if extraRaw := c.PostForm("metadata"); extraRaw != "" {
		if err := json.Unmarshal([]byte(extraRaw), &meta.Extra); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid metadata json", err))
			return
		}
	}

	storedPath := ""
	if h.uploader != nil {
		objectName := "knowledge/" + uuid.NewString() + ext
		storedPath, err = h.uploader.Upload(c.Request.Context(), objectName,
			fileHeader.Header.Get("Content-Type"), strings.NewReader(string(raw)))
		if err != nil {
			writeError(c, utils.E(utils.CodeUnavailable, op, "failed to archive source file", err))
			return
		}
		if meta.Extra == nil {
			meta.Extra = map[string]any{}
		}
		meta.Extra["stored_path"] = storedPath
	}

	id, err := h.svc.Ingest(c.Request.Context(), content, meta)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":              id,
		"stored_path":     storedPath,
		"chars_extracted": len(content),
	})
}
