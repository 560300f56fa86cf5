package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/matias-olea/inmobrain/internal/models"
	"github.com/matias-olea/inmobrain/internal/services"
	"github.com/matias-olea/inmobrain/internal/utils"
)

type ReportHandler struct {
	svc services.ReportService
}

func NewReportHandler(svc services.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

type GenerateReportRequest struct {
	Title      string            `json:"title" binding:"required"`
	ReportType models.ReportType `json:"report_type" binding:"required"`
	Parameters json.RawMessage   `json:"parameters"`
}

func (h *ReportHandler) Generate(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ReportHandler.Generate", "invalid request body", err))
		return
	}

	rep, err := h.svc.Generate(c.Request.Context(), userID, req.Title, req.ReportType, req.Parameters)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, rep)
}

func (h *ReportHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": rows})
}

func (h *ReportHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rep, err := h.svc.Get(c.Request.Context(), c.Param("report_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	role, _ := c.Get("role")
	if rep.OwnerID != "" && rep.OwnerID != userID && role != "admin" {
		writeError(c, utils.E(utils.CodeForbidden, "ReportHandler.Get", "forbidden", nil))
		return
	}

	c.JSON(http.StatusOK, rep)
}

func (h *ReportHandler) Communes(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	communes, err := h.svc.Communes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"communes": communes})
}
