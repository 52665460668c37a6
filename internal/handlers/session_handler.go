package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/techlog-api/internal/capture"
	"github.com/sjperalta/techlog-api/internal/middleware"
	"github.com/sjperalta/techlog-api/internal/services"
	"github.com/sjperalta/techlog-api/internal/workflow"
)

type SessionHandler struct {
	workflowService *services.WorkflowService
}

func NewSessionHandler(workflowService *services.WorkflowService) *SessionHandler {
	return &SessionHandler{workflowService: workflowService}
}

// CheckAuthorizationRequest selects the LETTER service option
type CheckAuthorizationRequest struct {
	SvcOption string `json:"svc_option" binding:"omitempty,oneof=A C D a c d"`
}

// FluidsRequest carries the fluids / de-icing sheet
type FluidsRequest struct {
	Data        json.RawMessage `json:"data"`
	Description string          `json:"description" binding:"max=2000"`
}

// SignatureRequest carries a drawn signature as a base64 PNG or JPEG
type SignatureRequest struct {
	Image     []byte     `json:"image" binding:"required"`
	IssuedAt  *time.Time `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// ConfirmRequest carries the operator credentials typed into the sign-off dialog
type ConfirmRequest struct {
	AuthID    string `json:"auth_id" binding:"required,max=64"`
	AuthName  string `json:"auth_name" binding:"required,max=128"`
	Password  string `json:"password" binding:"max=256"`
	Signature []byte `json:"signature"`
}

// respondSession writes the session view; on error the unchanged view rides along
func respondSession(c *gin.Context, status int, view *services.SessionView, err error) {
	if err != nil {
		if view == nil {
			respondError(c, err)
			return
		}
		body := errorBody(err)
		body["session"] = view
		c.JSON(errorStatus(err), body)
		return
	}
	c.JSON(status, view)
}

// RequireOwner limits a session's routes to the user that opened it. Admins may act on
// any session.
func (h *SessionHandler) RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := h.workflowService.Owner(c.Param("id"))
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		if owner != middleware.GetUserID(c) && middleware.GetUserRole(c) != middleware.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "session belongs to another user"})
			return
		}
		c.Next()
	}
}

// @Summary Open Workflow Session
// @Description Opens a session on the current flight's log page
// @Tags Sessions
// @Produce json
// @Success 201 {object} services.SessionView
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	view, err := h.workflowService.Create(c.Request.Context(), middleware.GetUserID(c))
	respondSession(c, http.StatusCreated, view, err)
}

// @Summary Get Workflow Session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Security BearerAuth
// @Router /sessions/{id} [get]
func (h *SessionHandler) Show(c *gin.Context) {
	view, err := h.workflowService.Get(c.Request.Context(), c.Param("id"))
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Close Workflow Session
// @Description Closes the session; an open sign-off dialog is cancelled
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Security BearerAuth
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.workflowService.Close(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Previous Log Page
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/previous [post]
func (h *SessionHandler) Previous(c *gin.Context) {
	view, err := h.workflowService.Previous(c.Request.Context(), c.Param("id"))
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Next Log Page
// @Description Moves to the newer page; never past the current flight's page
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/next [post]
func (h *SessionHandler) Next(c *gin.Context) {
	view, err := h.workflowService.Next(c.Request.Context(), c.Param("id"))
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Reload Log Page
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Security BearerAuth
// @Router /sessions/{id}/reload [post]
func (h *SessionHandler) Reload(c *gin.Context) {
	view, err := h.workflowService.Reload(c.Request.Context(), c.Param("id"))
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Add Log Entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param entry body workflow.EntryPatch true "Entry fields"
// @Success 201 {object} services.SessionView
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/entries [post]
func (h *SessionHandler) AddEntry(c *gin.Context) {
	var patch workflow.EntryPatch
	if err := BindNestedOrFlat(c, "entry", &patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.workflowService.AddEntry(c.Request.Context(), c.Param("id"), patch)
	respondSession(c, http.StatusCreated, view, err)
}

// @Summary Update Log Entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param seq path int true "Entry number"
// @Param entry body workflow.EntryPatch true "Fields to change"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/entries/{seq} [patch]
func (h *SessionHandler) UpdateEntry(c *gin.Context) {
	seq, ok := entrySeq(c)
	if !ok {
		return
	}
	var patch workflow.EntryPatch
	if err := BindNestedOrFlat(c, "entry", &patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.workflowService.UpdateEntry(c.Request.Context(), c.Param("id"), seq, patch)
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Remove Log Entry
// @Tags Entries
// @Produce json
// @Param id path string true "Session ID"
// @Param seq path int true "Entry number"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/entries/{seq} [delete]
func (h *SessionHandler) RemoveEntry(c *gin.Context) {
	seq, ok := entrySeq(c)
	if !ok {
		return
	}
	view, err := h.workflowService.RemoveEntry(c.Request.Context(), c.Param("id"), seq)
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Request Short Sign
// @Description Opens the sign-off dialog for an entry's short sign
// @Tags Entries
// @Produce json
// @Param id path string true "Session ID"
// @Param seq path int true "Entry number"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/entries/{seq}/short_sign [post]
func (h *SessionHandler) ShortSign(c *gin.Context) {
	seq, ok := entrySeq(c)
	if !ok {
		return
	}
	view, err := h.workflowService.RequestShortSign(c.Request.Context(), c.Param("id"), seq)
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Request Action Authorization
// @Description Opens the sign-off dialog for an entry's action authorization
// @Tags Entries
// @Produce json
// @Param id path string true "Session ID"
// @Param seq path int true "Entry number"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/entries/{seq}/action_auth [post]
func (h *SessionHandler) ActionAuth(c *gin.Context) {
	seq, ok := entrySeq(c)
	if !ok {
		return
	}
	view, err := h.workflowService.RequestActionAuth(c.Request.Context(), c.Param("id"), seq)
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Request Check Authorization
// @Description Opens the sign-off dialog for TRANSIT, DAILY, ETOPS, LETTER, PDI or ACCEPTANCE
// @Tags Checks
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param type path string true "Check type"
// @Param request body CheckAuthorizationRequest false "LETTER service option"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/checks/{type}/authorize [post]
func (h *SessionHandler) AuthorizeCheck(c *gin.Context) {
	var req CheckAuthorizationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	view, err := h.workflowService.RequestCheck(c.Request.Context(), c.Param("id"), c.Param("type"), req.SvcOption)
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Update Fluids Sheet
// @Tags Checks
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body FluidsRequest true "Fluids sheet"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/fluids [put]
func (h *SessionHandler) UpdateFluids(c *gin.Context) {
	var req FluidsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.workflowService.UpdateFluids(c.Request.Context(), c.Param("id"), req.Data, req.Description)
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Request De-icing Authorization
// @Tags Checks
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body FluidsRequest true "Fluids sheet and description"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/deicing/authorize [post]
func (h *SessionHandler) AuthorizeDeicing(c *gin.Context) {
	var req FluidsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.workflowService.RequestDeicing(c.Request.Context(), c.Param("id"), req.Data, req.Description)
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Attach Signature
// @Description Attaches a drawn signature to the open sign-off dialog
// @Tags Authorization
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body SignatureRequest true "Signature image"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/authorization/signature [put]
func (h *SessionHandler) Signature(c *gin.Context) {
	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ct := http.DetectContentType(req.Image); ct != "image/png" && ct != "image/jpeg" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "signature must be a PNG or JPEG image", "field": "image"})
		return
	}

	issuedAt := time.Now()
	if req.IssuedAt != nil {
		issuedAt = *req.IssuedAt
	}
	expiresAt := issuedAt
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}

	view, err := h.workflowService.DrawSignature(c.Request.Context(), c.Param("id"), req.Image, issuedAt, expiresAt)
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Confirm Authorization
// @Description Resolves the open sign-off dialog with the operator's credentials
// @Tags Authorization
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body ConfirmRequest true "Operator credentials"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/authorization/confirm [post]
func (h *SessionHandler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	creds := capture.Credentials{
		AuthID:    req.AuthID,
		AuthName:  req.AuthName,
		Password:  req.Password,
		Signature: req.Signature,
	}
	view, err := h.workflowService.Confirm(c.Request.Context(), c.Param("id"), creds)
	respondSession(c, http.StatusOK, view, err)
}

// @Summary Cancel Authorization
// @Description Closes the open sign-off dialog without applying it
// @Tags Authorization
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionView
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /sessions/{id}/authorization/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	view, err := h.workflowService.Cancel(c.Request.Context(), c.Param("id"))
	respondSession(c, http.StatusOK, view, err)
}

func entrySeq(c *gin.Context) (int, bool) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil || seq < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry number"})
		return 0, false
	}
	return seq, true
}
