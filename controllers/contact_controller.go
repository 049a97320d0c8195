package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/capitalpay/capitalpay-api/middleware"
	"github.com/capitalpay/capitalpay-api/models"
	"github.com/capitalpay/capitalpay-api/utils"
)

// ContactController manages public contact submissions and their admin workflow.
type ContactController struct {
	db *gorm.DB
}

// NewContactController creates a new ContactController instance.
func NewContactController(db *gorm.DB) *ContactController {
	return &ContactController{db: db}
}

func assigneePreload(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "avatar")
}

// SubmitContact accepts an unauthenticated contact form submission. Client
// IP and user agent are captured for tracking; a short per-IP cooldown keeps
// automated spam down.
func (c *ContactController) SubmitContact(ctx *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required,max=100"`
		Email   string `json:"email" binding:"required"`
		Company string `json:"company" binding:"max=100"`
		Subject string `json:"subject" binding:"required,max=200"`
		Message string `json:"message" binding:"required,max=2000"`
		Source  string `json:"source"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Please provide name, email, subject and message")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !models.ValidEmail(email) {
		utils.Error(ctx, http.StatusBadRequest, "Please enter a valid email")
		return
	}

	if !utils.ContactCooldownTry(ctx.ClientIP()) {
		utils.Error(ctx, http.StatusTooManyRequests, "Please wait a moment before sending another message")
		return
	}

	source := req.Source
	switch source {
	case models.SourceWebsite, models.SourceMobileApp, models.SourceAPI:
	default:
		source = models.SourceWebsite
	}

	msg := models.ContactMessage{
		Name:      utils.SanitizeStrict(strings.TrimSpace(req.Name)),
		Email:     email,
		Company:   utils.SanitizeStrict(strings.TrimSpace(req.Company)),
		Subject:   utils.SanitizeStrict(strings.TrimSpace(req.Subject)),
		Message:   utils.SanitizeStrict(strings.TrimSpace(req.Message)),
		Status:    models.ContactStatusNew,
		Priority:  models.PriorityMedium,
		IPAddress: ctx.ClientIP(),
		UserAgent: ctx.GetHeader("User-Agent"),
		Source:    source,
	}

	if err := c.db.Create(&msg).Error; err != nil {
		utils.InternalError(ctx, "failed to store contact message", err)
		return
	}

	utils.Created(ctx, "Your message has been sent successfully! We will get back to you soon.", gin.H{
		"id":        msg.ID,
		"name":      msg.Name,
		"email":     msg.Email,
		"subject":   msg.Subject,
		"createdAt": msg.CreatedAt,
	})
}

// ListContacts returns paginated messages for the admin inbox with
// status/priority/search filters.
func (c *ContactController) ListContacts(ctx *gin.Context) {
	page, limit := utils.ParsePageLimit(ctx.Query("page"), ctx.Query("limit"), 20)
	status := strings.TrimSpace(ctx.Query("status"))
	priority := strings.TrimSpace(ctx.Query("priority"))
	search := strings.TrimSpace(ctx.Query("search"))

	query := c.db.Model(&models.ContactMessage{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR subject LIKE ? OR message LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.InternalError(ctx, "failed to count contact messages", err)
		return
	}

	pagination := utils.NewPagination(page, limit, total)

	find := query.Preload("AssignedTo", assigneePreload).
		Preload("Notes.AddedBy", assigneePreload)
	if search != "" {
		pattern := "%" + search + "%"
		find = find.Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN subject LIKE ? THEN 0 WHEN name LIKE ? THEN 1 ELSE 2 END, created_at DESC",
			Vars:               []interface{}{pattern, pattern},
			WithoutParentheses: true,
		}})
	} else {
		find = find.Order("created_at DESC")
	}

	var messages []models.ContactMessage
	if err := find.Offset(pagination.Offset()).Limit(limit).Find(&messages).Error; err != nil {
		utils.InternalError(ctx, "failed to list contact messages", err)
		return
	}

	utils.List(ctx, messages, len(messages), pagination)
}

// ContactStats returns inbox counters: per-status breakdown, unread, last 7
// days, and total.
func (c *ContactController) ContactStats(ctx *gin.Context) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	if err := c.db.Model(&models.ContactMessage{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		utils.InternalError(ctx, "failed to aggregate contact stats", err)
		return
	}
	byStatus := make(map[string]int64, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = row.Count
	}

	var unreadCount int64
	if err := c.db.Model(&models.ContactMessage{}).
		Where("status = ?", models.ContactStatusNew).
		Count(&unreadCount).Error; err != nil {
		utils.InternalError(ctx, "failed to count unread messages", err)
		return
	}

	lastWeek := time.Now().AddDate(0, 0, -7)
	var recentCount int64
	if err := c.db.Model(&models.ContactMessage{}).
		Where("created_at >= ?", lastWeek).
		Count(&recentCount).Error; err != nil {
		utils.InternalError(ctx, "failed to count recent messages", err)
		return
	}

	var totalCount int64
	if err := c.db.Model(&models.ContactMessage{}).Count(&totalCount).Error; err != nil {
		utils.InternalError(ctx, "failed to count messages", err)
		return
	}

	utils.Success(ctx, gin.H{
		"byStatus":    byStatus,
		"unreadCount": unreadCount,
		"recentCount": recentCount,
		"totalCount":  totalCount,
	})
}

// GetContact returns a single message with assignee and note authors populated.
func (c *ContactController) GetContact(ctx *gin.Context) {
	var msg models.ContactMessage
	if err := c.db.Preload("AssignedTo", assigneePreload).
		Preload("Notes.AddedBy", assigneePreload).
		First(&msg, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Contact message not found")
			return
		}
		utils.InternalError(ctx, "failed to load contact message", err)
		return
	}
	utils.Success(ctx, msg)
}

// UpdateContact changes status, priority and/or assignee. Transitions are
// unconstrained; repliedAt/resolvedAt are stamped once on first arrival at
// the matching status.
func (c *ContactController) UpdateContact(ctx *gin.Context) {
	var req struct {
		Status     string `json:"status"`
		Priority   string `json:"priority"`
		AssignedTo *uint  `json:"assignedTo"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var msg models.ContactMessage
	if err := c.db.First(&msg, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Contact message not found")
			return
		}
		utils.InternalError(ctx, "failed to load contact message", err)
		return
	}

	if req.Status != "" {
		if !models.ValidContactStatus(req.Status) {
			utils.Error(ctx, http.StatusBadRequest, "Status must be one of new, read, replied, resolved, spam")
			return
		}
		msg.Status = req.Status
		models.ApplyStatusTimestamps(&msg, time.Now())
	}
	if req.Priority != "" {
		if !models.ValidPriority(req.Priority) {
			utils.Error(ctx, http.StatusBadRequest, "Priority must be one of low, medium, high, urgent")
			return
		}
		msg.Priority = req.Priority
	}
	if req.AssignedTo != nil {
		var assignee models.User
		if err := c.db.First(&assignee, *req.AssignedTo).Error; err != nil {
			utils.Error(ctx, http.StatusBadRequest, "Assignee not found")
			return
		}
		msg.AssignedToID = req.AssignedTo
	}

	if err := c.db.Save(&msg).Error; err != nil {
		utils.InternalError(ctx, "failed to update contact message", err)
		return
	}

	if err := c.db.Preload("AssignedTo", assigneePreload).
		Preload("Notes.AddedBy", assigneePreload).
		First(&msg, msg.ID).Error; err != nil {
		utils.InternalError(ctx, "failed to load updated contact message", err)
		return
	}

	utils.SuccessMessage(ctx, "Contact message updated successfully", msg)
}

// AddNote appends an internal note to a message and returns it.
func (c *ContactController) AddNote(ctx *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		utils.Error(ctx, http.StatusBadRequest, "Note content is required")
		return
	}

	var msg models.ContactMessage
	if err := c.db.First(&msg, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Contact message not found")
			return
		}
		utils.InternalError(ctx, "failed to load contact message", err)
		return
	}

	principal, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	note := models.ContactNote{
		ContactMessageID: msg.ID,
		Content:          strings.TrimSpace(req.Content),
		AddedByID:        principal.ID,
		AddedAt:          time.Now(),
	}
	if err := c.db.Create(&note).Error; err != nil {
		utils.InternalError(ctx, "failed to add note", err)
		return
	}

	if err := c.db.Preload("AddedBy", assigneePreload).First(&note, note.ID).Error; err != nil {
		utils.InternalError(ctx, "failed to load note", err)
		return
	}

	utils.Created(ctx, "Note added successfully", note)
}

// DeleteContact removes a message. Admin only (enforced at the route).
func (c *ContactController) DeleteContact(ctx *gin.Context) {
	var msg models.ContactMessage
	if err := c.db.First(&msg, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Contact message not found")
			return
		}
		utils.InternalError(ctx, "failed to load contact message", err)
		return
	}

	if err := c.db.Select("Notes").Delete(&msg).Error; err != nil {
		utils.InternalError(ctx, "failed to delete contact message", err)
		return
	}

	utils.SuccessMessage(ctx, "Contact message deleted successfully", nil)
}

// BulkMarkRead marks the given messages read and assigns them to the principal.
func (c *ContactController) BulkMarkRead(ctx *gin.Context) {
	var req struct {
		MessageIDs []uint `json:"messageIds"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.MessageIDs == nil {
		utils.Error(ctx, http.StatusBadRequest, "Message IDs array is required")
		return
	}

	principal, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	if len(req.MessageIDs) > 0 {
		if err := c.db.Model(&models.ContactMessage{}).
			Where("id IN ?", req.MessageIDs).
			Updates(map[string]interface{}{
				"status":         models.ContactStatusRead,
				"assigned_to_id": principal.ID,
			}).Error; err != nil {
			utils.InternalError(ctx, "failed to mark messages as read", err)
			return
		}
	}

	utils.SuccessMessage(ctx, fmt.Sprintf("%d messages marked as read", len(req.MessageIDs)), nil)
}
