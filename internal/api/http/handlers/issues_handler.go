package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civicchain/civic-service/internal/api/dto"
	"github.com/civicchain/civic-service/internal/auth"
	"github.com/civicchain/civic-service/internal/classify"
	"github.com/civicchain/civic-service/internal/domain"
	"github.com/civicchain/civic-service/internal/repository"
	"github.com/civicchain/civic-service/internal/service"
	apperrors "github.com/civicchain/civic-service/pkg/util"
)

// IssuesHandler manages issue reporting and browsing endpoints.
type IssuesHandler struct {
	issues     *service.IssueService
	scoring    *service.ScoringService
	classifier classify.Classifier
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issues *service.IssueService, scoring *service.ScoringService, classifier classify.Classifier) *IssuesHandler {
	return &IssuesHandler{issues: issues, scoring: scoring, classifier: classifier}
}

// CreateIssue POST /issues.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	category := domain.IssueCategory(strings.ToUpper(strings.TrimSpace(req.Category)))
	if req.Category == "" && h.classifier != nil {
		// No category supplied: let the classifier pick one. It degrades
		// to OTHER rather than failing.
		category, _ = h.classifier.Classify(c.Context(), req.ImageURL)
	}

	issue, err := h.issues.CreateIssue(c.Context(), principal.User.ID, service.IssueCreateInput{
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Category:    category,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Region:      req.Region,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueSummary(issue)})
}

// ListIssues GET /issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	filter := parseIssueQuery(c)
	issues, err := h.issues.ListIssues(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, issueSummary(&issues[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	detail, err := h.issues.GetIssue(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueDetail(detail)})
}

// UpdateStatus PATCH /issues/:id/status (authority only).
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status := domain.IssueStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	issue, err := h.issues.UpdateStatus(c.Context(), principal.User, c.Params("id"), status, req.ProofURL)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummary(issue)})
}

// Leaderboard GET /issues/leaderboard.
func (h *IssuesHandler) Leaderboard(c *fiber.Ctx) error {
	limit := parseIntQuery(c.Query("limit"), 20)
	entries, err := h.scoring.TopIssues(c.Context(), c.Query("region"), limit)
	if err != nil {
		return err
	}
	items := make([]dto.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.LeaderboardEntry{IssueID: e.IssueID, Score: e.Score})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseIssueQuery(c *fiber.Ctx) repository.IssueFilter {
	filter := repository.IssueFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.IssueStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			filter.Categories = append(filter.Categories, domain.IssueCategory(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if region := c.Query("region"); region != "" {
		filter.Region = &region
	}
	if reporter := c.Query("reporter"); reporter != "" {
		filter.ReporterID = &reporter
	}
	if from := parseTimeQuery(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTimeQuery(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseIntQuery(c.Query("page"), 1)
	pageSize := parseIntQuery(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTimeQuery(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func issueSummary(issue *domain.Issue) dto.IssueSummary {
	return dto.IssueSummary{
		ID:            issue.ID,
		ReporterID:    issue.ReporterID,
		Category:      issue.Category,
		Latitude:      issue.Latitude,
		Longitude:     issue.Longitude,
		Region:        issue.Region,
		Status:        issue.Status,
		PriorityScore: issue.PriorityScore,
		Upvotes:       issue.Upvotes,
		Downvotes:     issue.Downvotes,
		CreatedAt:     issue.CreatedAt,
		UpdatedAt:     issue.UpdatedAt,
	}
}

func issueDetail(detail *service.IssueDetail) dto.IssueDetailResponse {
	return dto.IssueDetailResponse{
		IssueSummary:      issueSummary(detail.Issue),
		ImageURL:          detail.Issue.ImageURL,
		Description:       detail.Issue.Description,
		LedgerRef:         detail.Issue.LedgerRef,
		ProofURL:          detail.Issue.ProofURL,
		VerificationCount: detail.VerificationCount,
	}
}
