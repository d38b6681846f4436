package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civicchain/civic-service/internal/api/dto"
	"github.com/civicchain/civic-service/internal/auth"
	"github.com/civicchain/civic-service/internal/domain"
	"github.com/civicchain/civic-service/internal/service"
	apperrors "github.com/civicchain/civic-service/pkg/util"
)

// VotesHandler manages vote and verification endpoints.
type VotesHandler struct {
	votes         *service.VoteService
	verifications *service.VerificationService
}

// NewVotesHandler constructs handler.
func NewVotesHandler(votes *service.VoteService, verifications *service.VerificationService) *VotesHandler {
	return &VotesHandler{votes: votes, verifications: verifications}
}

// CastVote POST /issues/:id/votes.
func (h *VotesHandler) CastVote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CastVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	voteType := domain.VoteType(strings.ToUpper(strings.TrimSpace(req.VoteType)))
	result, err := h.votes.CastVote(c.Context(), principal.User.ID, c.Params("id"), voteType)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.VoteResponse{
		VoteID:             result.Vote.ID,
		VoteType:           string(result.Vote.Type),
		Upvotes:            result.Upvotes,
		Downvotes:          result.Downvotes,
		ReporterReputation: result.ReporterReputation,
	}})
}

// VerifyIssue POST /issues/:id/verifications.
func (h *VotesHandler) VerifyIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	result, err := h.verifications.VerifyIssue(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.VerificationResponse{
		VerificationID:    result.Verification.ID,
		VerificationCount: result.VerificationCount,
		AutoClosed:        result.AutoClosed,
	}})
}
