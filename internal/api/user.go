package api

import (
	"net/http" // HTTP status codes

	"nft_marketplace/internal/domain"     // Response views
	"nft_marketplace/internal/middleware" // Authenticated user id
	"nft_marketplace/internal/service"    // Profile service

	"github.com/gin-gonic/gin" // Gin web framework
)

// ProfileResponse is a public profile page
type ProfileResponse struct {
	User  domain.ProfileView   `json:"user"`
	Stats service.ProfileStats `json:"stats"`
}

// UpdateProfileRequest carries editable profile fields; empty fields are left unchanged
type UpdateProfileRequest struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
}

// TransactionListResponse is one page of purchase history
type TransactionListResponse struct {
	Transactions []domain.TransactionView `json:"transactions"`
	Pagination   service.Pagination       `json:"pagination"`
}

// GetProfileHandler returns a user's profile with live stats
func GetProfileHandler(p *service.Profiles) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := p.Get(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondError(c, err) // User not found
			return
		}
		c.JSON(http.StatusOK, ProfileResponse{User: profile.User.Profile(), Stats: profile.Stats})
	}
}

// UpdateProfileHandler edits the caller's own profile
func UpdateProfileHandler(p *service.Profiles) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c) // Set by JWT middleware
		var req UpdateProfileRequest      // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		user, err := p.Update(c.Request.Context(), userID, service.ProfileUpdate{
			Username: req.Username,
			Bio:      req.Bio,
			Avatar:   req.Avatar,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user.Account()})
	}
}

// TransactionsHandler returns the caller's purchases and sales, newest first
func TransactionsHandler(p *service.Profiles) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c) // Set by JWT middleware
		page, err := p.Transactions(c.Request.Context(), userID, queryInt(c, "page"), queryInt(c, "limit"))
		if err != nil {
			respondError(c, err)
			return
		}
		views := make([]domain.TransactionView, 0, len(page.Transactions))
		for i := range page.Transactions {
			views = append(views, page.Transactions[i].View())
		}
		c.JSON(http.StatusOK, TransactionListResponse{Transactions: views, Pagination: page.Pagination})
	}
}
