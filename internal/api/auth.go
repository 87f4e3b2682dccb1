package api

import (
	"net/http" // HTTP status codes

	"nft_marketplace/internal/domain"  // Response views
	"nft_marketplace/internal/service" // Auth service

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request and Response structs
type RegisterRequest struct {
	Username      string `json:"username" binding:"required"` // Username must be provided
	Email         string `json:"email" binding:"required"`    // Email must be provided
	Password      string `json:"password" binding:"required"` // Password must be provided
	WalletAddress string `json:"walletAddress"`               // Optional wallet address
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for a wallet challenge
type WalletNonceRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"` // Wallet to challenge
}

// Request struct for wallet login
type WalletLoginRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"` // Wallet that signed
	Nonce         string `json:"nonce" binding:"required"`         // Nonce of the signed challenge
	Signature     string `json:"signature" binding:"required"`     // personal_sign signature of the challenge
}

// Response struct for authentication
type AuthResponse struct {
	Message string             `json:"message"` // Human readable outcome
	Token   string             `json:"token"`   // JWT token
	User    domain.AccountView `json:"user"`    // Logged in user
}

func authResponse(msg string, s *service.Session) AuthResponse {
	return AuthResponse{Message: msg, Token: s.Token, User: s.User.Account()}
}

// RegisterHandler creates an account and returns a token for it
func RegisterHandler(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			badRequest(c, "Username, email and password are required")
			return
		}
		session, err := auth.Register(c.Request.Context(), service.RegisterInput{
			Username:      req.Username,
			Email:         req.Email,
			Password:      req.Password,
			WalletAddress: req.WalletAddress,
		})
		if err != nil {
			respondError(c, err) // Duplicate or invalid input
			return
		}
		// Return the token and the new user
		c.JSON(http.StatusCreated, authResponse("User registered successfully", session))
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			badRequest(c, "Email and password are required")
			return
		}
		session, err := auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err) // Invalid credentials
			return
		}
		c.JSON(http.StatusOK, authResponse("Login successful", session))
	}
}

// WalletNonceHandler issues the challenge a wallet signs to log in
func WalletNonceHandler(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WalletNonceRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Wallet address is required")
			return
		}
		challenge, err := auth.IssueWalletNonce(c.Request.Context(), req.WalletAddress)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, challenge)
	}
}

// WalletLoginHandler logs a wallet in with a signed challenge
func WalletLoginHandler(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WalletLoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Wallet address, nonce and signature are required")
			return
		}
		session, err := auth.WalletLogin(c.Request.Context(), req.WalletAddress, req.Nonce, req.Signature)
		if err != nil {
			respondError(c, err) // Missing challenge or bad signature
			return
		}
		c.JSON(http.StatusOK, authResponse("Wallet login successful", session))
	}
}
