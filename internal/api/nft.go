package api

import (
	"net/http"      // HTTP status codes
	"os"            // Removing orphaned uploads
	"path/filepath" // Upload paths
	"strconv"       // Query parsing
	"strings"       // Extension checks

	"nft_marketplace/internal/domain"     // Response views
	"nft_marketplace/internal/middleware" // Authenticated user id
	"nft_marketplace/internal/service"    // Marketplace service

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Upload file names
	"github.com/sirupsen/logrus" // Logging library
)

const maxImageBytes = 10 << 20 // Largest accepted image upload

// Accepted image extensions
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".svg": true,
}

// NFTListResponse is one catalog page
type NFTListResponse struct {
	NFTs       []domain.NFTView   `json:"nfts"`       // Listed NFTs on this page
	Pagination service.Pagination `json:"pagination"` // Page metadata
}

// NFTResponse wraps a single NFT with an outcome message
type NFTResponse struct {
	Message string         `json:"message"`
	NFT     domain.NFTView `json:"nft"`
}

// PurchaseResponse is the outcome of a buy
type PurchaseResponse struct {
	Message     string                 `json:"message"`
	NFT         domain.NFTView         `json:"nft"`
	Transaction domain.TransactionView `json:"transaction"`
}

// queryFloat parses an optional float query value; unparseable values are ignored
func queryFloat(c *gin.Context, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// queryInt parses an optional int query value; unparseable values become 0 and get defaulted
func queryInt(c *gin.Context, key string) int {
	v, _ := strconv.Atoi(c.Query(key))
	return v
}

// ListNFTsHandler returns the listed catalog with filters, sorting and pagination
func ListNFTsHandler(m *service.Marketplace) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := m.List(c.Request.Context(), service.ListQuery{
			Search:    c.Query("search"),
			Category:  c.Query("category"),
			MinPrice:  queryFloat(c, "minPrice"),
			MaxPrice:  queryFloat(c, "maxPrice"),
			SortBy:    c.DefaultQuery("sortBy", "createdAt"),
			SortOrder: c.DefaultQuery("sortOrder", "desc"),
			Page:      queryInt(c, "page"),
			Limit:     queryInt(c, "limit"),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, NFTListResponse{NFTs: domain.Views(page.NFTs), Pagination: page.Pagination})
	}
}

// GetNFTHandler returns one NFT with creator and owner profiles
func GetNFTHandler(m *service.Marketplace) gin.HandlerFunc {
	return func(c *gin.Context) {
		nft, err := m.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err) // Not found
			return
		}
		c.JSON(http.StatusOK, nft.View(true))
	}
}

// CreateNFTHandler accepts a multipart form with an image and lists a new NFT
func CreateNFTHandler(m *service.Marketplace, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c) // Set by JWT middleware
		file, err := c.FormFile("image")  // Image is mandatory
		if err != nil {
			badRequest(c, "Image is required")
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		// Only accept images of a sane size
		if !imageExtensions[ext] {
			badRequest(c, "Only image files are allowed")
			return
		}
		if file.Size > maxImageBytes {
			badRequest(c, "Image must be at most 10MB")
			return
		}

		name := uuid.NewString() + ext // Never trust the client file name
		dst := filepath.Join(uploadDir, name)
		if err := c.SaveUploadedFile(file, dst); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to store upload")
			respondError(c, err)
			return
		}

		nft, err := m.Create(c.Request.Context(), userID, service.CreateInput{
			Name:        c.PostForm("name"),
			Description: c.PostForm("description"),
			Image:       "/uploads/" + name,
			Price:       c.PostForm("price"),
			Currency:    c.PostForm("currency"),
			Category:    c.PostForm("category"),
			Tags:        c.PostForm("tags"),
			Properties:  c.PostForm("properties"),
		})
		if err != nil {
			// Do not keep images of rejected listings
			if rmErr := os.Remove(dst); rmErr != nil {
				logrus.WithFields(logrus.Fields{"file": dst, "error": rmErr.Error()}).Warn("Failed to remove orphaned upload")
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, NFTResponse{Message: "NFT created successfully", NFT: nft.View(false)})
	}
}

// UpdateNFTHandler applies a partial update; only the creator may call it
func UpdateNFTHandler(m *service.Marketplace) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c) // Set by JWT middleware
		var req service.UpdateInput       // Absent fields stay nil
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		nft, err := m.Update(c.Request.Context(), userID, c.Param("id"), req)
		if err != nil {
			respondError(c, err) // Not found, forbidden or invalid
			return
		}
		c.JSON(http.StatusOK, NFTResponse{Message: "NFT updated successfully", NFT: nft.View(false)})
	}
}

// DeleteNFTHandler removes an NFT; only the creator may call it
func DeleteNFTHandler(m *service.Marketplace) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c) // Set by JWT middleware
		if err := m.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "NFT deleted successfully"})
	}
}

// BuyNFTHandler transfers a listed NFT to the caller
func BuyNFTHandler(m *service.Marketplace) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c) // Set by JWT middleware
		nft, tx, err := m.Buy(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			respondError(c, err) // Conflict codes tell not-listed from already-owned
			return
		}
		c.JSON(http.StatusOK, PurchaseResponse{
			Message:     "NFT purchased successfully",
			NFT:         nft.View(false),
			Transaction: tx.View(),
		})
	}
}

// UserNFTsHandler lists the NFTs a user created, or owns with type=owned
func UserNFTsHandler(m *service.Marketplace) gin.HandlerFunc {
	return func(c *gin.Context) {
		nfts, err := m.ListByUser(c.Request.Context(), c.Param("userId"), c.DefaultQuery("type", "created"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, domain.Views(nfts))
	}
}
