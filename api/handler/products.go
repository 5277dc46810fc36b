package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/models"
)

// ProductService is the watchlist behaviour the handlers need.
// tracker.Service implements it.
type ProductService interface {
	Track(ctx context.Context, url string, target *int) (*models.TrackedItem, error)
	List(ctx context.Context) ([]models.TrackedItem, error)
	Get(ctx context.Context, id int64) (*models.ItemDetail, error)
	UpdateTarget(ctx context.Context, id int64, target *int) (*models.TrackedItem, error)
	Delete(ctx context.Context, id int64) error
}

// TrackProduct returns a handler for POST /api/v1/products.
func TrackProduct(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TrackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, invalidInput(err.Error()))
			return
		}

		item, err := svc.Track(c.Request.Context(), req.URL, req.TargetPrice)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.TrackResponse{
			ID: item.ID,
			ExtractionResult: models.ExtractionResult{
				Title:    item.Title,
				Price:    item.CurrentPrice,
				ImageURL: item.ImageURL,
				Platform: item.Platform,
			},
		})
	}
}

// ListProducts returns a handler for GET /api/v1/products.
func ListProducts(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// GetProduct returns a handler for GET /api/v1/products/:id.
func GetProduct(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productID(c)
		if !ok {
			return
		}
		detail, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

// UpdateProduct returns a handler for PATCH /api/v1/products/:id.
func UpdateProduct(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productID(c)
		if !ok {
			return
		}
		var req models.UpdateTargetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, invalidInput(err.Error()))
			return
		}
		item, err := svc.UpdateTarget(c.Request.Context(), id, req.TargetPrice)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// DeleteProduct returns a handler for DELETE /api/v1/products/:id.
func DeleteProduct(svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
	}
}

// productID parses the :id path parameter, answering 400 when it is not a
// positive integer.
func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, invalidInput("product id must be a positive integer"))
		return 0, false
	}
	return id, true
}
