package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushub/club-portal-api/internal/middleware"
	"github.com/campushub/club-portal-api/internal/models"
)

type userLoader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// userFromClaims rebuilds the user from token claims. Enough for
// ownership checks; flows that snapshot student columns load the full
// row instead.
func userFromClaims(claims *models.JWTClaims) *models.User {
	if claims == nil {
		return nil
	}
	user := &models.User{ID: claims.UserID, Name: claims.Name, Email: claims.Email, Role: claims.Role}
	if claims.ClubName != "" {
		club := claims.ClubName
		user.ClubName = &club
	}
	return user
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, size
}
