package handlers

import (
	"strconv"

	"github.com/shipflow-next/internal/models"

	"github.com/gin-gonic/gin"
)

// ContextClientKey is where the auth middleware stores the resolved client.
const ContextClientKey = "auth_client"

// currentClient returns the authenticated client set by the middleware.
func currentClient(c *gin.Context) *models.Client {
	value, ok := c.Get(ContextClientKey)
	if !ok {
		return nil
	}
	client, ok := value.(*models.Client)
	if !ok {
		return nil
	}
	return client
}

// paginationParams reads page/page_size query values with sane bounds.
func paginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}

// uintParam parses a positive uint path parameter; 0 means invalid.
func uintParam(c *gin.Context, name string) uint {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(value)
}
