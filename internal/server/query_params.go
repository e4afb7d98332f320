package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/opiniohq/opinio/pkg/db/pagination"
)

func pathID(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, newValidationError(name, "invalid_id", "invalid identifier")
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError(name, "invalid_id", "invalid identifier")
	}
	return id, nil
}

func bindPagination(c *gin.Context) pagination.Pagination {
	var page pagination.Pagination
	_ = c.ShouldBindQuery(&page)
	return page.Normalize()
}

type listResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
