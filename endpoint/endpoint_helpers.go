package endpoint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aecasagrande/clinic-app/ledger"
	"github.com/aecasagrande/clinic-app/middleware"
	"github.com/aecasagrande/clinic-app/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type listQuery struct {
	Limit   int
	Offset  int
	Keyword string
	SortBy  string
	SortDir string
}

func parseListQuery(c *gin.Context) listQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return listQuery{
		Limit:   limit,
		Offset:  offset,
		Keyword: c.Query("keyword"),
		SortBy:  c.Query("sort"),
		SortDir: strings.ToLower(c.Query("sort_dir")),
	}
}

// requireDB fetches the request-scoped DB handle, reporting a server error
// when the database middleware has not run.
func requireDB(c *gin.Context) *gorm.DB {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
	}
	return db
}

// parseDateRange reads optional from/to query params into a ledger range.
// Returns nil when neither is set, which selects the patient's entire
// history. Supplying only one bound is rejected.
func parseDateRange(c *gin.Context) (*ledger.DateRange, error) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("date range requires both from and to")
	}
	return &ledger.DateRange{From: from, To: to}, nil
}

// parseIDParam parses the :id path parameter.
func parseIDParam(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	if raw == "" {
		return 0, fmt.Errorf("id is required")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %s", raw)
	}
	return uint(id), nil
}
