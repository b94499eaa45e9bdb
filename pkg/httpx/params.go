package httpx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrBadParam — параметр пути отсутствует или имеет неверный формат.
var ErrBadParam = errors.New("bad path parameter")

// ParseUUIDParam — читает uuid из параметра пути.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrBadParam, name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be uuid", ErrBadParam, name)
	}
	return id, nil
}

// ParsePositiveInt64Param — читает положительный int64 из параметра пути.
func ParsePositiveInt64Param(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadParam, name)
	}
	return v, nil
}
