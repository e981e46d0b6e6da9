package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openclass/examcore/internal/apperr"
	"github.com/openclass/examcore/internal/dto"
	"github.com/rs/zerolog/log"
)

// RespondError maps a service error onto the HTTP taxonomy. Unclassified
// errors are logged and hidden behind a generic 500.
func RespondError(ctx *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", ctx.FullPath()).Msg("Unhandled service error")
		ctx.JSON(status, dto.ErrorResponse{Message: "Internal server error"})
		return
	}
	ctx.JSON(status, dto.ErrorResponse{Message: err.Error()})
}

// ParseUintParam reads a numeric path parameter, answering 400 itself when the
// value is malformed.
func ParseUintParam(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}
