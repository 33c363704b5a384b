package handlers

import (
	"errors"

	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError binds one sentinel error to its HTTP rendering.
type mappedHandlerError struct {
	target error
	render func(c *gin.Context, message string)
}

var handlerErrorMap = []mappedHandlerError{
	{service.ErrValidation, response.BadRequest},
	{service.ErrInsufficientBalance, response.BadRequest},
	{service.ErrWalletInvalidAmount, response.BadRequest},
	{service.ErrOrderNotBookable, response.BadRequest},
	{service.ErrCancelNotAllowed, response.BadRequest},
	{service.ErrNoCandidates, response.BadRequest},
	{service.ErrAllBookingsFailed, response.BadRequest},
	{service.ErrCredentialMissing, response.BadRequest},
	{service.ErrNdrTerminal, response.BadRequest},
	{service.ErrInvalidCredentials, response.Unauthorized},
	{service.ErrClientDisabled, response.Unauthorized},
	{service.ErrOrderExists, response.Conflict},
	{service.ErrOrderAlreadyBooked, response.Conflict},
	{service.ErrOrderNotFound, response.NotFound},
	{service.ErrContractNotFound, response.NotFound},
	{service.ErrNdrNotFound, response.NotFound},
	{service.ErrRemittanceNotFound, response.NotFound},
	{service.ErrClientNotFound, response.NotFound},
	{service.ErrWalletNotFound, response.NotFound},
}

// renderServiceError maps a service error onto the response envelope.
// Unknown errors become 500s with the detail kept in the log, not the body.
func renderServiceError(c *gin.Context, err error) {
	for _, mapped := range handlerErrorMap {
		if errors.Is(err, mapped.target) {
			mapped.render(c, mapped.target.Error())
			return
		}
	}
	logger.Errorw("handler_unexpected_error", "path", c.FullPath(), "error", err)
	response.Internal(c, "internal server error")
}
