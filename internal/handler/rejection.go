package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizhall/quizhall-backend/internal/response"
	"github.com/quizhall/quizhall-backend/internal/service"
)

// failRejection renders a business refusal from the attempt service with the
// HTTP status its code maps to.
func failRejection(c *gin.Context, rej *service.Rejection) {
	response.FailWithMessage(c, statusFor(rej.Code), rej.Code, rej.Message)
}

func statusFor(code response.ErrCode) int {
	switch code {
	case response.ErrNotFound:
		return http.StatusNotFound
	case response.ErrNotOwner, response.ErrAttemptBlocked,
		response.ErrWrongDate, response.ErrSessionNotStarted, response.ErrSessionExpired:
		return http.StatusForbidden
	case response.ErrAlreadyStarted, response.ErrAlreadyCompleted,
		response.ErrAttemptConflict, response.ErrNoQuestions:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
