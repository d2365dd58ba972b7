package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/here/internal/common"
	"github.com/dmitrijs2005/here/internal/logging"
	"github.com/dmitrijs2005/here/internal/models"
)

type handler struct {
	reg    Registry
	logger logging.Logger
}

// mapError converts registry errors to an HTTP status and response message.
func mapError(err error) (int, models.ResponseMessage) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, models.MessageNotFound
	case errors.Is(err, common.ErrInvalidPassword):
		return http.StatusForbidden, models.MessageInvalidPassword
	default:
		return http.StatusInternalServerError, models.MessageDatabaseError
	}
}

func (h *handler) getServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.reg.GetServerInfo())
}

func (h *handler) getClientInfo(c *gin.Context) {
	account, ok := c.GetQuery(common.QueryParamAccount)
	if !ok {
		c.JSON(http.StatusBadRequest, models.GetClientInfoResponse{Message: models.MessageBadRequest})
		return
	}
	var passwd *string
	if p, ok := c.GetQuery(common.QueryParamPassword); ok {
		passwd = &p
	}

	record, err := h.reg.GetClientInfo(c.Request.Context(), account, passwd)
	if err != nil {
		status, msg := mapError(err)
		c.JSON(status, models.GetClientInfoResponse{Message: msg})
		return
	}
	c.JSON(http.StatusOK, models.GetClientInfoResponse{IsOK: true, Data: record})
}

func (h *handler) postClientInfo(c *gin.Context) {
	var record models.PresenceRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		h.logger.Warn(c.Request.Context(), "malformed registration", "error", err)
		c.JSON(http.StatusBadRequest, models.PostClientInfoResponse{Message: models.MessageBadRequest})
		return
	}

	resp := models.PostClientInfoResponse{
		ID:      record.ID.String(),
		Account: record.Account,
		Passwd:  record.Passwd,
	}
	lifetime, err := h.reg.PostClientInfo(c.Request.Context(), record)
	if err != nil {
		status, msg := mapError(err)
		resp.Message = msg
		c.JSON(status, resp)
		return
	}
	resp.IsOK = true
	resp.Lifetime = lifetime
	c.JSON(http.StatusOK, resp)
}
