// internal/handlers/redirect.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/affilink/affiliate-backend/internal/services"
	"github.com/affilink/affiliate-backend/internal/utils"
)

type RedirectHandler struct {
	redirectService *services.RedirectService
}

func NewRedirectHandler(redirectService *services.RedirectService) *RedirectHandler {
	return &RedirectHandler{redirectService: redirectService}
}

// GET /go/:code
// The public redirect path: resolves the short code, records the click
// and answers with a 302 to the stored target URL.
func (h *RedirectHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	meta := services.RequestMeta{
		Referrer:      c.GetHeader("Referer"),
		UserAgent:     c.Request.UserAgent(),
		ForwardedFor:  c.GetHeader("X-Forwarded-For"),
		RemoteAddress: c.Request.RemoteAddr,
	}

	result, err := h.redirectService.Resolve(c.Request.Context(), code, meta)
	if err != nil {
		if errors.Is(err, services.ErrLinkNotFound) {
			utils.NotFoundResponse(c, "Link not found")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	c.Redirect(http.StatusFound, result.TargetURL)
}
