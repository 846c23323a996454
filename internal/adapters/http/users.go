package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type userHandlers struct {
	users UserService
}

type registerRequest struct {
	UserName string `form:"user_name" json:"user_name" binding:"required,max=36"`
}

// POST /api/users/register
func (h *userHandlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid user_name"})
		return
	}
	u, err := h.users.CreateUser(c.Request.Context(), req.UserName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	session := sessions.Default(c)
	session.Set(sessionUserKey, string(u.ID))
	if err := session.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}
	c.JSON(http.StatusCreated, u)
}

// GET /api/users/:user_id
func (h *userHandlers) get(c *gin.Context) {
	u, err := h.users.GetUser(c.Request.Context(), domain.UserID(c.Param("user_id")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// PUT /api/users/:user_id
func (h *userHandlers) rename(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid user_name"})
		return
	}
	u, err := h.users.RenameUser(c.Request.Context(), domain.UserID(c.Param("user_id")), req.UserName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DELETE /api/users/:user_id
func (h *userHandlers) remove(c *gin.Context) {
	id := c.Param("user_id")
	if err := h.users.DeleteUser(c.Request.Context(), domain.UserID(id)); err != nil {
		abortWithError(c, err)
		return
	}
	session := sessions.Default(c)
	if session.Get(sessionUserKey) == id {
		session.Delete(sessionUserKey)
		_ = session.Save()
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id})
}

// POST /api/users/:user_id/favorite with a comma-separated body.
func (h *userHandlers) addFavorites(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 4096))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	var names []string
	for _, name := range strings.Split(string(body), ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	u, err := h.users.AddFavorites(c.Request.Context(), domain.UserID(c.Param("user_id")), names)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
