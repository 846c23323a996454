package http

import (
	"net/http"
	"sort"
	"strings"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type roomHandlers struct {
	chat    ChatService
	limiter *CreateLimiter
}

type roomView struct {
	Name  domain.RoomName `json:"name"`
	Users []string        `json:"users"`
}

// roomListing collects rooms through ChatService.ExtractRoomData.
type roomListing struct {
	rooms []roomView
}

func (l *roomListing) VisitRoom(name domain.RoomName) {
	l.rooms = append(l.rooms, roomView{Name: name, Users: []string{}})
}

func (l *roomListing) VisitMembers(names []string) {
	if len(l.rooms) == 0 {
		return
	}
	users := append([]string{}, names...)
	sort.Strings(users)
	l.rooms[len(l.rooms)-1].Users = users
}

// GET /api/rooms
func (h *roomHandlers) list(c *gin.Context) {
	listing := &roomListing{rooms: []roomView{}}
	h.chat.ExtractRoomData(listing)
	sort.Slice(listing.rooms, func(i, j int) bool { return listing.rooms[i].Name < listing.rooms[j].Name })
	c.JSON(http.StatusOK, gin.H{"rooms": listing.rooms})
}

type availability struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// GET /api/rooms/available?names=a,b,c
func (h *roomHandlers) available(c *gin.Context) {
	out := []availability{}
	for _, name := range strings.Split(c.Query("names"), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, availability{Name: name, Available: h.chat.NameIsAvailable(name)})
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/rooms/:name
func (h *roomHandlers) create(c *gin.Context) {
	owner := callerID(c)
	if !h.limiter.Allow(throttleKey(c)) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many rooms created, try again later"})
		return
	}
	summary, err := h.chat.CreateRoom(c.Param("name"), owner)
	if err != nil {
		abortWithError(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("room", string(summary.Name)).Str("owner", owner).Msg("room created")
	c.JSON(http.StatusCreated, gin.H{
		"path": "/room/" + string(summary.Name),
		"name": summary.Name,
		"id":   summary.ID,
	})
}

// DELETE /api/rooms/:room_id
func (h *roomHandlers) remove(c *gin.Context) {
	id := c.Param("room_id")
	if err := h.chat.DeleteRoom(id, callerID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": id})
}
