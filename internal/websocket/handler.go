package websocket

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/loreline/backend/internal/auth"
	"github.com/loreline/backend/internal/cache"
)

// Handler handles WebSocket connections
type Handler struct {
	hub        *Hub
	jwtService *auth.JWTService
	redis      *cache.RedisClient
	upgrader   websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. redis may be nil; presence
// tracking is then skipped. The origin check is fixed at construction; with
// no configured origins every origin is accepted.
func NewHandler(hub *Hub, jwtService *auth.JWTService, redis *cache.RedisClient, allowedOrigins []string) *Handler {
	return &Handler{
		hub:        hub,
		jwtService: jwtService,
		redis:      redis,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return false
				}
				for _, pattern := range allowedOrigins {
					if matchOrigin(pattern, origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade requests. A connection without
// a valid identity is rejected before any subscribe can happen.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	// Get token from query parameter
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	// Validate token
	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	// Upgrade connection
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	// Create client
	client := NewClient(h.hub, conn, claims.UserID)

	// Register client
	h.hub.register <- client

	if h.redis != nil {
		if err := h.redis.SetUserOnline(claims.UserID); err != nil {
			log.Printf("Warning: failed to set presence for %s: %v", claims.UserID, err)
		}
	}

	// Start client pumps
	go client.WritePump()
	go func() {
		client.ReadPump()
		if h.redis != nil {
			if err := h.redis.SetUserOffline(claims.UserID); err != nil {
				log.Printf("Warning: failed to clear presence for %s: %v", claims.UserID, err)
			}
		}
	}()
}

// GetOnlineUsers returns online users
func (h *Handler) GetOnlineUsers(c *gin.Context) {
	onlineUsers := h.hub.OnlineUsers()
	c.JSON(http.StatusOK, gin.H{
		"online_users": onlineUsers,
		"count":        len(onlineUsers),
	})
}

// GetUserPresence returns a user's presence from Redis, surviving across
// instances and hub restarts.
func (h *Handler) GetUserPresence(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if h.redis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence tracking unavailable"})
		return
	}

	presence, err := h.redis.GetUserPresence(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get presence"})
		return
	}

	c.JSON(http.StatusOK, presence)
}

// matchOrigin supports exact matches or wildcard patterns like *.example.com
func matchOrigin(pattern, origin string) bool {
	if pattern == origin {
		return true
	}
	// simple wildcard support: pattern starts with *.
	if strings.HasPrefix(pattern, "*.") {
		originHost := origin
		if u, err := url.Parse(origin); err == nil {
			originHost = u.Hostname()
		}
		patHost := strings.TrimPrefix(pattern, "*.")
		if strings.HasSuffix(originHost, patHost) {
			return true
		}
	}
	return false
}
