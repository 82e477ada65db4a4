package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // CORS is enforced at the router level
		},
	}
}

// streamChannel upgrades the request to a websocket and forwards every
// payload published on the redis channel until the client goes away.
// The subscription and the socket are both released on return, so a
// viewer navigating away cannot leak a live subscription. replay, when
// non-nil, runs before live streaming starts (history catch-up).
func streamChannel(c *gin.Context, upgrader websocket.Upgrader, redisClient *redis.Client, channel string, replay func(conn *websocket.Conn) error) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	if replay != nil {
		if err := replay(conn); err != nil {
			log.Printf("Failed to replay history on %s: %v", channel, err)
			return
		}
	}

	if redisClient == nil {
		log.Println("Redis client is nil, cannot stream live updates")
		return
	}

	pubsub := redisClient.Subscribe(c.Request.Context(), channel)
	defer pubsub.Close()

	// Wait for confirmation that the subscription is established before
	// telling the client it is live.
	if _, err := pubsub.Receive(c.Request.Context()); err != nil {
		log.Printf("Failed to subscribe to redis channel %s: %v", channel, err)
		return
	}

	ch := pubsub.Channel()

	// Reader goroutine: its only job is to notice the client closing.
	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-clientClosed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
