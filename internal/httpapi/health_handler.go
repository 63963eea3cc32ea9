package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
)

func nowUTC() time.Time { return time.Now().UTC() }

// health reports liveness plus the Run Queue backlog, so an operator
// can see capacity pressure without reaching for the logs.
func (s *Server) health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":      "ok",
		"queue_depth": s.queue.Depth(),
		"time":        nowUTC(),
	})
}
