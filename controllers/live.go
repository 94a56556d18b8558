package controllers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ompro/ompro_end/models"
	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/utils"
)

// HeartbeatInterval keeps idle event streams open through proxies
var HeartbeatInterval = 25 * time.Second

// LiveTasks streams a group's task list as server-sent events.
//
// The first event is "snapshot" with the filtered list, followed by one
// "change" event per applied insert, update or delete. When the feed fails
// or the client falls behind a "resync" event is sent and the stream ends;
// the client reconnects to get a fresh snapshot.
func (h *Handler) LiveTasks(c *gin.Context) {
	groupID := c.Param("id")
	if _, err := utils.ParseObjectID(groupID, "group"); err != nil {
		utils.HandleError(c, err)
		return
	}
	var q models.TaskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("invalid query: "+err.Error()))
		return
	}
	q.GroupID = groupID

	ctx := c.Request.Context()
	synchronizer, release, err := h.Hub.Acquire(ctx, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer release()

	// registered before the snapshot is taken so no change is missed
	changes, stop := synchronizer.Watch(0)
	defer stop()

	log := utils.Logger.With().Str("groupId", groupID).Logger()
	log.Debug().Int("tasks", synchronizer.Len()).Msg("live client connected")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("snapshot", gin.H{"groupId": groupID, "tasks": synchronizer.View(q)})
	c.Writer.Flush()

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case change, ok := <-changes:
			if !ok {
				reason := "listener closed"
				if err := synchronizer.Err(); err != nil {
					reason = err.Error()
				}
				log.Info().Str("reason", reason).Msg("live client asked to resync")
				c.SSEvent("resync", gin.H{"reason": reason})
				return false
			}
			if change.Task != nil && !service.MatchesQuery(*change.Task, q) {
				// outside the client's filter: removing an id it never showed is a no-op
				change = service.TaskChange{Kind: service.ChangeDelete, TaskID: change.TaskID}
			}
			c.SSEvent("change", change)
			return true
		case t := <-heartbeat.C:
			c.SSEvent("ping", t.UnixMilli())
			return true
		}
	})
	log.Debug().Msg("live client disconnected")
}
