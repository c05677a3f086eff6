package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeisme/filerelay/pkg/scheduler"
)

func sched(c *gin.Context) (*scheduler.Scheduler, bool) {
	svc, ok := services(c)
	if !ok {
		return nil, false
	}

	if svc.Scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler disabled"})
		return nil, false
	}

	return svc.Scheduler, true
}

func jobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return uuid.Nil, false
	}

	return id, true
}

// SchedulerJobs 返回所有任务的状态.
//
//	@Summary	定时任务状态
//	@Tags		调度
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]string
//	@Router		/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	s, ok := sched(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": s.JobInfos(), "waiting": s.JobsWaitingInQueue()})
}

// SchedulerRunJob 立即触发一次任务.
//
//	@Summary	立即执行定时任务
//	@Tags		调度
//	@Produce	json
//	@Param		id	path		string	true	"任务 UUID"
//	@Success	202	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/scheduler/jobs/{id}/run [post]
func SchedulerRunJob(c *gin.Context) {
	s, ok := sched(c)
	if !ok {
		return
	}

	id, ok := jobID(c)
	if !ok {
		return
	}

	if err := s.RunNow(id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered"})
}

// SchedulerRemoveJob 根据 id 删除任务.
//
//	@Summary	删除定时任务
//	@Tags		调度
//	@Produce	json
//	@Param		id	path		string	true	"任务 UUID"
//	@Success	200	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/scheduler/jobs/{id} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	s, ok := sched(c)
	if !ok {
		return
	}

	id, ok := jobID(c)
	if !ok {
		return
	}

	if err := s.RemoveJob(id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}
