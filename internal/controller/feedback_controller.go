package controller

import (
	"skill_assessment_backend/internal/service"
	"skill_assessment_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type FeedbackController struct {
	ScoringService *service.ScoringService
}

func NewFeedbackController(scoringService *service.ScoringService) *FeedbackController {
	return &FeedbackController{ScoringService: scoringService}
}

// @Summary 反馈详情
// @Description 按反馈ID返回完整评分结果
// @Tags 反馈模块
// @Produce json
// @Param id path string true "反馈ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/feedback/{id} [get]
func (c *FeedbackController) GetFeedback(ctx *gin.Context) {
	resp, err := c.ScoringService.GetFeedbackByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}

// @Summary 用户反馈列表
// @Description 分页返回某个用户所有已评分会话的反馈摘要
// @Tags 反馈模块
// @Produce json
// @Param user_id path string true "用户标识"
// @Param page query int false "页码，默认1"
// @Param limit query int false "每页条数，默认10"
// @Success 200 {object} util.Response
// @Router /api/feedback/user/{user_id} [get]
func (c *FeedbackController) ListUserFeedbacks(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	resp, err := c.ScoringService.ListFeedbacksByUser(ctx.Request.Context(), ctx.Param("user_id"), page, limit)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}
