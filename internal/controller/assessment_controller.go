package controller

import (
	"skill_assessment_backend/internal/service"
	"skill_assessment_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
	ScoringService    *service.ScoringService
}

func NewAssessmentController(assessmentService *service.AssessmentService, scoringService *service.ScoringService) *AssessmentController {
	return &AssessmentController{
		AssessmentService: assessmentService,
		ScoringService:    scoringService,
	}
}

type startAssessmentRequest struct {
	UserID string `json:"idUser" binding:"required"`
}

// @Summary 开始技能测评
// @Description 为指定技能创建测评会话，题库为空时先生成题目
// @Tags 测评模块
// @Accept json
// @Produce json
// @Param skill_id path int true "技能ID"
// @Param request body startAssessmentRequest true "用户标识"
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/assessment/{skill_id}/start [post]
func (c *AssessmentController) StartAssessment(ctx *gin.Context) {
	skillID, err := strconv.ParseUint(ctx.Param("skill_id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid skill ID")
		return
	}

	var req startAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.AssessmentService.StartAssessment(ctx.Request.Context(), uint(skillID), req.UserID)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Created(ctx, resp)
}

// @Summary 查询测评会话
// @Description 按会话ID返回会话进度
// @Tags 测评模块
// @Produce json
// @Param session_id path string true "会话ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/assessment/session/{session_id} [get]
func (c *AssessmentController) GetSession(ctx *gin.Context) {
	session, err := c.AssessmentService.GetSession(ctx.Param("session_id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// @Summary 获取测评题目
// @Description 返回会话中指定编号的题目，不含正确答案
// @Tags 测评模块
// @Accept json
// @Produce json
// @Param number path int true "题目编号，从1开始"
// @Param request body service.QuestionViewRequest true "会话与用户标识"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/assessment/question/{number} [post]
func (c *AssessmentController) GetQuestion(ctx *gin.Context) {
	number, err := strconv.Atoi(ctx.Param("number"))
	if err != nil {
		util.BadRequest(ctx, "invalid question number")
		return
	}

	var req service.QuestionViewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.Number = number

	view, err := c.AssessmentService.GetQuestion(req)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// @Summary 提交题目作答
// @Description 记录指定题目的作答，最后一题提交后会话进入完成态
// @Tags 测评模块
// @Accept json
// @Produce json
// @Param number path int true "题目编号，从1开始"
// @Param request body service.AnswerQuestionRequest true "作答内容"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/assessment/answer/{number} [post]
func (c *AssessmentController) AnswerQuestion(ctx *gin.Context) {
	number, err := strconv.Atoi(ctx.Param("number"))
	if err != nil {
		util.BadRequest(ctx, "invalid question number")
		return
	}

	var req service.AnswerQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.Number = number

	resp, err := c.AssessmentService.AnswerQuestion(req)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}

// @Summary 修改题目作答
// @Description 覆盖某道已作答题目的答案，仅限进行中的会话
// @Tags 测评模块
// @Accept json
// @Produce json
// @Param number path int true "题目编号，从1开始"
// @Param request body service.AnswerQuestionRequest true "新的作答内容"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/assessment/answer/{number} [put]
func (c *AssessmentController) UpdateAnswer(ctx *gin.Context) {
	number, err := strconv.Atoi(ctx.Param("number"))
	if err != nil {
		util.BadRequest(ctx, "invalid question number")
		return
	}

	var req service.AnswerQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.Number = number

	resp, err := c.AssessmentService.UpdateAnswer(req)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}

// @Summary 评估测评结果
// @Description 对已完成会话评分并生成反馈，重复调用返回既有反馈
// @Tags 测评模块
// @Produce json
// @Param session_id path string true "会话ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/assessment/evaluate/{session_id} [post]
func (c *AssessmentController) EvaluateSession(ctx *gin.Context) {
	resp, err := c.ScoringService.EvaluateSession(ctx.Request.Context(), ctx.Param("session_id"))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}
