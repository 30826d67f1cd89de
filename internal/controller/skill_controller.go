package controller

import (
	"skill_assessment_backend/internal/service"
	"skill_assessment_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type SkillController struct {
	SkillService *service.SkillService
}

func NewSkillController(skillService *service.SkillService) *SkillController {
	return &SkillController{SkillService: skillService}
}

// @Summary 创建技能
// @Description 新增一个可测评的技能
// @Tags 技能模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateSkillRequest true "技能信息"
// @Success 201 {object} util.Response
// @Router /api/skills [post]
func (c *SkillController) CreateSkill(ctx *gin.Context) {
	var req service.CreateSkillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skill, err := c.SkillService.CreateSkill(&req)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Created(ctx, skill)
}

// @Summary 技能列表
// @Description 分页返回全部技能
// @Tags 技能模块
// @Produce json
// @Param page query int false "页码，默认1"
// @Param limit query int false "每页条数，默认10"
// @Success 200 {object} util.Response
// @Router /api/skills [get]
func (c *SkillController) ListSkills(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	resp, err := c.SkillService.ListSkills(page, limit)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}

// @Summary 技能详情
// @Description 按ID返回技能
// @Tags 技能模块
// @Produce json
// @Param id path int true "技能ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/skills/{id} [get]
func (c *SkillController) GetSkill(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid skill ID")
		return
	}

	skill, err := c.SkillService.GetSkill(uint(id))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, skill)
}

// @Summary 更新技能
// @Description 修改技能名称或描述
// @Tags 技能模块
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "技能ID"
// @Param request body service.UpdateSkillRequest true "更新内容"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/skills/{id} [put]
func (c *SkillController) UpdateSkill(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid skill ID")
		return
	}

	var req service.UpdateSkillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skill, err := c.SkillService.UpdateSkill(uint(id), &req)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, skill)
}

// @Summary 删除技能
// @Description 删除技能及其题库
// @Tags 技能模块
// @Produce json
// @Security BearerAuth
// @Param id path int true "技能ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/skills/{id} [delete]
func (c *SkillController) DeleteSkill(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid skill ID")
		return
	}

	if err := c.SkillService.DeleteSkill(uint(id)); err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "skill deleted"})
}
