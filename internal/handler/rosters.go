package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/editor"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

func (h *Handler) CreateRosterPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
		NumWeeks    int    `json:"numWeeks" validate:"required,min=1"`
		Jobs        []struct {
			ID        roster.JobID `json:"id"`
			Name      string       `json:"name" validate:"required"`
			NumPeople int          `json:"numPeople" validate:"required,min=1"`
			Period    int          `json:"period" validate:"required,min=1"`
		} `json:"jobs" validate:"required,min=1,dive"`
		People []struct {
			ID       roster.Person `json:"id"`
			FullName string        `json:"fullName" validate:"required"`
			Email    string        `json:"email" validate:"omitempty,email"`
			Handle   string        `json:"handle"`
		} `json:"people" validate:"dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	plan := &domain.RosterPlan{
		Name:        req.Name,
		Description: req.Description,
		NumWeeks:    req.NumWeeks,
		Jobs:        make([]domain.RosterJob, 0, len(req.Jobs)),
		People:      make([]domain.RosterPerson, 0, len(req.People)),
	}
	for _, job := range req.Jobs {
		plan.Jobs = append(plan.Jobs, domain.RosterJob{ID: job.ID, Name: job.Name, NumPeople: job.NumPeople, Period: job.Period})
	}
	for _, person := range req.People {
		plan.People = append(plan.People, domain.RosterPerson{ID: person.ID, FullName: person.FullName, Email: person.Email, Handle: person.Handle})
	}
	utils.AssignHandles(plan.People)

	limits := utils.RosterLimits{
		MaxWeeks:  h.config.Roster.MaxWeeks,
		MaxPeople: h.config.Roster.MaxPeople,
		MaxJobs:   h.config.Roster.MaxJobs,
	}
	if err := utils.ValidateRosterPlan(plan, limits); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	// 用任务目录实际构造一次，确保之后能正常加载
	if _, err := plan.BuildRoster(); err != nil {
		h.rosterError(w, r, err)
		return
	}

	if err := h.repository.CreateRosterPlan(plan); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建排班表成功", plan)
}

func (h *Handler) GetAllRosterPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.repository.GetAllRosterPlans()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班表列表成功", plans)
}

func (h *Handler) GetRosterPlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)
	e := r.Context().Value(EditorCtx).(*editor.Editor)

	var grid []WeekRow
	e.Read(func(ro *roster.Roster) {
		grid = buildGrid(ro)
		plan.Assignments = domain.AssignmentsFromRoster(ro)
	})

	h.successResponse(w, r, "获取排班表成功", map[string]any{
		"plan": plan,
		"grid": grid,
	})
}

func (h *Handler) DeleteRosterPlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)

	if err := h.repository.DeleteRosterPlan(plan.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "排班表不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	ctx, cancel := h.redisContext(r)
	defer cancel()

	// 排班表已经删除，撤销记录清理失败不影响结果
	if err := h.editors.Evict(ctx, plan.ID); err != nil {
		slog.Warn("无法清理撤销记录", "rosterID", plan.ID, "error", err)
	}

	h.successResponse(w, r, "删除排班表成功", nil)
}

func (h *Handler) GetFirstOpenSlot(w http.ResponseWriter, r *http.Request) {
	e := r.Context().Value(EditorCtx).(*editor.Editor)

	var (
		slot roster.Slot
		ok   bool
	)
	e.Read(func(ro *roster.Roster) {
		slot, ok = ro.FirstOpenSlot()
	})

	if !ok {
		h.successResponse(w, r, "排班表已无空缺", nil)
		return
	}

	h.successResponse(w, r, "获取第一个空缺成功", slot)
}

// GetAssignedInWeek 返回某一周所有值班人员，排班范围之外的周没有人值班
func (h *Handler) GetAssignedInWeek(w http.ResponseWriter, r *http.Request) {
	e := r.Context().Value(EditorCtx).(*editor.Editor)

	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		h.errorResponse(w, r, "周数无效")
		return
	}

	var people []roster.Person
	e.Read(func(ro *roster.Roster) {
		people = ro.AssignedInWeek(week)
	})

	h.successResponse(w, r, "获取本周值班人员成功", people)
}

func (h *Handler) GetWorkload(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)
	e := r.Context().Value(EditorCtx).(*editor.Editor)

	var items []WorkloadItem
	e.Read(func(ro *roster.Roster) {
		items = workloadOf(ro, plan.PersonIDs())
	})

	h.successResponse(w, r, "获取工作量成功", items)
}

func (h *Handler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	e := r.Context().Value(EditorCtx).(*editor.Editor)

	var (
		views []SlotView
		err   error
	)
	e.Read(func(ro *roster.Roster) {
		slots := ro.StreakSlots()
		views = make([]SlotView, 0, len(slots))
		for _, slot := range slots {
			var view SlotView
			view, err = describeSlot(ro, slot)
			if err != nil {
				return
			}
			views = append(views, view)
		}
	})
	if err != nil {
		h.rosterError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取连续值班情况成功", views)
}

func (h *Handler) AppendPerson(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)
	e := r.Context().Value(EditorCtx).(*editor.Editor)

	var req struct {
		PersonID *roster.Person `json:"personID" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if plan.FindPerson(*req.PersonID) == nil {
		h.errorResponse(w, r, "人员不存在")
		return
	}

	ctx, cancel := h.redisContext(r)
	defer cancel()

	slot, err := e.Append(ctx, *req.PersonID)
	h.metrics.ObserveEdit("append", err)
	if err != nil {
		h.rosterError(w, r, err)
		return
	}

	h.successResponse(w, r, "添加成功", slot)
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	e := r.Context().Value(EditorCtx).(*editor.Editor)

	ctx, cancel := h.redisContext(r)
	defer cancel()

	op, err := e.Undo(ctx)
	h.metrics.ObserveEdit("undo", err)
	if err != nil {
		h.rosterError(w, r, err)
		return
	}

	h.successResponse(w, r, "撤销成功", op)
}

func (h *Handler) PublishRosterPlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)
	e := r.Context().Value(EditorCtx).(*editor.Editor)

	var duties map[roster.Person][]domain.RosterDuty
	e.Read(func(ro *roster.Roster) {
		duties = dutiesByPerson(plan, ro)
	})

	if err := h.repository.MarkRosterPlanPublished(plan); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 给每个有值班安排并且有邮箱的人发送通知
	sent := 0
	for _, person := range plan.People {
		if person.Email == "" || len(duties[person.ID]) == 0 {
			continue
		}

		mailMessage := domain.MailMessage{
			Type: domain.MailTypeRosterPublished,
			To:   person.Email,
			Data: domain.RosterPublishedMailData{
				FullName:   person.FullName,
				RosterName: plan.Name,
				Duties:     duties[person.ID],
			},
		}
		if err := h.publishMail(mailMessage); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		h.metrics.MailQueued()
		sent++
	}

	h.successResponse(w, r, "发布排班表成功", map[string]any{
		"publishedAt": plan.PublishedAt,
		"mailsSent":   sent,
	})
}

func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	e := r.Context().Value(EditorCtx).(*editor.Editor)
	slot := r.Context().Value(SlotCtx).(roster.Slot)

	var (
		view SlotView
		err  error
	)
	e.Read(func(ro *roster.Roster) {
		view, err = describeSlot(ro, slot)
	})
	if err != nil {
		h.rosterError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取时间段成功", view)
}

func (h *Handler) GetFit(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)
	e := r.Context().Value(EditorCtx).(*editor.Editor)
	slot := r.Context().Value(SlotCtx).(roster.Slot)

	person, err := parsePerson(plan, r.URL.Query().Get("person"))
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	var fit roster.Fit
	e.Read(func(ro *roster.Roster) {
		fit, err = ro.CheckFit(slot, person)
	})
	if err != nil {
		h.rosterError(w, r, err)
		return
	}

	h.successResponse(w, r, "检查成功", map[string]any{
		"fits":      fit.OK(),
		"conflicts": fit.Conflicts,
	})
}

func (h *Handler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)
	e := r.Context().Value(EditorCtx).(*editor.Editor)
	slot := r.Context().Value(SlotCtx).(roster.Slot)

	var (
		candidates []roster.Person
		err        error
	)
	e.Read(func(ro *roster.Roster) {
		candidates, err = ro.Candidates(slot, plan.PersonIDs())
	})
	if err != nil {
		h.rosterError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取候选人员成功", candidates)
}

func (h *Handler) PlacePerson(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)
	e := r.Context().Value(EditorCtx).(*editor.Editor)
	slot := r.Context().Value(SlotCtx).(roster.Slot)

	var req struct {
		PersonID *roster.Person `json:"personID" validate:"required"`
		Force    bool           `json:"force"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if plan.FindPerson(*req.PersonID) == nil {
		h.errorResponse(w, r, "人员不存在")
		return
	}

	ctx, cancel := h.redisContext(r)
	defer cancel()

	op := "place"
	if req.Force {
		op = "force_place"
	}
	err := e.Place(ctx, *req.PersonID, slot, req.Force)
	h.metrics.ObserveEdit(op, err)
	if err != nil {
		h.rosterError(w, r, err)
		return
	}

	h.successResponse(w, r, "放入成功", nil)
}

func (h *Handler) RemovePerson(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(RosterPlanCtx).(*domain.RosterPlan)
	e := r.Context().Value(EditorCtx).(*editor.Editor)
	slot := r.Context().Value(SlotCtx).(roster.Slot)

	person, err := parsePerson(plan, chi.URLParam(r, "personID"))
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	ctx, cancel := h.redisContext(r)
	defer cancel()

	removed, err := e.Remove(ctx, person, slot)
	h.metrics.ObserveEdit("remove", err)
	if err != nil {
		h.rosterError(w, r, err)
		return
	}

	if !removed {
		h.successResponse(w, r, "该人员不在此时间段中", map[string]any{"removed": false})
		return
	}

	h.successResponse(w, r, "移除成功", map[string]any{"removed": true})
}

// redisContext 为涉及撤销记录的操作设置超时
func (h *Handler) redisContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
}

func (h *Handler) publishMail(msg domain.MailMessage) error {
	mailData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailChannel.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.Queue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	)
}
