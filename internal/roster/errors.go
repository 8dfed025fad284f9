package roster

import (
	"errors"
	"fmt"
	"strings"
)

// 构造阶段的错误
var (
	ErrInvalidJob     = errors.New("无效的值班任务")
	ErrDuplicateJob   = errors.New("值班任务 ID 重复")
	ErrInvalidHorizon = errors.New("无效的周数")
)

// 调用约定被违反时返回的错误，调用方可以据此给出提示而不是直接崩溃
var (
	ErrSlotInvalid     = errors.New("无效的时间段")
	ErrSlotFull        = errors.New("时间段人数已满")
	ErrRosterFull      = errors.New("排班表已无空缺")
	ErrAlreadyAssigned = errors.New("该人员已在此时间段中")
	ErrDoesNotFit      = errors.New("该人员不满足排班规则")
)

// FitError 表示检查后放置失败，携带具体违反了哪些规则
type FitError struct {
	Person Person
	Slot   Slot
	Fit    Fit
}

func (e *FitError) Error() string {
	reasons := make([]string, 0, len(e.Fit.Conflicts))
	for _, c := range e.Fit.Conflicts {
		reasons = append(reasons, c.String())
	}
	return fmt.Sprintf("人员 %d 无法放入第 %d 周的任务 %d：%s", e.Person, e.Slot.Week, e.Slot.Job.ID, strings.Join(reasons, "；"))
}

func (e *FitError) Unwrap() error {
	return ErrDoesNotFit
}
