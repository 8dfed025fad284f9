package roster

import (
	"cmp"
	"fmt"
	"slices"
)

type ConflictKind int

const (
	// ConflictPrevious 表示人员已在同一任务的上一次出现中值班
	ConflictPrevious ConflictKind = iota + 1
	// ConflictNext 表示人员已在同一任务的下一次出现中值班
	ConflictNext
	// ConflictSameWeek 表示人员在同一周已有值班（包括目标时间段本身）
	ConflictSameWeek
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictPrevious:
		return "previous"
	case ConflictNext:
		return "next"
	case ConflictSameWeek:
		return "same_week"
	default:
		return "unknown"
	}
}

// Conflict 描述一条被违反的规则，Slot 为冲突发生的时间段
type Conflict struct {
	Kind ConflictKind `json:"kind"`
	Slot Slot         `json:"slot"`
}

func (c Conflict) String() string {
	switch c.Kind {
	case ConflictPrevious:
		return fmt.Sprintf("已在上一次（第 %d 周）的同一任务中值班", c.Slot.Week)
	case ConflictNext:
		return fmt.Sprintf("已在下一次（第 %d 周）的同一任务中值班", c.Slot.Week)
	case ConflictSameWeek:
		return fmt.Sprintf("第 %d 周已在任务 %d 中值班", c.Slot.Week, c.Slot.Job.ID)
	default:
		return "未知冲突"
	}
}

// Fit 是一次规则检查的结果，Conflicts 为空表示可以放入
type Fit struct {
	Conflicts []Conflict `json:"conflicts"`
}

func (f Fit) OK() bool {
	return len(f.Conflicts) == 0
}

// Has 判断是否触发了某一类冲突
func (f Fit) Has(kind ConflictKind) bool {
	return slices.ContainsFunc(f.Conflicts, func(c Conflict) bool { return c.Kind == kind })
}

// CheckFit 检查人员放入时间段是否满足规则：
//   - 不在同一任务的上一次出现中
//   - 不在同一任务的下一次出现中
//   - 同一周没有其他值班
//
// 已经在目标时间段中的人员会因为同一周规则而不满足，这里不做特殊处理。
// 如果调用方想知道“移出后是否仍然满足”，需要先把人员从目标时间段中移除再检查
func (r *Roster) CheckFit(slot Slot, person Person) (Fit, error) {
	if !r.IsValidSlot(slot) {
		return Fit{}, invalidSlot(slot)
	}

	fit := Fit{Conflicts: make([]Conflict, 0)}

	if previous, ok := r.Previous(slot); ok && slices.Contains(r.Assigned(previous), person) {
		fit.Conflicts = append(fit.Conflicts, Conflict{Kind: ConflictPrevious, Slot: previous})
	}
	if next, ok := r.Next(slot); ok && slices.Contains(r.Assigned(next), person) {
		fit.Conflicts = append(fit.Conflicts, Conflict{Kind: ConflictNext, Slot: next})
	}
	for _, job := range r.jobs {
		if slot.Week%job.Period != 0 {
			continue
		}
		other := Slot{Week: slot.Week, Job: job}
		if slices.Contains(r.slots[other], person) {
			fit.Conflicts = append(fit.Conflicts, Conflict{Kind: ConflictSameWeek, Slot: other})
		}
	}

	return fit, nil
}

func (r *Roster) Fits(slot Slot, person Person) (bool, error) {
	fit, err := r.CheckFit(slot, person)
	if err != nil {
		return false, err
	}
	return fit.OK(), nil
}

// Candidates 从 people 中挑出可以放入时间段的人员，按已分配数量从少到多排序，数量相同按 ID 排序
func (r *Roster) Candidates(slot Slot, people []Person) ([]Person, error) {
	if !r.IsValidSlot(slot) {
		return nil, invalidSlot(slot)
	}

	workload := r.Workload()
	candidates := make([]Person, 0, len(people))
	for _, person := range people {
		if slices.Contains(candidates, person) {
			continue
		}
		fit, err := r.CheckFit(slot, person)
		if err != nil {
			return nil, err
		}
		if fit.OK() {
			candidates = append(candidates, person)
		}
	}

	slices.SortStableFunc(candidates, func(a, b Person) int {
		if c := cmp.Compare(workload[a], workload[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return candidates, nil
}

// Streakers 返回时间段中那些在“上一次出现所在周的前一周”也有值班的人员，只用于界面高亮。
// 注意比较的是 previous.Week - 1 这一周，而不是 previous 本身
func (r *Roster) Streakers(slot Slot) []Person {
	streakers := make([]Person, 0)

	previous, ok := r.Previous(slot)
	if !ok || previous.Week == 0 {
		return streakers
	}

	weekBefore := r.AssignedInWeek(previous.Week - 1)
	for _, person := range r.Assigned(slot) {
		if slices.Contains(weekBefore, person) {
			streakers = append(streakers, person)
		}
	}
	return streakers
}

// StreakSlots 按扫描顺序返回所有存在 streaker 的时间段
func (r *Roster) StreakSlots() []Slot {
	slots := make([]Slot, 0)
	for _, slot := range r.Slots() {
		if len(r.Streakers(slot)) > 0 {
			slots = append(slots, slot)
		}
	}
	return slots
}
