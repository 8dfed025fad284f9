package utils

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

// maxStoredID 是数据库 INTEGER 列能保存的最大 ID
const maxStoredID = math.MaxInt32

// RosterLimits 限制单份排班表的规模
type RosterLimits struct {
	MaxWeeks  int
	MaxPeople int
	MaxJobs   int
}

func ValidateRosterPlan(plan *domain.RosterPlan, limits RosterLimits) error {
	if strings.TrimSpace(plan.Name) == "" {
		return errors.New("排班表名称不能为空")
	}
	if plan.NumWeeks < 1 {
		return errors.New("周数必须大于 0")
	}
	if limits.MaxWeeks > 0 && plan.NumWeeks > limits.MaxWeeks {
		return fmt.Errorf("周数不能超过 %d", limits.MaxWeeks)
	}
	if len(plan.Jobs) == 0 {
		return errors.New("至少需要一个值班任务")
	}
	if limits.MaxJobs > 0 && len(plan.Jobs) > limits.MaxJobs {
		return fmt.Errorf("值班任务不能超过 %d 个", limits.MaxJobs)
	}
	if limits.MaxPeople > 0 && len(plan.People) > limits.MaxPeople {
		return fmt.Errorf("人员不能超过 %d 人", limits.MaxPeople)
	}

	// 检查任务 ID 和名称是否重复
	jobIDs := make(map[roster.JobID]bool)
	jobNames := make(map[string]bool)
	for i, job := range plan.Jobs {
		if job.ID > maxStoredID {
			return fmt.Errorf("第 %d 个任务的 ID 不能超过 %d", i+1, maxStoredID)
		}
		if jobIDs[job.ID] {
			return fmt.Errorf("第 %d 个任务的 ID %d 重复", i+1, job.ID)
		}
		jobIDs[job.ID] = true

		name := strings.TrimSpace(job.Name)
		if name == "" {
			return fmt.Errorf("第 %d 个任务的名称不能为空", i+1)
		}
		if jobNames[name] {
			return fmt.Errorf("任务名称 %s 重复", name)
		}
		jobNames[name] = true

		if job.NumPeople < 1 {
			return fmt.Errorf("任务 %s 的人数必须大于 0", name)
		}
		if job.Period < 1 {
			return fmt.Errorf("任务 %s 的周期必须大于 0", name)
		}
	}

	// 检查人员 ID 是否重复
	personIDs := make(map[roster.Person]bool)
	for i, person := range plan.People {
		if person.ID > maxStoredID {
			return fmt.Errorf("第 %d 位人员的 ID 不能超过 %d", i+1, maxStoredID)
		}
		if personIDs[person.ID] {
			return fmt.Errorf("第 %d 位人员的 ID %d 重复", i+1, person.ID)
		}
		personIDs[person.ID] = true

		if strings.TrimSpace(person.FullName) == "" {
			return fmt.Errorf("第 %d 位人员的姓名不能为空", i+1)
		}
	}

	return ValidateRosterAssignments(plan)
}

// ValidateRosterAssignments 检查已有分配是否都引用了排班表中的任务和人员，并且没有重复的人员。
// 周是否有效、容量是否足够由 roster 包在恢复时检查
func ValidateRosterAssignments(plan *domain.RosterPlan) error {
	seen := make(map[roster.JobID]map[int]bool)
	for i, assignment := range plan.Assignments {
		if plan.FindJob(assignment.JobID) == nil {
			return fmt.Errorf("第 %d 项分配的任务 %d 不存在", i+1, assignment.JobID)
		}
		if seen[assignment.JobID] == nil {
			seen[assignment.JobID] = make(map[int]bool)
		}
		if seen[assignment.JobID][assignment.Week] {
			return fmt.Errorf("第 %d 周的任务 %d 出现了多次", assignment.Week, assignment.JobID)
		}
		seen[assignment.JobID][assignment.Week] = true

		people := make(map[roster.Person]bool)
		for _, personID := range assignment.PersonIDs {
			if plan.FindPerson(personID) == nil {
				return fmt.Errorf("第 %d 项分配的人员 %d 不存在", i+1, personID)
			}
			if people[personID] {
				return fmt.Errorf("第 %d 周的任务 %d 中存在重复人员", assignment.Week, assignment.JobID)
			}
			people[personID] = true
		}
	}

	return nil
}
