package domain

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

// RosterJob 是任务目录中的一项，Name 只用于展示
type RosterJob struct {
	ID        roster.JobID `json:"id"`
	Name      string       `json:"name"`
	NumPeople int          `json:"numPeople"`
	Period    int          `json:"period"`
}

func (j RosterJob) Job() roster.Job {
	return roster.Job{ID: j.ID, NumPeople: j.NumPeople, Period: j.Period}
}

type RosterPerson struct {
	ID       roster.Person `json:"id"`
	FullName string        `json:"fullName"`
	Email    string        `json:"email"`
	Handle   string        `json:"handle"` // 由姓名的拼音生成，用于纯 ASCII 的场景
}

type RosterAssignment struct {
	Week      int             `json:"week"`
	JobID     roster.JobID    `json:"jobID"`
	PersonIDs []roster.Person `json:"personIDs"`
}

// RosterPlan 是一份排班表的全部信息：任务目录、周数、人员名单以及已有的分配
type RosterPlan struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	NumWeeks    int                `json:"numWeeks"`
	Jobs        []RosterJob        `json:"jobs"`
	People      []RosterPerson     `json:"people"`
	Assignments []RosterAssignment `json:"assignments,omitempty"`
	PublishedAt *time.Time         `json:"publishedAt"`
	CreatedAt   time.Time          `json:"createdAt"`
	Version     int32              `json:"-"`
}

func (p *RosterPlan) Catalogue() []roster.Job {
	jobs := make([]roster.Job, 0, len(p.Jobs))
	for _, job := range p.Jobs {
		jobs = append(jobs, job.Job())
	}
	return jobs
}

func (p *RosterPlan) PersonIDs() []roster.Person {
	ids := make([]roster.Person, 0, len(p.People))
	for _, person := range p.People {
		ids = append(ids, person.ID)
	}
	return ids
}

func (p *RosterPlan) FindJob(id roster.JobID) *RosterJob {
	for i := range p.Jobs {
		if p.Jobs[i].ID == id {
			return &p.Jobs[i]
		}
	}
	return nil
}

func (p *RosterPlan) FindPerson(id roster.Person) *RosterPerson {
	for i := range p.People {
		if p.People[i].ID == id {
			return &p.People[i]
		}
	}
	return nil
}

// BuildRoster 用任务目录和周数构造排班表，并按顺序恢复已保存的分配
func (p *RosterPlan) BuildRoster() (*roster.Roster, error) {
	r, err := roster.New(p.Catalogue(), p.NumWeeks)
	if err != nil {
		return nil, err
	}

	for _, assignment := range p.Assignments {
		job := p.FindJob(assignment.JobID)
		if job == nil {
			return nil, fmt.Errorf("%w: 任务 %d 不在任务目录中", roster.ErrSlotInvalid, assignment.JobID)
		}
		slot := roster.Slot{Week: assignment.Week, Job: job.Job()}
		for _, personID := range assignment.PersonIDs {
			// 保存下来的分配可能是强制放入的，因此这里不检查规则
			if err := r.PlaceUnchecked(personID, slot); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

// AssignmentsFromRoster 把排班表的快照转换为可保存的格式
func AssignmentsFromRoster(r *roster.Roster) []RosterAssignment {
	snapshot := r.Assignments()
	assignments := make([]RosterAssignment, 0, len(snapshot))
	for _, a := range snapshot {
		assignments = append(assignments, RosterAssignment{
			Week:      a.Slot.Week,
			JobID:     a.Slot.Job.ID,
			PersonIDs: a.People,
		})
	}
	return assignments
}
