package handler

import (
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

// CellView 是网格中的一格。Valid 为 false 表示该任务这一周不出现，其余字段为空
type CellView struct {
	JobID     roster.JobID    `json:"jobID"`
	Valid     bool            `json:"valid"`
	People    []roster.Person `json:"people"`
	OpenSeats int             `json:"openSeats"`
	Streakers []roster.Person `json:"streakers"`
}

type WeekRow struct {
	Week  int        `json:"week"`
	Cells []CellView `json:"cells"`
}

type SlotView struct {
	Week      int             `json:"week"`
	JobID     roster.JobID    `json:"jobID"`
	NumPeople int             `json:"numPeople"`
	People    []roster.Person `json:"people"`
	Open      bool            `json:"open"`
	Streakers []roster.Person `json:"streakers"`
}

type WorkloadItem struct {
	Person roster.Person `json:"person"`
	Count  int           `json:"count"`
}

// buildGrid 按周生成网格，每行的格子顺序与任务目录一致
func buildGrid(r *roster.Roster) []WeekRow {
	rows := make([]WeekRow, 0, r.NumWeeks())
	for week := 0; week < r.NumWeeks(); week++ {
		row := WeekRow{Week: week, Cells: make([]CellView, 0, len(r.Jobs()))}
		for _, job := range r.Jobs() {
			slot := roster.Slot{Week: week, Job: job}
			cell := CellView{JobID: job.ID, People: []roster.Person{}, Streakers: []roster.Person{}}
			if r.IsValidSlot(slot) {
				cell.Valid = true
				cell.People = r.Assigned(slot)
				cell.OpenSeats = job.NumPeople - len(cell.People)
				cell.Streakers = r.Streakers(slot)
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

func describeSlot(r *roster.Roster, slot roster.Slot) (SlotView, error) {
	open, err := r.IsSlotOpen(slot)
	if err != nil {
		return SlotView{}, err
	}

	return SlotView{
		Week:      slot.Week,
		JobID:     slot.Job.ID,
		NumPeople: slot.Job.NumPeople,
		People:    r.Assigned(slot),
		Open:      open,
		Streakers: r.Streakers(slot),
	}, nil
}

// workloadOf 列出名单中每个人的值班次数，没有值班的人也会出现，次数为 0
func workloadOf(r *roster.Roster, people []roster.Person) []WorkloadItem {
	workload := r.Workload()
	items := make([]WorkloadItem, 0, len(people))
	for _, person := range people {
		items = append(items, WorkloadItem{Person: person, Count: workload[person]})
	}
	return items
}

// dutiesByPerson 整理每个人的值班安排，用于发布时发送邮件
func dutiesByPerson(plan *domain.RosterPlan, r *roster.Roster) map[roster.Person][]domain.RosterDuty {
	duties := make(map[roster.Person][]domain.RosterDuty)
	for _, assignment := range r.Assignments() {
		name := ""
		if job := plan.FindJob(assignment.Slot.Job.ID); job != nil {
			name = job.Name
		}
		for _, person := range assignment.People {
			duties[person] = append(duties[person], domain.RosterDuty{
				Week:    assignment.Slot.Week + 1,
				JobName: name,
			})
		}
	}
	return duties
}
