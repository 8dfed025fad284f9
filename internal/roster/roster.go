// Package roster 实现值班表的核心模型：任务、时间段、人员，以及判断某人能否放入某个时间段的规则。
//
// Roster 不做任何同步，也不做持久化。如果上层允许并发访问，需要自行加锁。
package roster

import (
	"fmt"
	"slices"
)

type (
	Person uint32
	JobID  uint32
)

// Job 是一个周期性的值班任务，从第 0 周开始每隔 Period 周出现一次，每次需要 NumPeople 人
type Job struct {
	ID        JobID `json:"id"`
	NumPeople int   `json:"numPeople"`
	Period    int   `json:"period"`
}

// Slot 是可分配的最小单位，即 (周, 任务)
type Slot struct {
	Week int `json:"week"`
	Job  Job `json:"job"`
}

// Assignment 是某个时间段的分配快照
type Assignment struct {
	Slot   Slot     `json:"slot"`
	People []Person `json:"people"`
}

type Roster struct {
	jobs     []Job
	numWeeks int
	slots    map[Slot][]Person
}

// New 根据任务目录和周数创建一个空的排班表，任务目录的顺序决定了扫描顺序
func New(jobs []Job, numWeeks int) (*Roster, error) {
	if numWeeks < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, numWeeks)
	}

	seen := make(map[JobID]bool, len(jobs))
	for _, job := range jobs {
		if job.NumPeople < 1 || job.Period < 1 {
			return nil, fmt.Errorf("%w: 任务 %d 的人数和周期都必须大于 0", ErrInvalidJob, job.ID)
		}
		if seen[job.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateJob, job.ID)
		}
		seen[job.ID] = true
	}

	return &Roster{
		jobs:     slices.Clone(jobs),
		numWeeks: numWeeks,
		slots:    make(map[Slot][]Person),
	}, nil
}

func (r *Roster) Jobs() []Job {
	return slices.Clone(r.jobs)
}

func (r *Roster) NumWeeks() int {
	return r.numWeeks
}

// Job 根据 ID 在任务目录中查找任务
func (r *Roster) Job(id JobID) (Job, bool) {
	for _, job := range r.jobs {
		if job.ID == id {
			return job, true
		}
	}
	return Job{}, false
}

func (r *Roster) IsValidSlot(slot Slot) bool {
	if slot.Week < 0 || slot.Week >= r.numWeeks {
		return false
	}
	return slices.Contains(r.jobs, slot.Job) && slot.Week%slot.Job.Period == 0
}

func (r *Roster) NumPeopleInSlot(slot Slot) (int, error) {
	if !r.IsValidSlot(slot) {
		return 0, invalidSlot(slot)
	}
	return len(r.slots[slot]), nil
}

func (r *Roster) IsSlotOpen(slot Slot) (bool, error) {
	n, err := r.NumPeopleInSlot(slot)
	if err != nil {
		return false, err
	}
	return n < slot.Job.NumPeople, nil
}

// Previous 返回同一任务上一次出现的时间段，week - period 为负时不存在
func (r *Roster) Previous(slot Slot) (Slot, bool) {
	if slot.Job.Period > slot.Week {
		return Slot{}, false
	}
	return Slot{Week: slot.Week - slot.Job.Period, Job: slot.Job}, true
}

// Next 返回同一任务下一次出现的时间段，超出周数时不存在
func (r *Roster) Next(slot Slot) (Slot, bool) {
	if slot.Week+slot.Job.Period >= r.numWeeks {
		return Slot{}, false
	}
	return Slot{Week: slot.Week + slot.Job.Period, Job: slot.Job}, true
}

// Assigned 返回时间段中已分配的人员（按加入顺序）。无效或超出范围的时间段返回空，而不是错误
func (r *Roster) Assigned(slot Slot) []Person {
	if slot.Week < 0 || slot.Week >= r.numWeeks {
		return []Person{}
	}
	return slices.Clone(r.slots[slot])
}

// AssignedInWeek 按任务目录顺序汇总某一周所有任务中的人员
func (r *Roster) AssignedInWeek(week int) []Person {
	people := make([]Person, 0)
	for _, job := range r.jobs {
		if week%job.Period != 0 {
			continue
		}
		people = append(people, r.Assigned(Slot{Week: week, Job: job})...)
	}
	return people
}

// Slots 按扫描顺序（先周后任务）列出所有有效的时间段
func (r *Roster) Slots() []Slot {
	slots := make([]Slot, 0)
	for week := 0; week < r.numWeeks; week++ {
		for _, job := range r.jobs {
			if week%job.Period == 0 {
				slots = append(slots, Slot{Week: week, Job: job})
			}
		}
	}
	return slots
}

// FirstOpenSlot 按先周后任务目录的顺序返回第一个未满的时间段，这个顺序是对外约定，不要改
func (r *Roster) FirstOpenSlot() (Slot, bool) {
	for _, slot := range r.Slots() {
		if len(r.slots[slot]) < slot.Job.NumPeople {
			return slot, true
		}
	}
	return Slot{}, false
}

// Append 把人员放进第一个未满的时间段，不检查排班规则
func (r *Roster) Append(person Person) (Slot, error) {
	slot, ok := r.FirstOpenSlot()
	if !ok {
		return Slot{}, ErrRosterFull
	}
	if slices.Contains(r.slots[slot], person) {
		return Slot{}, alreadyAssigned(person, slot)
	}

	r.slots[slot] = append(r.slots[slot], person)
	return slot, nil
}

// PlaceUnchecked 把人员放进指定时间段，只检查容量，不检查排班规则
func (r *Roster) PlaceUnchecked(person Person, slot Slot) error {
	return r.InsertAt(person, slot, -1)
}

// Place 先检查容量和排班规则再放入，规则不满足时返回 *FitError
func (r *Roster) Place(person Person, slot Slot) error {
	open, err := r.IsSlotOpen(slot)
	if err != nil {
		return err
	}
	if !open {
		return slotFull(slot)
	}
	if slices.Contains(r.slots[slot], person) {
		return alreadyAssigned(person, slot)
	}

	fit, err := r.CheckFit(slot, person)
	if err != nil {
		return err
	}
	if !fit.OK() {
		return &FitError{Person: person, Slot: slot, Fit: fit}
	}
	return r.PlaceUnchecked(person, slot)
}

// InsertAt 把人员插入到时间段的指定位置，index 越界（或为负）时追加到末尾。
// 撤销删除操作时用它把人放回原来的位置
func (r *Roster) InsertAt(person Person, slot Slot, index int) error {
	open, err := r.IsSlotOpen(slot)
	if err != nil {
		return err
	}
	if !open {
		return slotFull(slot)
	}
	if slices.Contains(r.slots[slot], person) {
		return alreadyAssigned(person, slot)
	}

	people := r.slots[slot]
	if index < 0 || index > len(people) {
		index = len(people)
	}
	r.slots[slot] = slices.Insert(people, index, person)
	return nil
}

// Remove 把人员从时间段中移除，人员不在其中时什么都不做
func (r *Roster) Remove(person Person, slot Slot) bool {
	people, ok := r.slots[slot]
	if !ok {
		return false
	}

	i := slices.Index(people, person)
	if i < 0 {
		return false
	}

	people = slices.Delete(people, i, i+1)
	if len(people) == 0 {
		delete(r.slots, slot)
	} else {
		r.slots[slot] = people
	}
	return true
}

// IndexOf 返回人员在时间段中的位置，不存在时返回 -1
func (r *Roster) IndexOf(person Person, slot Slot) int {
	return slices.Index(r.slots[slot], person)
}

// Workload 统计每个人被分配到的时间段数量
func (r *Roster) Workload() map[Person]int {
	workload := make(map[Person]int)
	for _, people := range r.slots {
		for _, person := range people {
			workload[person]++
		}
	}
	return workload
}

// Assignments 按扫描顺序返回所有非空时间段的快照
func (r *Roster) Assignments() []Assignment {
	assignments := make([]Assignment, 0, len(r.slots))
	for _, slot := range r.Slots() {
		people := r.slots[slot]
		if len(people) == 0 {
			continue
		}
		assignments = append(assignments, Assignment{Slot: slot, People: slices.Clone(people)})
	}
	return assignments
}

func (r *Roster) Clone() *Roster {
	c := &Roster{
		jobs:     slices.Clone(r.jobs),
		numWeeks: r.numWeeks,
		slots:    make(map[Slot][]Person, len(r.slots)),
	}
	for slot, people := range r.slots {
		c.slots[slot] = slices.Clone(people)
	}
	return c
}

func invalidSlot(slot Slot) error {
	return fmt.Errorf("%w: 第 %d 周的任务 %d", ErrSlotInvalid, slot.Week, slot.Job.ID)
}

func slotFull(slot Slot) error {
	return fmt.Errorf("%w: 第 %d 周的任务 %d 最多 %d 人", ErrSlotFull, slot.Week, slot.Job.ID, slot.Job.NumPeople)
}

func alreadyAssigned(person Person, slot Slot) error {
	return fmt.Errorf("%w: 人员 %d，第 %d 周的任务 %d", ErrAlreadyAssigned, person, slot.Week, slot.Job.ID)
}
