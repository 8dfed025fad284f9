package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

var limits = RosterLimits{MaxWeeks: 52, MaxPeople: 10, MaxJobs: 5}

func validPlan() *domain.RosterPlan {
	return &domain.RosterPlan{
		Name:     "宿舍值日",
		NumWeeks: 4,
		Jobs: []domain.RosterJob{
			{ID: 0, Name: "厨房", NumPeople: 2, Period: 1},
			{ID: 1, Name: "走廊", NumPeople: 1, Period: 2},
		},
		People: []domain.RosterPerson{
			{ID: 0, FullName: "王伟"},
			{ID: 1, FullName: "李静"},
		},
	}
}

func TestValidateRosterPlan(t *testing.T) {
	t.Run("accepts a valid plan", func(t *testing.T) {
		require.NoError(t, ValidateRosterPlan(validPlan(), limits))
	})

	cases := map[string]func(p *domain.RosterPlan){
		"empty name":       func(p *domain.RosterPlan) { p.Name = " " },
		"zero weeks":       func(p *domain.RosterPlan) { p.NumWeeks = 0 },
		"too many weeks":   func(p *domain.RosterPlan) { p.NumWeeks = 53 },
		"no jobs":          func(p *domain.RosterPlan) { p.Jobs = nil },
		"duplicate job id": func(p *domain.RosterPlan) { p.Jobs[1].ID = 0 },
		"duplicate job":    func(p *domain.RosterPlan) { p.Jobs[1].Name = "厨房" },
		"zero capacity":    func(p *domain.RosterPlan) { p.Jobs[0].NumPeople = 0 },
		"zero period":      func(p *domain.RosterPlan) { p.Jobs[0].Period = 0 },
		"duplicate person": func(p *domain.RosterPlan) { p.People[1].ID = 0 },
		"unnamed person":   func(p *domain.RosterPlan) { p.People[0].FullName = "" },
		"unknown job":      func(p *domain.RosterPlan) { p.Assignments = []domain.RosterAssignment{{JobID: 7}} },
		"unknown person": func(p *domain.RosterPlan) {
			p.Assignments = []domain.RosterAssignment{{JobID: 0, PersonIDs: []roster.Person{9}}}
		},
		"repeated person": func(p *domain.RosterPlan) {
			p.Assignments = []domain.RosterAssignment{{JobID: 0, PersonIDs: []roster.Person{1, 1}}}
		},
		"repeated slot":         func(p *domain.RosterPlan) { p.Assignments = []domain.RosterAssignment{{JobID: 0}, {JobID: 0}} },
		"too many jobs":         func(p *domain.RosterPlan) { p.Jobs = append(p.Jobs, make([]domain.RosterJob, 4)...) },
		"too many people":       func(p *domain.RosterPlan) { p.People = append(p.People, make([]domain.RosterPerson, 9)...) },
		"job id beyond int4":    func(p *domain.RosterPlan) { p.Jobs[1].ID = 3_000_000_000 },
		"person id beyond int4": func(p *domain.RosterPlan) { p.People[1].ID = 4_000_000_000 },
	}

	for name, mutate := range cases {
		t.Run("rejects "+name, func(t *testing.T) {
			plan := validPlan()
			mutate(plan)
			require.Error(t, ValidateRosterPlan(plan, limits))
		})
	}
}

func TestValidateRosterPlanMessages(t *testing.T) {
	t.Run("zero weeks without a limit", func(t *testing.T) {
		plan := validPlan()
		plan.NumWeeks = 0
		err := ValidateRosterPlan(plan, RosterLimits{})
		require.EqualError(t, err, "周数必须大于 0")
	})

	t.Run("weeks over the limit", func(t *testing.T) {
		plan := validPlan()
		plan.NumWeeks = 53
		err := ValidateRosterPlan(plan, limits)
		require.EqualError(t, err, "周数不能超过 52")
	})

	t.Run("largest storable ids are accepted", func(t *testing.T) {
		plan := validPlan()
		plan.Jobs[1].ID = math.MaxInt32
		plan.People[1].ID = math.MaxInt32
		require.NoError(t, ValidateRosterPlan(plan, limits))
	})

	t.Run("person id beyond int4", func(t *testing.T) {
		plan := validPlan()
		plan.People[1].ID = math.MaxInt32 + 1
		err := ValidateRosterPlan(plan, limits)
		require.EqualError(t, err, "第 2 位人员的 ID 不能超过 2147483647")
	})
}

func TestHandleFromName(t *testing.T) {
	require.Equal(t, "wangwei", HandleFromName("王伟"))
	require.Equal(t, "lijing", HandleFromName(" 李静 "))
	require.Equal(t, "binky", HandleFromName("Binky"))
}

func TestAssignHandles(t *testing.T) {
	people := []domain.RosterPerson{
		{FullName: "王伟"},
		{FullName: "王伟"},
		{FullName: "Steve", Handle: "steve-k"},
	}

	AssignHandles(people)

	require.Equal(t, "wangwei", people[0].Handle)
	require.Equal(t, "wangwei2", people[1].Handle)
	require.Equal(t, "steve-k", people[2].Handle)
}

func TestGenerateRandomRosterPlan(t *testing.T) {
	plan := GenerateRandomRosterPlan(8, 6, "example.com")

	require.NoError(t, ValidateRosterPlan(plan, RosterLimits{MaxWeeks: 6, MaxPeople: 8, MaxJobs: 4}))
	for _, person := range plan.People {
		require.NotEmpty(t, person.Handle)
		require.Contains(t, person.Email, "@example.com")
	}
}

func TestFillRosterRandomly(t *testing.T) {
	plan := validPlan()
	r, err := plan.BuildRoster()
	require.NoError(t, err)

	people := []roster.Person{0, 1, 2, 3, 4, 5}
	placed := FillRosterRandomly(r, people)
	require.Positive(t, placed)

	// 随机填充只走检查过的放入路径，所以结果必须满足所有规则
	for _, slot := range r.Slots() {
		n, err := r.NumPeopleInSlot(slot)
		require.NoError(t, err)
		require.LessOrEqual(t, n, slot.Job.NumPeople)

		for _, person := range r.Assigned(slot) {
			require.True(t, r.Remove(person, slot))
			ok, err := r.Fits(slot, person)
			require.NoError(t, err)
			require.True(t, ok, "person %d in week %d job %d", person, slot.Week, slot.Job.ID)
			require.NoError(t, r.PlaceUnchecked(person, slot))
		}
	}
}
