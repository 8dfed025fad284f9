package seed

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

type fakeRepo struct {
	plans []*domain.RosterPlan
	err   error
}

func (f *fakeRepo) CreateRosterPlan(plan *domain.RosterPlan) error {
	if f.err != nil {
		return f.err
	}
	plan.ID = int64(len(f.plans) + 1)
	f.plans = append(f.plans, plan)
	return nil
}

var limits = utils.RosterLimits{MaxWeeks: 52, MaxPeople: 100, MaxJobs: 10}

const kitchenHallway = `
name: 宿舍值日
weeks: 3
jobs:
  - {id: 0, name: 厨房, people: 2, period: 1}
  - {id: 1, name: 走廊, people: 1, period: 2}
people:
  - {id: 0, name: Binky}
  - {id: 1, name: Steve}
  - {id: 2, name: 王伟}
assignments:
  - {week: 1, job: 0, people: [2]}
append: [0, 1, 2, 0]
`

func TestParseRosterFile(t *testing.T) {
	t.Run("parses a definition", func(t *testing.T) {
		plan, appendOrder, err := ParseRosterFile(strings.NewReader(kitchenHallway))
		require.NoError(t, err)
		require.Equal(t, "宿舍值日", plan.Name)
		require.Equal(t, 3, plan.NumWeeks)
		require.Equal(t, domain.RosterJob{ID: 1, Name: "走廊", NumPeople: 1, Period: 2}, plan.Jobs[1])
		require.Equal(t, "Steve", plan.People[1].FullName)
		require.Equal(t, []domain.RosterAssignment{{Week: 1, JobID: 0, PersonIDs: []roster.Person{2}}}, plan.Assignments)
		require.Equal(t, []roster.Person{0, 1, 2, 0}, appendOrder)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, _, err := ParseRosterFile(strings.NewReader("name: x\nweeks: 1\nslots: []\n"))
		require.Error(t, err)
	})

	t.Run("rejects an empty file", func(t *testing.T) {
		_, _, err := ParseRosterFile(strings.NewReader(""))
		require.Error(t, err)
	})
}

func TestBuildRosterPlan(t *testing.T) {
	plan, appendOrder, err := ParseRosterFile(strings.NewReader(kitchenHallway))
	require.NoError(t, err)

	require.NoError(t, BuildRosterPlan(plan, appendOrder, limits))

	// 第 1 周厨房已有王伟，追加按扫描顺序填空缺
	require.Equal(t, []domain.RosterAssignment{
		{Week: 0, JobID: 0, PersonIDs: []roster.Person{0, 1}},
		{Week: 0, JobID: 1, PersonIDs: []roster.Person{2}},
		{Week: 1, JobID: 0, PersonIDs: []roster.Person{2, 0}},
	}, plan.Assignments)
	require.Equal(t, "binky", plan.People[0].Handle)
	require.Equal(t, "wangwei", plan.People[2].Handle)

	t.Run("unknown person in append", func(t *testing.T) {
		plan, _, err := ParseRosterFile(strings.NewReader(kitchenHallway))
		require.NoError(t, err)
		require.Error(t, BuildRosterPlan(plan, []roster.Person{9}, limits))
	})

	t.Run("append past the end", func(t *testing.T) {
		plan, _, err := ParseRosterFile(strings.NewReader(kitchenHallway))
		require.NoError(t, err)
		order := make([]roster.Person, 0)
		for i := 0; i < 10; i++ {
			order = append(order, roster.Person(i%3))
		}
		err = BuildRosterPlan(plan, order, limits)
		require.True(t, errors.Is(err, roster.ErrRosterFull) || errors.Is(err, roster.ErrAlreadyAssigned), err)
	})
}

func TestImportRosterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(kitchenHallway), 0o600))

	repo := &fakeRepo{}
	plan, err := ImportRosterFile(repo, path, limits)
	require.NoError(t, err)
	require.Equal(t, int64(1), plan.ID)
	require.Len(t, repo.plans, 1)

	repo.err = errors.New("db down")
	_, err = ImportRosterFile(repo, path, limits)
	require.ErrorIs(t, err, repo.err)

	_, err = ImportRosterFile(repo, filepath.Join(t.TempDir(), "missing.yaml"), limits)
	require.Error(t, err)
}

func TestDemoRosterFile(t *testing.T) {
	plan, err := ImportRosterFile(&fakeRepo{}, "data/demo.yaml", limits)
	require.NoError(t, err)
	require.Equal(t, 10, plan.NumWeeks)
	require.NotEmpty(t, plan.Assignments)
}

func TestSeedRandomRosters(t *testing.T) {
	repo := &fakeRepo{}
	require.Equal(t, 3, SeedRandomRosters(repo, 3, 6, 8, "example.com"))
	require.Len(t, repo.plans, 3)

	for _, plan := range repo.plans {
		_, err := plan.BuildRoster()
		require.NoError(t, err)
	}

	require.Zero(t, SeedRandomRosters(&fakeRepo{err: errors.New("db down")}, 2, 6, 8, "example.com"))
}
