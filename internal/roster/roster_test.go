package roster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	kitchen = Job{ID: 0, NumPeople: 1, Period: 1}
	hallway = Job{ID: 1, NumPeople: 1, Period: 1}
)

func newRoster(t *testing.T, jobs []Job, numWeeks int) *Roster {
	t.Helper()
	r, err := New(jobs, numWeeks)
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	t.Run("rejects invalid catalogue", func(t *testing.T) {
		_, err := New([]Job{{ID: 0, NumPeople: 0, Period: 1}}, 3)
		require.ErrorIs(t, err, ErrInvalidJob)

		_, err = New([]Job{{ID: 0, NumPeople: 1, Period: 0}}, 3)
		require.ErrorIs(t, err, ErrInvalidJob)

		_, err = New([]Job{kitchen, {ID: 0, NumPeople: 2, Period: 2}}, 3)
		require.ErrorIs(t, err, ErrDuplicateJob)

		_, err = New([]Job{kitchen}, -1)
		require.ErrorIs(t, err, ErrInvalidHorizon)
	})

	t.Run("starts empty", func(t *testing.T) {
		r := newRoster(t, []Job{kitchen, hallway}, 2)

		require.Equal(t, []Job{kitchen, hallway}, r.Jobs())
		require.Equal(t, 2, r.NumWeeks())
		require.Empty(t, r.Assignments())
		require.Empty(t, r.Workload())
	})

	t.Run("catalogue is copied", func(t *testing.T) {
		jobs := []Job{kitchen}
		r := newRoster(t, jobs, 1)
		jobs[0] = hallway

		require.Equal(t, []Job{kitchen}, r.Jobs())
	})
}

func TestIsValidSlot(t *testing.T) {
	biweekly := Job{ID: 2, NumPeople: 1, Period: 2}
	r := newRoster(t, []Job{kitchen, biweekly}, 4)

	t.Run("week must be a multiple of the period", func(t *testing.T) {
		for week := 0; week < 4; week++ {
			require.True(t, r.IsValidSlot(Slot{Week: week, Job: kitchen}))
			require.Equal(t, week%2 == 0, r.IsValidSlot(Slot{Week: week, Job: biweekly}), "week %d", week)
		}
	})

	t.Run("job must be in the catalogue", func(t *testing.T) {
		require.False(t, r.IsValidSlot(Slot{Week: 0, Job: hallway}))
		// 同一个 ID 但属性不同也不算目录中的任务
		require.False(t, r.IsValidSlot(Slot{Week: 0, Job: Job{ID: 0, NumPeople: 3, Period: 1}}))
	})

	t.Run("week must be inside the horizon", func(t *testing.T) {
		require.False(t, r.IsValidSlot(Slot{Week: 4, Job: kitchen}))
		require.False(t, r.IsValidSlot(Slot{Week: -1, Job: kitchen}))
	})

	t.Run("invalid weeks never contribute to the week", func(t *testing.T) {
		require.NoError(t, r.PlaceUnchecked(7, Slot{Week: 0, Job: biweekly}))
		require.NoError(t, r.PlaceUnchecked(8, Slot{Week: 1, Job: kitchen}))

		require.Equal(t, []Person{8}, r.AssignedInWeek(1))
		require.Equal(t, []Person{7}, r.AssignedInWeek(0))
	})
}

func TestSlotCapacity(t *testing.T) {
	job := Job{ID: 0, NumPeople: 2, Period: 1}
	r := newRoster(t, []Job{job}, 1)
	slot := Slot{Week: 0, Job: job}

	require.NoError(t, r.Place(1, slot))
	open, err := r.IsSlotOpen(slot)
	require.NoError(t, err)
	require.True(t, open)

	require.NoError(t, r.Place(2, slot))
	open, err = r.IsSlotOpen(slot)
	require.NoError(t, err)
	require.False(t, open)

	n, err := r.NumPeopleInSlot(slot)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.ErrorIs(t, r.Place(3, slot), ErrSlotFull)
	require.ErrorIs(t, r.PlaceUnchecked(3, slot), ErrSlotFull)
	require.Equal(t, []Person{1, 2}, r.Assigned(slot))
}

func TestInvalidSlotContract(t *testing.T) {
	job := Job{ID: 0, NumPeople: 1, Period: 2}
	r := newRoster(t, []Job{job}, 4)
	invalid := Slot{Week: 1, Job: job}

	_, err := r.NumPeopleInSlot(invalid)
	require.ErrorIs(t, err, ErrSlotInvalid)

	_, err = r.IsSlotOpen(invalid)
	require.ErrorIs(t, err, ErrSlotInvalid)

	_, err = r.Fits(invalid, 1)
	require.ErrorIs(t, err, ErrSlotInvalid)

	require.ErrorIs(t, r.Place(1, invalid), ErrSlotInvalid)
	require.ErrorIs(t, r.PlaceUnchecked(1, invalid), ErrSlotInvalid)

	// 查询分配情况不会报错
	require.Empty(t, r.Assigned(invalid))
	require.Empty(t, r.Assigned(Slot{Week: 100, Job: job}))
	require.Empty(t, r.Assigned(Slot{Week: -2, Job: job}))
}

func TestNeighbours(t *testing.T) {
	job := Job{ID: 0, NumPeople: 1, Period: 3}
	r := newRoster(t, []Job{job}, 7)

	_, ok := r.Previous(Slot{Week: 0, Job: job})
	require.False(t, ok)

	previous, ok := r.Previous(Slot{Week: 3, Job: job})
	require.True(t, ok)
	require.Equal(t, Slot{Week: 0, Job: job}, previous)

	next, ok := r.Next(Slot{Week: 3, Job: job})
	require.True(t, ok)
	require.Equal(t, Slot{Week: 6, Job: job}, next)

	_, ok = r.Next(Slot{Week: 6, Job: job})
	require.False(t, ok)
}

func TestAppend(t *testing.T) {
	t.Run("fills slots in week then catalogue order", func(t *testing.T) {
		r := newRoster(t, []Job{kitchen, hallway}, 2)

		got := make([]Slot, 0, 3)
		for person := Person(1); person <= 3; person++ {
			slot, err := r.Append(person)
			require.NoError(t, err)
			got = append(got, slot)
		}

		require.Equal(t, []Slot{
			{Week: 0, Job: kitchen},
			{Week: 0, Job: hallway},
			{Week: 1, Job: kitchen},
		}, got)
	})

	t.Run("skips weeks where a job does not occur", func(t *testing.T) {
		biweekly := Job{ID: 5, NumPeople: 1, Period: 2}
		r := newRoster(t, []Job{biweekly, kitchen}, 3)

		order := []Slot{
			{Week: 0, Job: biweekly},
			{Week: 0, Job: kitchen},
			{Week: 1, Job: kitchen},
			{Week: 2, Job: biweekly},
			{Week: 2, Job: kitchen},
		}
		for i, want := range order {
			slot, err := r.Append(Person(i))
			require.NoError(t, err)
			require.Equal(t, want, slot)
		}

		_, err := r.Append(99)
		require.ErrorIs(t, err, ErrRosterFull)
	})

	t.Run("does not check the rules", func(t *testing.T) {
		r := newRoster(t, []Job{kitchen, hallway}, 1)

		_, err := r.Append(1)
		require.NoError(t, err)
		_, err = r.Append(1)
		require.NoError(t, err)

		require.Equal(t, []Person{1, 1}, r.AssignedInWeek(0))
	})

	t.Run("never duplicates a person inside one slot", func(t *testing.T) {
		job := Job{ID: 0, NumPeople: 2, Period: 1}
		r := newRoster(t, []Job{job}, 1)

		_, err := r.Append(1)
		require.NoError(t, err)
		_, err = r.Append(1)
		require.ErrorIs(t, err, ErrAlreadyAssigned)
	})

	t.Run("empty horizon is full", func(t *testing.T) {
		r := newRoster(t, []Job{kitchen}, 0)

		_, ok := r.FirstOpenSlot()
		require.False(t, ok)
		_, err := r.Append(1)
		require.ErrorIs(t, err, ErrRosterFull)
	})
}

func TestRemove(t *testing.T) {
	job := Job{ID: 0, NumPeople: 3, Period: 1}
	slot := Slot{Week: 0, Job: job}

	t.Run("removing an absent person is a no-op", func(t *testing.T) {
		r := newRoster(t, []Job{job}, 1)
		require.NoError(t, r.PlaceUnchecked(1, slot))
		before := r.Assignments()

		require.False(t, r.Remove(2, slot))
		require.False(t, r.Remove(1, Slot{Week: 0, Job: hallway}))
		require.False(t, r.Remove(1, Slot{Week: 9, Job: job}))

		require.Equal(t, before, r.Assignments())
	})

	t.Run("place then remove restores the slot", func(t *testing.T) {
		r := newRoster(t, []Job{job}, 1)
		require.NoError(t, r.PlaceUnchecked(1, slot))
		require.NoError(t, r.PlaceUnchecked(3, slot))
		before := r.Assigned(slot)

		require.NoError(t, r.Place(2, slot))
		require.True(t, r.Remove(2, slot))

		require.Equal(t, before, r.Assigned(slot))
	})

	t.Run("keeps the order of the remaining people", func(t *testing.T) {
		r := newRoster(t, []Job{job}, 1)
		for _, person := range []Person{4, 5, 6} {
			require.NoError(t, r.PlaceUnchecked(person, slot))
		}

		require.True(t, r.Remove(5, slot))
		require.Equal(t, []Person{4, 6}, r.Assigned(slot))

		require.True(t, r.Remove(4, slot))
		require.True(t, r.Remove(6, slot))
		require.Empty(t, r.Assignments())
	})

	t.Run("insert at restores the original position", func(t *testing.T) {
		r := newRoster(t, []Job{job}, 1)
		for _, person := range []Person{4, 5, 6} {
			require.NoError(t, r.PlaceUnchecked(person, slot))
		}

		index := r.IndexOf(5, slot)
		require.Equal(t, 1, index)
		require.True(t, r.Remove(5, slot))
		require.Equal(t, -1, r.IndexOf(5, slot))

		require.NoError(t, r.InsertAt(5, slot, index))
		require.Equal(t, []Person{4, 5, 6}, r.Assigned(slot))
	})
}

func TestCapacityNeverExceeded(t *testing.T) {
	jobs := []Job{
		{ID: 0, NumPeople: 2, Period: 1},
		{ID: 1, NumPeople: 1, Period: 2},
		{ID: 2, NumPeople: 3, Period: 3},
	}
	r := newRoster(t, jobs, 6)

	// 混合各种操作，任何时候都不应超过容量
	for i := 0; i < 40; i++ {
		person := Person(i % 7)
		switch i % 4 {
		case 0, 1:
			_, err := r.Append(person)
			if err != nil {
				require.True(t, errors.Is(err, ErrRosterFull) || errors.Is(err, ErrAlreadyAssigned))
			}
		case 2:
			for _, slot := range r.Slots() {
				_ = r.Place(person, slot)
			}
		case 3:
			for _, slot := range r.Slots() {
				r.Remove(Person((i+1)%7), slot)
			}
		}

		for _, slot := range r.Slots() {
			n, err := r.NumPeopleInSlot(slot)
			require.NoError(t, err)
			require.LessOrEqual(t, n, slot.Job.NumPeople)
		}
	}
}

func TestAssignmentsAndClone(t *testing.T) {
	r := newRoster(t, []Job{kitchen, hallway}, 2)
	require.NoError(t, r.PlaceUnchecked(3, Slot{Week: 1, Job: hallway}))
	require.NoError(t, r.PlaceUnchecked(1, Slot{Week: 0, Job: kitchen}))

	require.Equal(t, []Assignment{
		{Slot: Slot{Week: 0, Job: kitchen}, People: []Person{1}},
		{Slot: Slot{Week: 1, Job: hallway}, People: []Person{3}},
	}, r.Assignments())

	c := r.Clone()
	require.True(t, c.Remove(1, Slot{Week: 0, Job: kitchen}))
	require.Equal(t, []Person{1}, r.Assigned(Slot{Week: 0, Job: kitchen}))

	require.Equal(t, map[Person]int{1: 1, 3: 1}, r.Workload())

	job, ok := r.Job(1)
	require.True(t, ok)
	require.Equal(t, hallway, job)
	_, ok = r.Job(42)
	require.False(t, ok)
}

func TestAssignedReturnsCopy(t *testing.T) {
	r := newRoster(t, []Job{kitchen}, 1)
	slot := Slot{Week: 0, Job: kitchen}
	require.NoError(t, r.PlaceUnchecked(1, slot))

	people := r.Assigned(slot)
	people[0] = 9

	require.Equal(t, []Person{1}, r.Assigned(slot))
}
