package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

func (r *Repository) CreateRosterPlan(plan *domain.RosterPlan) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO roster_plans (name, description, num_weeks)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, plan.Name, plan.Description, plan.NumWeeks).Scan(&plan.ID, &plan.CreatedAt, &plan.Version); err != nil {
		return err
	}

	// position 用于保持任务目录的顺序，扫描顺序依赖于它
	for i, job := range plan.Jobs {
		query := `
			INSERT INTO roster_jobs (roster_id, job_id, name, num_people, period, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, query, plan.ID, job.ID, job.Name, job.NumPeople, job.Period, i); err != nil {
			return err
		}
	}

	for i, person := range plan.People {
		query := `
			INSERT INTO roster_people (roster_id, person_id, full_name, email, handle, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, query, plan.ID, person.ID, person.FullName, person.Email, person.Handle, i); err != nil {
			return err
		}
	}

	if err := insertAssignments(ctx, tx, plan.ID, plan.Assignments); err != nil {
		return err
	}

	return tx.Commit()
}

// GetAllRosterPlans 只返回排班表的基本信息，不包含任务、人员和分配
func (r *Repository) GetAllRosterPlans() ([]*domain.RosterPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, name, description, num_weeks, published_at, created_at, version
		FROM roster_plans
		ORDER BY id DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]*domain.RosterPlan, 0)
	for rows.Next() {
		plan := &domain.RosterPlan{}
		dst := []any{&plan.ID, &plan.Name, &plan.Description, &plan.NumWeeks, &plan.PublishedAt, &plan.CreatedAt, &plan.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

func (r *Repository) GetRosterPlanByID(id int64) (*domain.RosterPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	plan := &domain.RosterPlan{ID: id}

	query := `
		SELECT name, description, num_weeks, published_at, created_at, version
		FROM roster_plans WHERE id = $1
	`
	dst := []any{&plan.Name, &plan.Description, &plan.NumWeeks, &plan.PublishedAt, &plan.CreatedAt, &plan.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	jobs, err := r.getRosterJobs(ctx, id)
	if err != nil {
		return nil, err
	}
	plan.Jobs = jobs

	people, err := r.getRosterPeople(ctx, id)
	if err != nil {
		return nil, err
	}
	plan.People = people

	assignments, err := r.getRosterAssignments(ctx, id)
	if err != nil {
		return nil, err
	}
	plan.Assignments = assignments

	return plan, nil
}

func (r *Repository) getRosterJobs(ctx context.Context, rosterID int64) ([]domain.RosterJob, error) {
	query := `
		SELECT job_id, name, num_people, period
		FROM roster_jobs WHERE roster_id = $1
		ORDER BY position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, rosterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]domain.RosterJob, 0)
	for rows.Next() {
		job := domain.RosterJob{}
		if err := rows.Scan(&job.ID, &job.Name, &job.NumPeople, &job.Period); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func (r *Repository) getRosterPeople(ctx context.Context, rosterID int64) ([]domain.RosterPerson, error) {
	query := `
		SELECT person_id, full_name, email, handle
		FROM roster_people WHERE roster_id = $1
		ORDER BY position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, rosterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	people := make([]domain.RosterPerson, 0)
	for rows.Next() {
		person := domain.RosterPerson{}
		if err := rows.Scan(&person.ID, &person.FullName, &person.Email, &person.Handle); err != nil {
			return nil, err
		}
		people = append(people, person)
	}

	return people, rows.Err()
}

func (r *Repository) GetRosterAssignments(rosterID int64) ([]domain.RosterAssignment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return r.getRosterAssignments(ctx, rosterID)
}

func (r *Repository) getRosterAssignments(ctx context.Context, rosterID int64) ([]domain.RosterAssignment, error) {
	// 按扫描顺序（周、任务目录顺序、加入顺序）取出，连续的行属于同一个时间段
	query := `
		SELECT ra.week, ra.job_id, ra.person_id
		FROM roster_assignments ra
		JOIN roster_jobs rj ON rj.roster_id = ra.roster_id AND rj.job_id = ra.job_id
		WHERE ra.roster_id = $1
		ORDER BY ra.week, rj.position, ra.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, rosterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]domain.RosterAssignment, 0)
	for rows.Next() {
		var (
			week     int
			jobID    roster.JobID
			personID roster.Person
		)
		if err := rows.Scan(&week, &jobID, &personID); err != nil {
			return nil, err
		}

		n := len(assignments)
		if n > 0 && assignments[n-1].Week == week && assignments[n-1].JobID == jobID {
			assignments[n-1].PersonIDs = append(assignments[n-1].PersonIDs, personID)
			continue
		}
		assignments = append(assignments, domain.RosterAssignment{
			Week:      week,
			JobID:     jobID,
			PersonIDs: []roster.Person{personID},
		})
	}

	return assignments, rows.Err()
}

// ReplaceRosterAssignments 用新的快照整体替换排班表的分配情况
func (r *Repository) ReplaceRosterAssignments(rosterID int64, assignments []domain.RosterAssignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_assignments WHERE roster_id = $1`, rosterID); err != nil {
		return err
	}

	if err := insertAssignments(ctx, tx, rosterID, assignments); err != nil {
		return err
	}

	// 顺便更新版本号，方便客户端判断排班表是否有变化
	if _, err := tx.ExecContext(ctx, `UPDATE roster_plans SET version = version + 1 WHERE id = $1`, rosterID); err != nil {
		return err
	}

	return tx.Commit()
}

func insertAssignments(ctx context.Context, tx *sql.Tx, rosterID int64, assignments []domain.RosterAssignment) error {
	query := `
		INSERT INTO roster_assignments (roster_id, week, job_id, person_id, position)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, assignment := range assignments {
		for i, personID := range assignment.PersonIDs {
			if _, err := tx.ExecContext(ctx, query, rosterID, assignment.Week, assignment.JobID, personID, i); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Repository) MarkRosterPlanPublished(plan *domain.RosterPlan) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE roster_plans
		SET published_at = NOW(), version = version + 1
		WHERE id = $1
		RETURNING published_at, version
	`

	return r.dbpool.QueryRowContext(ctx, query, plan.ID).Scan(&plan.PublishedAt, &plan.Version)
}

func (r *Repository) DeleteRosterPlan(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	// roster_jobs、roster_people 和 roster_assignments 通过外键级联删除
	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM roster_plans WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
