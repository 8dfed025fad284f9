package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
	"gopkg.in/yaml.v3"
)

// RosterCreator 保存新建的排班表
type RosterCreator interface {
	CreateRosterPlan(plan *domain.RosterPlan) error
}

// RosterFile 是 YAML 排班表定义的格式
type RosterFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Weeks       int    `yaml:"weeks"`
	Jobs        []struct {
		ID     roster.JobID `yaml:"id"`
		Name   string       `yaml:"name"`
		People int          `yaml:"people"`
		Period int          `yaml:"period"`
	} `yaml:"jobs"`
	People []struct {
		ID     roster.Person `yaml:"id"`
		Name   string        `yaml:"name"`
		Email  string        `yaml:"email"`
		Handle string        `yaml:"handle"`
	} `yaml:"people"`
	Assignments []struct {
		Week   int             `yaml:"week"`
		Job    roster.JobID    `yaml:"job"`
		People []roster.Person `yaml:"people"`
	} `yaml:"assignments"`
	// Append 中的人员会按顺序依次放进第一个未满的时间段
	Append []roster.Person `yaml:"append"`
}

// ParseRosterFile 解析 YAML 定义，返回排班表以及需要追加的人员
func ParseRosterFile(r io.Reader) (*domain.RosterPlan, []roster.Person, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file RosterFile
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("排班表定义为空")
		}
		return nil, nil, fmt.Errorf("解析排班表定义失败: %w", err)
	}

	plan := &domain.RosterPlan{
		Name:        file.Name,
		Description: file.Description,
		NumWeeks:    file.Weeks,
	}
	for _, job := range file.Jobs {
		plan.Jobs = append(plan.Jobs, domain.RosterJob{ID: job.ID, Name: job.Name, NumPeople: job.People, Period: job.Period})
	}
	for _, person := range file.People {
		plan.People = append(plan.People, domain.RosterPerson{ID: person.ID, FullName: person.Name, Email: person.Email, Handle: person.Handle})
	}
	for _, assignment := range file.Assignments {
		plan.Assignments = append(plan.Assignments, domain.RosterAssignment{Week: assignment.Week, JobID: assignment.Job, PersonIDs: assignment.People})
	}

	return plan, file.Append, nil
}

// BuildRosterPlan 校验排班表定义，恢复已有分配并依次追加人员，最终的分配写回 plan
func BuildRosterPlan(plan *domain.RosterPlan, appendOrder []roster.Person, limits utils.RosterLimits) error {
	utils.AssignHandles(plan.People)

	if err := utils.ValidateRosterPlan(plan, limits); err != nil {
		return err
	}

	r, err := plan.BuildRoster()
	if err != nil {
		return err
	}

	for _, person := range appendOrder {
		if plan.FindPerson(person) == nil {
			return fmt.Errorf("追加的人员 %d 不存在", person)
		}
		if _, err := r.Append(person); err != nil {
			return fmt.Errorf("追加人员 %d 失败: %w", person, err)
		}
	}

	plan.Assignments = domain.AssignmentsFromRoster(r)
	return nil
}

func ImportRosterFile(repo RosterCreator, path string, limits utils.RosterLimits) (*domain.RosterPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	plan, appendOrder, err := ParseRosterFile(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if err := BuildRosterPlan(plan, appendOrder, limits); err != nil {
		return nil, err
	}

	if err := repo.CreateRosterPlan(plan); err != nil {
		return nil, err
	}

	slog.Info("导入排班表完成", "id", plan.ID, "name", plan.Name, "assignments", len(plan.Assignments))
	return plan, nil
}

// SeedRandomRosters 生成 n 份随机排班表，并用满足规则的人员尽量填满
func SeedRandomRosters(repo RosterCreator, n int, numPeople int, numWeeks int, emailDomainName string) int {
	cnt := 0
	for i := 0; i < n; i++ {
		plan := utils.GenerateRandomRosterPlan(numPeople, numWeeks, emailDomainName)

		r, err := plan.BuildRoster()
		if err != nil {
			slog.Error("无法构造排班表", "error", err)
			continue
		}
		placed := utils.FillRosterRandomly(r, plan.PersonIDs())
		plan.Assignments = domain.AssignmentsFromRoster(r)

		if err := repo.CreateRosterPlan(plan); err != nil {
			slog.Error("无法插入排班表", "error", err)
			continue
		}

		slog.Info("插入排班表成功", "id", plan.ID, "placed", placed)
		cnt++
	}
	return cnt
}
