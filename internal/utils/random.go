package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

var commonDutyNames = []string{
	"厨房", "走廊", "浴室", "垃圾分类", "阳台", "楼梯", "客厅", "洗衣房",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// HandleFromName 把中文姓名转换为拼音（如 "王伟" -> "wangwei"），非中文字符原样保留（转为小写）
func HandleFromName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		syllables := pinyin.LazyConvert(string(r), nil)
		if len(syllables) > 0 {
			b.WriteString(syllables[0])
			continue
		}
		if r == ' ' || r == '·' {
			continue
		}
		b.WriteString(strings.ToLower(string(r)))
	}
	return b.String()
}

// AssignHandles 为没有 handle 的人员生成 handle，重复时追加数字后缀
func AssignHandles(people []domain.RosterPerson) {
	used := make(map[string]int)
	for i := range people {
		if people[i].Handle == "" {
			people[i].Handle = HandleFromName(people[i].FullName)
		}

		handle := people[i].Handle
		if n := used[handle]; n > 0 {
			people[i].Handle = fmt.Sprintf("%s%d", handle, n+1)
		}
		used[handle]++
	}
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
var digits = "0123456789"

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// GenerateRandomRosterPlan 随机生成一份排班表，任务数量在 1~4 之间，周期在 1~3 之间
func GenerateRandomRosterPlan(numPeople int, numWeeks int, emailDomainName string) *domain.RosterPlan {
	plan := &domain.RosterPlan{
		Name:        "排班表" + GenerateRandomID(3, 3),
		Description: "排班表描述" + GenerateRandomID(20, 10),
		NumWeeks:    numWeeks,
	}

	duties := append([]string{}, commonDutyNames...)
	rand.Shuffle(len(duties), func(i, j int) {
		duties[i], duties[j] = duties[j], duties[i]
	})

	jobsNum := rand.Intn(4) + 1
	for i := 0; i < jobsNum; i++ {
		plan.Jobs = append(plan.Jobs, domain.RosterJob{
			ID:        roster.JobID(i),
			Name:      duties[i],
			NumPeople: rand.Intn(3) + 1,
			Period:    rand.Intn(3) + 1,
		})
	}

	for i := 0; i < numPeople; i++ {
		fullName := GenerateRandomChineseName()
		plan.People = append(plan.People, domain.RosterPerson{
			ID:       roster.Person(i),
			FullName: fullName,
		})
	}
	AssignHandles(plan.People)
	for i := range plan.People {
		plan.People[i].Email = plan.People[i].Handle + "@" + emailDomainName
	}

	return plan
}

// FillRosterRandomly 按扫描顺序依次填充时间段，每次从满足规则的人员中随机挑选工作量最少的几位之一。
// 没有满足规则的人员时跳过该席位，返回放入的人次
func FillRosterRandomly(r *roster.Roster, people []roster.Person) int {
	placed := 0
	for _, slot := range r.Slots() {
		for {
			open, err := r.IsSlotOpen(slot)
			if err != nil || !open {
				break
			}

			candidates, err := r.Candidates(slot, people)
			if err != nil || len(candidates) == 0 {
				break
			}

			// 候选人已按工作量排序，只在前几位中随机，保证大致公平
			top := min(3, len(candidates))
			person := candidates[rand.Intn(top)]
			if err := r.Place(person, slot); err != nil {
				break
			}
			placed++
		}
	}
	return placed
}
