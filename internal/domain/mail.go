package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const MailTypeRosterPublished = "roster_published"

type RosterDuty struct {
	Week    int    `json:"week"` // 从 1 开始，方便阅读
	JobName string `json:"jobName"`
}

type RosterPublishedMailData struct {
	FullName   string       `json:"fullName"`
	RosterName string       `json:"rosterName"`
	Duties     []RosterDuty `json:"duties"`
}
