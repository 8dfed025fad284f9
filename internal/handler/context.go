package handler

type ContextKey string

var (
	RoleCtxKey    ContextKey = "role"
	SubCtxKey     ContextKey = "sub"
	MyInfoCtx     ContextKey = "myInfo"
	RosterPlanCtx ContextKey = "rosterPlan"
	EditorCtx     ContextKey = "editor"
	SlotCtx       ContextKey = "slot"
)
