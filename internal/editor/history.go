package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

var (
	ErrNothingToUndo = errors.New("没有可以撤销的操作")
	ErrUndoConflict  = errors.New("排班表已被修改，无法撤销")
)

type OperationKind string

const (
	OperationPlace  OperationKind = "place"
	OperationRemove OperationKind = "remove"
)

// Operation 记录一次成功的修改，Index 是人员在时间段中的位置，撤销删除时用于放回原位
type Operation struct {
	Kind   OperationKind `json:"kind"`
	Slot   roster.Slot   `json:"slot"`
	Person roster.Person `json:"person"`
	Index  int           `json:"index"`
}

// History 保存每份排班表的撤销记录
type History interface {
	Push(ctx context.Context, rosterID int64, op Operation) error
	// Pop 取出最近一次操作，没有记录时返回 ErrNothingToUndo
	Pop(ctx context.Context, rosterID int64) (Operation, error)
	Clear(ctx context.Context, rosterID int64) error
}

// MemoryHistory 把撤销记录保存在内存中，只适合单进程或测试使用
type MemoryHistory struct {
	mu    sync.Mutex
	depth int
	ops   map[int64][]Operation
}

func NewMemoryHistory(depth int) *MemoryHistory {
	return &MemoryHistory{
		depth: depth,
		ops:   make(map[int64][]Operation),
	}
}

func (h *MemoryHistory) Push(_ context.Context, rosterID int64, op Operation) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ops := append(h.ops[rosterID], op)
	if h.depth > 0 && len(ops) > h.depth {
		ops = ops[len(ops)-h.depth:]
	}
	h.ops[rosterID] = ops
	return nil
}

func (h *MemoryHistory) Pop(_ context.Context, rosterID int64) (Operation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ops := h.ops[rosterID]
	if len(ops) == 0 {
		return Operation{}, ErrNothingToUndo
	}
	op := ops[len(ops)-1]
	h.ops[rosterID] = ops[:len(ops)-1]
	return op, nil
}

func (h *MemoryHistory) Clear(_ context.Context, rosterID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.ops, rosterID)
	return nil
}
