// Package editor 为单份排班表提供串行化的修改入口：每次修改都会写入存储并记录撤销历史。
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

// Store 保存排班表的分配情况
type Store interface {
	ReplaceRosterAssignments(rosterID int64, assignments []domain.RosterAssignment) error
}

// Editor 持有一份排班表。roster 包本身不做同步，所有读写都必须经过这里的锁
type Editor struct {
	mu      sync.Mutex
	id      int64
	roster  *roster.Roster
	history History
	store   Store
}

func New(id int64, r *roster.Roster, history History, store Store) *Editor {
	return &Editor{
		id:      id,
		roster:  r,
		history: history,
		store:   store,
	}
}

func (e *Editor) ID() int64 {
	return e.id
}

// Read 在持锁的情况下执行只读查询，fn 中不要修改排班表
func (e *Editor) Read(fn func(r *roster.Roster)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn(e.roster)
}

// Place 把人员放入指定时间段。force 为 false 时会先检查排班规则
func (e *Editor) Place(ctx context.Context, person roster.Person, slot roster.Slot, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if force {
		err = e.roster.PlaceUnchecked(person, slot)
	} else {
		err = e.roster.Place(person, slot)
	}
	if err != nil {
		return err
	}

	op := Operation{Kind: OperationPlace, Slot: slot, Person: person, Index: e.roster.IndexOf(person, slot)}
	return e.commit(ctx, op)
}

// Append 把人员放进第一个未满的时间段，不检查排班规则
func (e *Editor) Append(ctx context.Context, person roster.Person) (roster.Slot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slot, err := e.roster.Append(person)
	if err != nil {
		return roster.Slot{}, err
	}

	op := Operation{Kind: OperationPlace, Slot: slot, Person: person, Index: e.roster.IndexOf(person, slot)}
	if err := e.commit(ctx, op); err != nil {
		return roster.Slot{}, err
	}
	return slot, nil
}

// Remove 把人员从时间段中移除，人员不在其中时返回 false 且不记录任何历史
func (e *Editor) Remove(ctx context.Context, person roster.Person, slot roster.Slot) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	index := e.roster.IndexOf(person, slot)
	if !e.roster.Remove(person, slot) {
		return false, nil
	}

	op := Operation{Kind: OperationRemove, Slot: slot, Person: person, Index: index}
	if err := e.commit(ctx, op); err != nil {
		return false, err
	}
	return true, nil
}

// Undo 撤销最近一次修改并返回被撤销的操作
func (e *Editor) Undo(ctx context.Context) (Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	op, err := e.history.Pop(ctx, e.id)
	if err != nil {
		return Operation{}, err
	}

	if err := e.revert(op); err != nil {
		return Operation{}, err
	}

	if err := e.store.ReplaceRosterAssignments(e.id, domain.AssignmentsFromRoster(e.roster)); err != nil {
		// 存储失败时恢复内存中的状态，并把记录放回去
		_ = e.apply(op)
		if pushErr := e.history.Push(ctx, e.id, op); pushErr != nil {
			slog.Warn("无法恢复撤销记录", "rosterID", e.id, "error", pushErr)
		}
		return Operation{}, err
	}

	return op, nil
}

// ClearHistory 清空撤销记录
func (e *Editor) ClearHistory(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.history.Clear(ctx, e.id)
}

// commit 保存修改后的状态并记录历史；保存失败时撤回内存中的修改
func (e *Editor) commit(ctx context.Context, op Operation) error {
	if err := e.store.ReplaceRosterAssignments(e.id, domain.AssignmentsFromRoster(e.roster)); err != nil {
		_ = e.revert(op)
		return err
	}

	// 修改已经落盘，撤销记录丢失只影响撤销功能
	if err := e.history.Push(ctx, e.id, op); err != nil {
		slog.Warn("无法记录撤销历史", "rosterID", e.id, "op", op.Kind, "error", err)
	}
	return nil
}

func (e *Editor) apply(op Operation) error {
	switch op.Kind {
	case OperationPlace:
		return e.roster.InsertAt(op.Person, op.Slot, op.Index)
	case OperationRemove:
		if !e.roster.Remove(op.Person, op.Slot) {
			return ErrUndoConflict
		}
		return nil
	default:
		return fmt.Errorf("未知的操作类型 %q", op.Kind)
	}
}

func (e *Editor) revert(op Operation) error {
	switch op.Kind {
	case OperationPlace:
		if !e.roster.Remove(op.Person, op.Slot) {
			return ErrUndoConflict
		}
		return nil
	case OperationRemove:
		if err := e.roster.InsertAt(op.Person, op.Slot, op.Index); err != nil {
			return fmt.Errorf("%w: %w", ErrUndoConflict, err)
		}
		return nil
	default:
		return fmt.Errorf("未知的操作类型 %q", op.Kind)
	}
}
