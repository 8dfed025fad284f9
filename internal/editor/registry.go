package editor

import (
	"context"
	"sync"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

// Loader 从存储中读取一份排班表
type Loader func(rosterID int64) (*roster.Roster, error)

// entry 保证同一份排班表只加载一次，加载期间不占用整个 Registry 的锁
type entry struct {
	once   sync.Once
	editor *Editor
	err    error
}

// Registry 为每份排班表维护唯一的 Editor，保证同一份排班表只有一个写入者
type Registry struct {
	mu      sync.Mutex
	entries map[int64]*entry
	history History
	store   Store
	load    Loader
}

func NewRegistry(history History, store Store, load Loader) *Registry {
	return &Registry{
		entries: make(map[int64]*entry),
		history: history,
		store:   store,
		load:    load,
	}
}

// Get 返回排班表对应的 Editor，第一次访问时从存储中加载。
// 同一份排班表的并发请求会等待同一次加载，不同排班表之间互不阻塞
func (r *Registry) Get(rosterID int64) (*Editor, error) {
	r.mu.Lock()
	en, ok := r.entries[rosterID]
	if !ok {
		en = &entry{}
		r.entries[rosterID] = en
	}
	r.mu.Unlock()

	en.once.Do(func() {
		ro, err := r.load(rosterID)
		if err != nil {
			en.err = err
			return
		}
		en.editor = New(rosterID, ro, r.history, r.store)
	})

	if en.err != nil {
		// 加载失败不缓存，下次访问重新加载
		r.mu.Lock()
		if r.entries[rosterID] == en {
			delete(r.entries, rosterID)
		}
		r.mu.Unlock()
		return nil, en.err
	}

	return en.editor, nil
}

// Evict 丢弃缓存的 Editor 以及它的撤销记录，排班表被删除时调用
func (r *Registry) Evict(ctx context.Context, rosterID int64) error {
	r.mu.Lock()
	delete(r.entries, rosterID)
	r.mu.Unlock()

	return r.history.Clear(ctx, rosterID)
}
