package publish

import (
	"sync"
	"time"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/platform/id"
)

// Store 按会话保存进行中的向导（仅内存，进程重启即丢失）。
type Store struct {
	mu      sync.Mutex
	wizards map[string]*Wizard
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{wizards: make(map[string]*Wizard), now: time.Now}
}

// Create 为 owner 新建一个向导并返回副本。
func (s *Store) Create(owner string, n model.Notice) Wizard {
	w := NewWizard(n)
	w.ID = id.New("draft")
	w.Owner = owner
	w.CreatedAt = s.now()
	w.UpdatedAt = w.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizards[w.ID] = w
	return copyWizard(w)
}

// Get 返回副本；向导不属于 owner 时视为不存在。
func (s *Store) Get(owner, wizardID string) (Wizard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wizards[wizardID]
	if !ok || w == nil || w.Owner != owner {
		return Wizard{}, false
	}
	return copyWizard(w), true
}

// Put 写回修改后的向导。
func (s *Store) Put(w Wizard) {
	w.UpdatedAt = s.now()
	cpy := copyWizard(&w)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizards[w.ID] = &cpy
}

// Delete 在提交成功或放弃后移除向导。
func (s *Store) Delete(wizardID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.wizards, wizardID)
}

// DropOwner 删除 owner 的全部草稿（会话失效时调用），返回删除数量。
func (s *Store) DropOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, w := range s.wizards {
		if w != nil && w.Owner == owner {
			delete(s.wizards, k)
			n++
		}
	}
	return n
}

// Purge 清理超过 maxAge 未更新的草稿，返回清理数量。
func (s *Store) Purge(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, w := range s.wizards {
		if w == nil || w.UpdatedAt.Before(cutoff) {
			delete(s.wizards, k)
			n++
		}
	}
	return n
}

// Len 返回当前草稿数量。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.wizards)
}

// copyWizard 深拷贝 map/slice，避免解锁后并发请求共享底层存储。
// 附件字节本身不会被原地修改，可以共享。
func copyWizard(w *Wizard) Wizard {
	cpy := *w
	cpy.Draft.Data = w.Draft.Data.Clone()
	cpy.Draft.Pending = make(map[string]string, len(w.Draft.Pending))
	for k, v := range w.Draft.Pending {
		cpy.Draft.Pending[k] = v
	}
	if len(w.Draft.Files) > 0 {
		cpy.Draft.Files = make([]leadsapi.Attachment, len(w.Draft.Files))
		copy(cpy.Draft.Files, w.Draft.Files)
	}
	if w.Draft.Mugshot != nil {
		m := *w.Draft.Mugshot
		cpy.Draft.Mugshot = &m
	}
	return cpy
}
