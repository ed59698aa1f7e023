package crawlers

import "sync"

// VisitedSet 已访问(或已调度)URL集合
// URL按原样比较,不做规范化
type VisitedSet struct {
	mu   sync.RWMutex
	urls map[string]struct{}
}

// NewVisitedSet 创建空集合
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]struct{})}
}

// MarkVisited 标记URL, 首次标记返回true
func (v *VisitedSet) MarkVisited(urlStr string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.urls[urlStr]; ok {
		return false
	}
	v.urls[urlStr] = struct{}{}
	return true
}

// Len 已标记URL数量
func (v *VisitedSet) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.urls)
}
