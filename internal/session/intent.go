package session

import (
	"sort"

	"github.com/MorseWayne/shoe_catalog/internal/domain"
)

// 会话操作
const (
	OpReload = "reload"
	OpFilter = "filter"
	OpNext   = "next"
	OpPrev   = "prev"
)

// Intent 一次请求对会话状态的操作，签发令牌时写入会话，提交时按令牌顺序重放
type Intent struct {
	Op        string                 `json:"op"`
	Selection domain.FilterSelection `json:"selection,omitempty"`
}

// Apply 在 st 上执行操作
func (in Intent) Apply(st State) State {
	switch in.Op {
	case OpFilter:
		st.Selection = in.Selection
		st.Page = st.Page.Reset()
	case OpNext:
		st.Page = st.Page.Next()
	case OpPrev:
		st.Page = st.Page.Prev()
	}
	return st
}

// Replay 从已提交状态出发，按令牌顺序重放不晚于 token 的未提交操作
func (s *Snapshot) Replay(token uint64) State {
	tokens := make([]uint64, 0, len(s.Pending))
	for t := range s.Pending {
		if t > s.Committed && t <= token {
			tokens = append(tokens, t)
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })

	st := s.State
	for _, t := range tokens {
		st = s.Pending[t].Apply(st)
	}
	return st
}
