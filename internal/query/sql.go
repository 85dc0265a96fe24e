package query

import (
	"fmt"
	"strings"
)

// likeEscape LIKE 模式使用的转义字符（MySQL 与 SQLite 通用）
const likeEscape = "!"

// Columns 字段名到列名的白名单映射
type Columns map[string]string

// ToSQL 将谓词渲染为 WHERE 子句（不含 WHERE 关键字）和参数。
// HasToken 先展开为四路 OR 再渲染。
func ToSQL(p Predicate, cols Columns) (string, []any, error) {
	var args []any
	clause, err := renderSQL(p.Expand(), cols, &args)
	if err != nil {
		return "", nil, err
	}
	return clause, args, nil
}

func renderSQL(p Predicate, cols Columns, args *[]any) (string, error) {
	switch p.Op {
	case OpAnd, OpOr:
		if len(p.Args) == 0 {
			if p.Op == OpAnd {
				return "1 = 1", nil
			}
			return "1 = 0", nil
		}
		parts := make([]string, 0, len(p.Args))
		for _, a := range p.Args {
			s, err := renderSQL(a, cols, args)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		sep := " AND "
		if p.Op == OpOr {
			sep = " OR "
		}
		return "(" + strings.Join(parts, sep) + ")", nil
	}

	col, ok := cols[p.Field]
	if !ok {
		return "", fmt.Errorf("unknown field %q", p.Field)
	}

	switch p.Op {
	case OpContains:
		*args = append(*args, "%"+escapeLike(fmt.Sprint(p.Value))+"%")
		return fmt.Sprintf("%s LIKE ? ESCAPE '%s'", col, likeEscape), nil
	case OpStartsWith:
		*args = append(*args, escapeLike(fmt.Sprint(p.Value))+"%")
		return fmt.Sprintf("%s LIKE ? ESCAPE '%s'", col, likeEscape), nil
	case OpEndsWith:
		*args = append(*args, "%"+escapeLike(fmt.Sprint(p.Value)))
		return fmt.Sprintf("%s LIKE ? ESCAPE '%s'", col, likeEscape), nil
	case OpEq:
		*args = append(*args, p.Value)
		return col + " = ?", nil
	case OpGe:
		*args = append(*args, p.Value)
		return col + " >= ?", nil
	case OpLe:
		*args = append(*args, p.Value)
		return col + " <= ?", nil
	}
	return "", fmt.Errorf("unsupported operator %q", p.Op)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}
