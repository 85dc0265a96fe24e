package query

import "fmt"

// CMS 查询使用的操作符
var cmsOps = map[Op]string{
	OpContains:   "$contains",
	OpStartsWith: "$startsWith",
	OpEndsWith:   "$endsWith",
	OpEq:         "$eq",
	OpGe:         "$gte",
	OpLe:         "$lte",
}

// ToCMS 将谓词渲染为托管 CMS 数据接口的过滤对象，例如：
//
//	{"$and": [{"brand": {"$contains": "Nike"}}, {"price": {"$lte": 200}}]}
//
// 空的 And 渲染为空对象（不过滤）。fields 为 nil 时字段名原样输出。
func ToCMS(p Predicate, fields Columns) (map[string]any, error) {
	return renderCMS(p.Expand(), fields)
}

func renderCMS(p Predicate, fields Columns) (map[string]any, error) {
	switch p.Op {
	case OpAnd, OpOr:
		if p.IsMatchAll() {
			return map[string]any{}, nil
		}
		args := make([]map[string]any, 0, len(p.Args))
		for _, a := range p.Args {
			m, err := renderCMS(a, fields)
			if err != nil {
				return nil, err
			}
			args = append(args, m)
		}
		return map[string]any{"$" + string(p.Op): args}, nil
	}

	op, ok := cmsOps[p.Op]
	if !ok {
		return nil, fmt.Errorf("unsupported operator %q", p.Op)
	}
	field := p.Field
	if fields != nil {
		mapped, ok := fields[p.Field]
		if !ok {
			return nil, fmt.Errorf("unknown field %q", p.Field)
		}
		field = mapped
	}
	return map[string]any{field: map[string]any{op: p.Value}}, nil
}
