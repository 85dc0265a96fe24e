// Package query 定义数据层的过滤谓词语言：构造、内存求值、SQL渲染和CMS查询渲染。
package query

import (
	"fmt"
	"strings"
)

// Op 谓词操作符
type Op string

const (
	OpContains   Op = "contains"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
	OpEq         Op = "eq"
	OpGe         Op = "ge"
	OpLe         Op = "le"
	OpHasToken   Op = "hasToken" // 按分隔符切分后的整词匹配
	OpAnd        Op = "and"
	OpOr         Op = "or"
)

// Record 可被谓词求值的记录
type Record interface {
	Field(name string) (any, bool)
}

// Predicate 不可变的过滤表达式树
type Predicate struct {
	Op        Op          `json:"op"`
	Field     string      `json:"field,omitempty"`
	Value     any         `json:"value,omitempty"`
	Delimiter string      `json:"delimiter,omitempty"`
	Args      []Predicate `json:"args,omitempty"`
}

// Contains 字段包含子串（不区分大小写）
func Contains(field, value string) Predicate {
	return Predicate{Op: OpContains, Field: field, Value: value}
}

// StartsWith 字段以指定前缀开头（不区分大小写）
func StartsWith(field, value string) Predicate {
	return Predicate{Op: OpStartsWith, Field: field, Value: value}
}

// EndsWith 字段以指定后缀结尾（不区分大小写）
func EndsWith(field, value string) Predicate {
	return Predicate{Op: OpEndsWith, Field: field, Value: value}
}

// Eq 字段等于
func Eq(field string, value any) Predicate {
	return Predicate{Op: OpEq, Field: field, Value: value}
}

// Ge 数值字段大于等于
func Ge(field string, value float64) Predicate {
	return Predicate{Op: OpGe, Field: field, Value: value}
}

// Le 数值字段小于等于
func Le(field string, value float64) Predicate {
	return Predicate{Op: OpLe, Field: field, Value: value}
}

// HasToken 字段按 delimiter 切分后包含完整的 token
func HasToken(field, token, delimiter string) Predicate {
	return Predicate{Op: OpHasToken, Field: field, Value: token, Delimiter: delimiter}
}

// And 逻辑与；没有参数时匹配所有记录
func And(args ...Predicate) Predicate {
	return Predicate{Op: OpAnd, Args: args}
}

// Or 逻辑或；没有参数时不匹配任何记录
func Or(args ...Predicate) Predicate {
	return Predicate{Op: OpOr, Args: args}
}

// IsMatchAll 判断谓词是否为空的 And（不产生任何约束）
func (p Predicate) IsMatchAll() bool {
	return p.Op == OpAnd && len(p.Args) == 0
}

// Expand 将 HasToken 展开为数据层可执行的四路 OR：
// 完全相等、开头、结尾、中间（两侧均为分隔符）。
func (p Predicate) Expand() Predicate {
	switch p.Op {
	case OpHasToken:
		token := fmt.Sprint(p.Value)
		return Or(
			Eq(p.Field, token),
			StartsWith(p.Field, token+p.Delimiter),
			EndsWith(p.Field, p.Delimiter+token),
			Contains(p.Field, p.Delimiter+token+p.Delimiter),
		)
	case OpAnd, OpOr:
		args := make([]Predicate, len(p.Args))
		for i, a := range p.Args {
			args[i] = a.Expand()
		}
		return Predicate{Op: p.Op, Args: args}
	default:
		return p
	}
}

// String 返回便于日志输出的表达式
func (p Predicate) String() string {
	switch p.Op {
	case OpAnd, OpOr:
		parts := make([]string, len(p.Args))
		for i, a := range p.Args {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s(%s)", p.Op, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%s(%s, %v)", p.Op, p.Field, p.Value)
	}
}
