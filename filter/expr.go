package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/cfkit/core"
	"github.com/rushteam/cfkit/pkg/dsl"
)

// ExprFilter 用 CEL 表达式决定是否保留物品：表达式为 true 的物品保留，为 false 的被过滤。
//
//	f, _ := filter.NewExprFilter(`item.score >= 3.5`)
type ExprFilter struct {
	expr *dsl.Expr
}

// NewExprFilter 编译表达式，语法错误返回 InvalidConfig 错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	e, err := dsl.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: filter expression %q: %w", core.ErrInvalidConfig, expr, err)
	}
	return &ExprFilter{expr: e}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) Expr() string { return f.expr.String() }

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.expr.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
