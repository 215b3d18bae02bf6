package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/cfkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Expr 是编译后的 Label DSL 表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可被并发请求重复求值。
//
// 可用变量：
//   - item.id / item.index / item.score / item.meta / item.labels
//   - label.<key>：item 上 Label 的 Value，例如 label.recall_source == "u2i"
//   - rctx.user_id / rctx.request_id / rctx.params
//
// 示例：
//   - `item.score >= 4.0`
//   - `label.cf_metric == "pearson" && item.score > 3.5`
//   - `!(item.id in rctx.params.exclude)`
type Expr struct {
	src string
	prg cel.Program
}

// Compile 编译表达式。空表达式恒为 true。
func Compile(expr string) (*Expr, error) {
	if expr == "" {
		return &Expr{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Expr{src: expr, prg: prg}, nil
}

func (e *Expr) String() string { return e.src }

// Eval 对单个 item 求值，表达式必须返回布尔值。
func (e *Expr) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if e.prg == nil {
		return true, nil
	}
	out, _, err := e.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 key 会报错，表达式中应先用 has() 判断
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}
	meta := item.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	ctxInput := map[string]any{
		"user_id":    "",
		"request_id": "",
		"params":     map[string]any{},
	}
	if rctx != nil {
		ctxInput["user_id"] = rctx.UserID
		ctxInput["request_id"] = rctx.RequestID
		if rctx.Params != nil {
			ctxInput["params"] = rctx.Params
		}
	}

	return map[string]any{
		"item": map[string]any{
			"id":     item.ID,
			"index":  item.Index,
			"score":  item.Score,
			"meta":   meta,
			"labels": labels,
		},
		"label": labels,
		"rctx":  ctxInput,
	}
}
