package workflow

import (
	"context"
	"errors"

	"github.com/BaSui01/insightflow/types"
)

// Step 工作流步骤接口
// 步骤是读取状态并产出部分更新的纯函数：给定相同的状态输入，Apply 必须
// 产出一致的结果，这样 resume 后的重放才是安全的。步骤不得触碰游标或
// revision_count 之外自己不拥有的控制字段。
type Step interface {
	// Name 返回步骤名称（图中的节点标识）
	Name() string
	// Apply 执行步骤，返回对共享状态的部分更新
	Apply(ctx context.Context, state *State) (Update, error)
}

// StepFunc 步骤函数类型
type StepFunc func(ctx context.Context, state *State) (Update, error)

// FuncStep 函数步骤实现
type FuncStep struct {
	name string
	fn   StepFunc
}

// NewFuncStep 创建函数步骤
func NewFuncStep(name string, fn StepFunc) *FuncStep {
	return &FuncStep{name: name, fn: fn}
}

func (s *FuncStep) Name() string {
	return s.name
}

func (s *FuncStep) Apply(ctx context.Context, state *State) (Update, error) {
	return s.fn(ctx, state)
}

// ErrNeedsInput is the expected, non-fatal signal a step returns when it
// cannot proceed without external (human) input. The engine suspends the
// instance at the current node instead of failing it.
var ErrNeedsInput = types.NewError(types.ErrNeedsExternalInput,
	"step requires external input")

// IsNeedsInput reports whether err is the external-input suspension signal.
func IsNeedsInput(err error) bool {
	return errors.Is(err, ErrNeedsInput) ||
		types.HasCode(err, types.ErrNeedsExternalInput)
}
