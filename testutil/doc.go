// Copyright (c) InsightFlow Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 InsightFlow 测试的共享工具和辅助函数。

# 概述

testutil 为各包的单元测试提供统一的辅助能力，避免重复实现相似的
测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / CancelledContext，自动注册 Cleanup
    防止泄漏

# 子包

  - testutil/mocks: Mock 实现，包括 ScriptedProvider（按脚本应答的
    LLM Provider）与 ScriptedSearch（搜索提供方），均支持错误注入
    与调用记录

# 使用示例

	provider := mocks.NewScriptedProvider("第一条回复", "第二条回复")
	router := llm.NewModelRouter(provider, nil, "test-model", nil)
*/
package testutil
