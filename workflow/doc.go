// Copyright (c) InsightFlow Authors.
// Licensed under the MIT License.

/*
Package workflow 提供可中断的研究报告工作流执行引擎。

# 概述

workflow 包实现了 InsightFlow 的调度核心：一个持有共享可变状态的有向图
执行器。步骤之间的路径由运行时的路由决策（任务是否清晰？审核是否通过？）
决定而非固定流水线；执行可以在中断点前挂起等待人类输入，之后从同一位置
精确恢复；reject→replan 循环由修订计数熔断器兜底，保证必然终止。

# 核心接口与类型

  - State / Update        — 版本化共享状态与 partial-additive 合并语义
  - Step / StepFunc       — 步骤契约 Apply(ctx, state) (Update, error)
  - Router / RouterFunc   — 纯路由函数 Route(ctx, state) (nodeID, error)
  - Graph / GraphBuilder  — 固定边 + 路由边 + interrupt-before 的静态拓扑
  - Engine                — Start / Resume / Inspect / Cancel 状态机
  - Checkpoint / CheckpointStore — {state, pending_node} 快照与抽象持久化
  - Locker                — 可选的跨进程实例租约扩展

# 挂起与恢复

挂起是完全返回：引擎把 {状态, 待进入节点} 写入 CheckpointStore 后将控制
权交还调用方，人机交互期间不驻留任何线程。Resume 是一次全新调用：加载
检查点、校验待进入节点仍属于当前图、合并外部注入的输入字段、继续同步
执行。对非挂起实例调用 Resume 返回 INSTANCE_NOT_PAUSED。

# 终止

到达 end 节点后实例冻结。终态结果区分 approved（审核通过）与
circuit_breaker_tripped（修订预算耗尽被强制终止），调用方永远可以分辨
两者。致命错误（STEP_FAILURE / ROUTING_ERROR / INVALID_TRANSITION）保留
最后一个成功持久化的检查点，不做自动重试。
*/
package workflow
