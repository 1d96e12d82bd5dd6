// Copyright (c) InsightFlow Authors.
// Licensed under the MIT License.

/*
Package nodes 实现研究报告流水线的全部工作流步骤。

节点与职责：

  - Clarifier     — 模糊任务生成 3 个澄清问题；拿到回答后重写为精确研究目标
  - HumanResponse — 中断占位节点，挂起点本身不做任何状态变更
  - Planner       — 初次规划或按审核意见重构计划，为每个步骤建立研究笔记
  - Researcher    — 执行当前计划步骤的搜索、并行消化结果、写回笔记
  - Writer        — 汇总全部笔记与发现，在 token 预算内起草报告
  - Reviewer      — 审核草稿，给出 approve/reject 裁决与整改意见

[DefaultGraph] 把这些节点接成固定拓扑：clarifier 经路由去 human_response
（中断点）或 planner；researcher 自环直到计划做完；reviewer 经路由回
planner（打回重做）或终止。
*/
package nodes
