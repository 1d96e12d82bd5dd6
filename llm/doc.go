// Copyright (c) InsightFlow Authors.
// Licensed under the MIT License.

/*
Package llm 提供统一的大语言模型接入层。

# 概述

本包屏蔽不同模型服务商在接口、鉴权和错误语义上的差异，对工作流节点
暴露一致的请求与响应模型。报告流水线中的每个节点（澄清、规划、撰写、
审核）都只依赖 [Provider] 抽象，底层模型可以整体切换而节点代码不变。

# 核心接口与类型

  - [Provider]      — Completion / HealthCheck / Name
  - [ChatRequest]   — 消息列表 + 模型与采样参数
  - [ModelRouter]   — 按用途（澄清/规划/撰写/审核/摘要）选择模型
  - [TokenCounter]  — tiktoken 精确计数，失败时退化为字符估算

# OpenAI 兼容接入

[NewOpenAIProvider] 适配所有 OpenAI 兼容 API（OpenAI、DeepSeek、Qwen
等），默认 Bearer 鉴权与 /v1/chat/completions 端点，均可按服务商覆盖。
*/
package llm
