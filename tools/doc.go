// Copyright (c) InsightFlow Authors.
// Licensed under the MIT License.

/*
Package tools 提供研究流水线的外部工具：联网搜索与研究笔记。

搜索侧以 [SearchProvider] 抽象具体搜索后端，[TavilyClient] 是默认实现
（Tavily 风格的 JSON POST API），内置 x/time/rate 限流。笔记侧以
[NoteStore] 抽象笔记存储，规划与研究节点用它保存每个计划步骤的
中间产出，文件后端落盘为带 YAML frontmatter 的 Markdown。
*/
package tools
