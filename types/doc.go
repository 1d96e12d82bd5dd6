// Copyright (c) InsightFlow Authors.
// Licensed under the MIT License.

// Package types defines the shared error taxonomy used across InsightFlow.
//
// Every failure surfaced by the engine or a collaborator carries an
// [ErrorCode] so callers can distinguish expected suspensions
// (NEEDS_EXTERNAL_INPUT), recoverable rejections (INVALID_TRANSITION), and
// fatal outcomes (ROUTING_ERROR, STEP_FAILURE) without string matching.
package types
