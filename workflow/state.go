package workflow

import (
	"fmt"

	"github.com/BaSui01/insightflow/types"
)

// ReviewStatus 审核状态
type ReviewStatus string

const (
	// ReviewPending 尚未审核
	ReviewPending ReviewStatus = "pending"
	// ReviewApprove 审核通过（终态，状态冻结）
	ReviewApprove ReviewStatus = "approve"
	// ReviewReject 审核不通过，打回 Planner 重新规划
	ReviewReject ReviewStatus = "reject"
)

// PlanStepStatus 计划步骤状态
type PlanStepStatus string

const (
	PlanStepPending   PlanStepStatus = "pending"
	PlanStepCompleted PlanStepStatus = "completed"
	PlanStepFailed    PlanStepStatus = "failed"
)

// PlanStep 研究计划中的单个步骤，由 Planner 生成。
type PlanStep struct {
	ID          int            `json:"id"`
	Description string         `json:"description"`
	SearchQuery string         `json:"search_query,omitempty"`
	Reasoning   string         `json:"reasoning,omitempty"`
	Status      PlanStepStatus `json:"status"`
	Result      string         `json:"result,omitempty"`
	NoteID      string         `json:"note_id,omitempty"`
}

// Finding is one piece of collected research material.
type Finding struct {
	URL     string  `json:"url"`
	Title   string  `json:"title,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// State field names. Steps return partial updates keyed by these names; the
// engine merges them via State.Merge.
const (
	FieldOriginalTask           = "original_task"
	FieldClarificationQuestions = "clarification_questions"
	FieldClarificationAnswers   = "clarification_answers"
	FieldClarifiedTask          = "clarified_task"
	FieldPlan                   = "plan"
	FieldCurrentStepIndex       = "current_step_index"
	FieldResearchFindings       = "research_findings"
	FieldDraftReport            = "draft_report"
	FieldReviewStatus           = "review_status"
	FieldReviewCritique         = "review_critique"
	FieldRevisionCount          = "revision_count"
	FieldMessages               = "messages"
)

// Update is a partial state update: only the fields a step changed.
type Update map[string]any

// State 是单个工作流实例的共享可变状态，引擎独占其游标与合并权。
// 除 OriginalTask 外所有字段均为可选；合并语义是 partial-and-additive：
// 未出现在 Update 中的字段一律保留。
type State struct {
	OriginalTask           string       `json:"original_task"`
	ClarificationQuestions []string     `json:"clarification_questions,omitempty"`
	ClarificationAnswers   string       `json:"clarification_answers,omitempty"`
	ClarifiedTask          string       `json:"clarified_task,omitempty"`
	Plan                   []PlanStep   `json:"plan,omitempty"`
	CurrentStepIndex       int          `json:"current_step_index"`
	ResearchFindings       []Finding    `json:"research_findings,omitempty"`
	DraftReport            string       `json:"draft_report,omitempty"`
	ReviewStatus           ReviewStatus `json:"review_status"`
	ReviewCritique         string       `json:"review_critique,omitempty"`
	RevisionCount          int          `json:"revision_count"`
	Messages               []string     `json:"messages,omitempty"`

	// Version counts applied merges. Bumped once per non-empty Merge.
	Version uint64 `json:"version"`
}

// NewState creates the initial state for a submitted task.
func NewState(task string) *State {
	return &State{
		OriginalTask: task,
		ReviewStatus: ReviewPending,
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := *s
	if s.ClarificationQuestions != nil {
		c.ClarificationQuestions = append([]string(nil), s.ClarificationQuestions...)
	}
	if s.Plan != nil {
		c.Plan = append([]PlanStep(nil), s.Plan...)
	}
	if s.ResearchFindings != nil {
		c.ResearchFindings = append([]Finding(nil), s.ResearchFindings...)
	}
	if s.Messages != nil {
		c.Messages = append([]string(nil), s.Messages...)
	}
	return &c
}

// Merge applies a partial update onto the state and bumps the version.
// Field reducers: scalars last-write-win, research_findings and messages
// append. Merge is deterministic and validates every invariant before
// touching the state, so a rejected update leaves the state unchanged.
func (s *State) Merge(u Update) error {
	if len(u) == 0 {
		return nil
	}
	if err := s.validate(u); err != nil {
		return err
	}
	for key, val := range u {
		switch key {
		case FieldClarificationQuestions:
			s.ClarificationQuestions = val.([]string)
		case FieldClarificationAnswers:
			s.ClarificationAnswers = val.(string)
		case FieldClarifiedTask:
			s.ClarifiedTask = val.(string)
		case FieldPlan:
			s.Plan = val.([]PlanStep)
		case FieldCurrentStepIndex:
			s.CurrentStepIndex = val.(int)
		case FieldResearchFindings:
			s.ResearchFindings = append(s.ResearchFindings, val.([]Finding)...)
		case FieldDraftReport:
			s.DraftReport = val.(string)
		case FieldReviewStatus:
			s.ReviewStatus = val.(ReviewStatus)
		case FieldReviewCritique:
			s.ReviewCritique = val.(string)
		case FieldRevisionCount:
			s.RevisionCount = val.(int)
		case FieldMessages:
			s.Messages = append(s.Messages, val.([]string)...)
		}
	}
	s.Version++
	return nil
}

// validate rejects updates that would violate a state invariant. It checks
// everything up front so Merge is all-or-nothing.
func (s *State) validate(u Update) error {
	for key, val := range u {
		ok := true
		switch key {
		case FieldOriginalTask:
			return types.NewError(types.ErrInvalidTransition,
				"original_task is immutable after creation")
		case FieldClarificationQuestions:
			_, ok = val.([]string)
		case FieldClarificationAnswers:
			_, ok = val.(string)
		case FieldClarifiedTask:
			_, ok = val.(string)
		case FieldPlan:
			_, ok = val.([]PlanStep)
		case FieldCurrentStepIndex:
			_, ok = val.(int)
		case FieldResearchFindings:
			_, ok = val.([]Finding)
		case FieldDraftReport:
			_, ok = val.(string)
		case FieldReviewStatus:
			status, isStatus := val.(ReviewStatus)
			if !isStatus {
				ok = false
				break
			}
			if err := s.validateReviewTransition(status); err != nil {
				return err
			}
		case FieldReviewCritique:
			_, ok = val.(string)
		case FieldRevisionCount:
			count, isInt := val.(int)
			if !isInt {
				ok = false
				break
			}
			if count < s.RevisionCount {
				return types.Errorf(types.ErrInvalidTransition,
					"revision_count never decreases: %d -> %d", s.RevisionCount, count)
			}
		case FieldMessages:
			_, ok = val.([]string)
		default:
			return types.Errorf(types.ErrInvalidTransition, "unknown state field %q", key)
		}
		if !ok {
			return types.Errorf(types.ErrInvalidTransition,
				"field %q: unexpected value type %T", key, val)
		}
	}
	return nil
}

// validateReviewTransition enforces the review_status state machine:
// pending -> {approve, reject}; reject -> pending (replan). approve is frozen
// and approve<->reject flips are illegal in both directions.
func (s *State) validateReviewTransition(next ReviewStatus) error {
	switch next {
	case ReviewPending, ReviewApprove, ReviewReject:
	default:
		return types.Errorf(types.ErrInvalidTransition, "unknown review_status %q", next)
	}
	if next == s.ReviewStatus {
		return nil
	}
	if s.ReviewStatus == ReviewApprove {
		return types.Errorf(types.ErrInvalidTransition,
			"review_status is frozen at approve, cannot change to %s", next)
	}
	if s.ReviewStatus == ReviewReject && next == ReviewApprove {
		return types.Errorf(types.ErrInvalidTransition,
			"review_status cannot jump reject -> approve without a replan")
	}
	return nil
}

// TaskGoal returns the active task description: the clarified task when the
// clarification has resolved, the original task otherwise.
func (s *State) TaskGoal() string {
	if s.ClarifiedTask != "" {
		return s.ClarifiedTask
	}
	return s.OriginalTask
}

// PendingPlanStep returns the first plan step that is not yet completed, or
// -1 when the plan is fully executed.
func (s *State) PendingPlanStep() int {
	for i, step := range s.Plan {
		if step.Status != PlanStepCompleted {
			return i
		}
	}
	return -1
}

func (s *State) String() string {
	return fmt.Sprintf("State{task=%q clarified=%t plan=%d review=%s revisions=%d v%d}",
		s.OriginalTask, s.ClarifiedTask != "", len(s.Plan), s.ReviewStatus, s.RevisionCount, s.Version)
}
