package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/domain"
	"github.com/persistorai/aptaudit/internal/models"
)

// Compile-time checks: *Engine serves both write-side domain interfaces.
var (
	_ domain.AuditLifecycle = (*Engine)(nil)
	_ domain.AnswerService  = (*Engine)(nil)
)

// EngineDeps groups the collaborators an Engine is built from.
type EngineDeps struct {
	UnitOfWork UnitOfWork
	Questions  *QuestionCache
	Activity   ActivityEnqueuer
	Clock      Clock
	Log        *logrus.Logger
}

// Engine wires the lifecycle manager and the answer processor around one
// unit of work.
type Engine struct {
	Lifecycle  *LifecycleManager
	Answers    *AnswerProcessor
	Completion *CompletionTracker
}

// NewEngine builds an Engine. A nil Clock defaults to UTC wall time and a nil
// Questions cache is replaced by a private one.
func NewEngine(d EngineDeps) *Engine {
	now := d.Clock
	if now == nil {
		now = utcNow
	}

	questions := d.Questions
	if questions == nil {
		questions = NewQuestionCache()
	}

	completion := NewCompletionTracker(d.UnitOfWork)
	rules := NewRuleEngine(now, d.Log)

	return &Engine{
		Lifecycle: NewLifecycleManager(
			d.UnitOfWork, NewInstantiator(questions), d.Activity, now, d.Log,
		),
		Answers:    NewAnswerProcessor(d.UnitOfWork, rules, completion, d.Activity, now, d.Log),
		Completion: completion,
	}
}

// StartAudit validates req and starts an audit.
func (e *Engine) StartAudit(ctx context.Context, req models.StartAuditRequest) (*models.AuditDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return e.Lifecycle.Start(ctx, req)
}

// CompleteAudit completes an audit.
func (e *Engine) CompleteAudit(ctx context.Context, auditID int64, actor string) (*models.Audit, error) {
	return e.Lifecycle.Complete(ctx, auditID, actor)
}

// CancelAudit cancels an audit.
func (e *Engine) CancelAudit(ctx context.Context, auditID int64, actor, reason string) (*models.Audit, error) {
	return e.Lifecycle.Cancel(ctx, auditID, actor, reason)
}

// AnswerItem records an answer.
func (e *Engine) AnswerItem(ctx context.Context, req models.AnswerRequest) (*models.AnswerResult, error) {
	return e.Answers.Answer(ctx, req)
}
