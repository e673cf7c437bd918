package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kycportal/internal/audit"
	companymodels "kycportal/internal/company/models"
	"kycportal/internal/directory"
	"kycportal/internal/workflow/metrics"
	"kycportal/internal/workflow/models"
	id "kycportal/pkg/domain"
	dErrors "kycportal/pkg/domain-errors"
	"kycportal/pkg/platform/sentinel"
	"kycportal/pkg/requestcontext"
)

// StatusStore is the persistence port for status records. Execute must hold a
// lock on the record for the whole validate-then-mutate cycle so concurrent
// gate decisions serialize per company.
type StatusStore interface {
	GetOrCreate(ctx context.Context, companyID id.CompanyID) (*models.StatusRecord, error)
	Execute(ctx context.Context, companyID id.CompanyID,
		validate func(sr *models.StatusRecord) error,
		mutate func(sr *models.StatusRecord)) (*models.StatusRecord, error)
}

// CompanyReader is the slice of the company store the workflow engine needs.
type CompanyReader interface {
	FindByID(ctx context.Context, companyID id.CompanyID) (*companymodels.Company, error)
	HasOwnership(ctx context.Context, companyID id.CompanyID) (bool, error)
}

// Notifier routes all workflow notification side effects through the
// dispatcher so the engine itself stays a pure state machine.
type Notifier interface {
	Notify(ctx context.Context, recipient id.UserID, message, url string, threadID id.ThreadID) error
	NotifyDedup(ctx context.Context, recipient id.UserID, message, url string, threadID id.ThreadID) error
	NotifyGroup(ctx context.Context, role, message, url string, threadID id.ThreadID) error
}

// RoleChecker answers whether an actor holds a role group.
type RoleChecker interface {
	IsMember(ctx context.Context, userID id.UserID, role string) (bool, error)
}

// AuditPublisher records workflow events for the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the workflow engine: the five role-owned gate transitions plus
// the reactive minimum-requirements trigger.
type Service struct {
	statuses       StatusStore
	companies      CompanyReader
	roles          RoleChecker
	notifier       Notifier
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(statuses StatusStore, companies CompanyReader, roles RoleChecker, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		statuses:  statuses,
		companies: companies,
		roles:     roles,
		notifier:  notifier,
		logger:    slog.Default(),
		tracer:    otel.Tracer("kycportal/workflow"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStatus returns the company's status record, lazily materializing the
// default record on first access.
func (s *Service) GetStatus(ctx context.Context, companyID id.CompanyID) (*models.StatusRecord, error) {
	if _, err := s.loadCompany(ctx, companyID); err != nil {
		return nil, err
	}
	sr, err := s.statuses.GetOrCreate(ctx, companyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load status record")
	}
	return sr, nil
}

// ComplianceDecision applies the Compliance gate.
func (s *Service) ComplianceDecision(ctx context.Context, companyID id.CompanyID, decision models.Decision) (*models.StatusRecord, error) {
	ctx, span := s.startSpan(ctx, "workflow.compliance_decision", companyID, string(decision))
	defer span.End()

	actor, company, err := s.authorize(ctx, companyID, directory.RoleCompliance)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	now := requestcontext.Now(ctx)

	sr, err := s.statuses.Execute(ctx, companyID,
		func(sr *models.StatusRecord) error {
			return sr.CanComplianceDecide()
		},
		func(sr *models.StatusRecord) {
			if decision == models.DecisionApprove {
				sr.ApplyComplianceApproval(actor, now)
			} else {
				sr.ApplyComplianceRejection(actor, now)
			}
		},
	)
	if err != nil {
		span.RecordError(err)
		return nil, s.refused(ctx, "compliance", err)
	}

	message := fmt.Sprintf("Compliance approved for %s", company.FullCompanyName)
	if decision == models.DecisionReject {
		message = fmt.Sprintf("Compliance rejected for %s", company.FullCompanyName)
	}
	s.notifyCreator(ctx, company, message)
	s.emitDecision(ctx, actor, companyID, audit.ActionComplianceDecision, string(decision), sr.PendingDetails)
	s.logDecision(ctx, "compliance", companyID, actor, decision, sr)
	return sr, nil
}

// TreasuryDecision applies the Treasury/Finance gate. A rejection requires a
// non-empty risk justification; without one the action itself is refused.
func (s *Service) TreasuryDecision(ctx context.Context, companyID id.CompanyID, decision models.Decision, risk string) (*models.StatusRecord, error) {
	ctx, span := s.startSpan(ctx, "workflow.finance_decision", companyID, string(decision))
	defer span.End()

	actor, company, err := s.authorize(ctx, companyID, directory.RoleFinance)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	risk = strings.TrimSpace(risk)
	now := requestcontext.Now(ctx)

	sr, err := s.statuses.Execute(ctx, companyID,
		func(sr *models.StatusRecord) error {
			if err := sr.CanTreasuryDecide(); err != nil {
				return err
			}
			if decision == models.DecisionReject {
				return models.ValidateTreasuryRisk(risk)
			}
			return nil
		},
		func(sr *models.StatusRecord) {
			if decision == models.DecisionApprove {
				sr.ApplyTreasuryApproval(actor, now)
			} else {
				sr.ApplyTreasuryRejection(actor, risk, now)
			}
		},
	)
	if err != nil {
		span.RecordError(err)
		return nil, s.refused(ctx, "finance", err)
	}

	message := fmt.Sprintf("Finance approved for %s", company.FullCompanyName)
	if decision == models.DecisionReject {
		message = fmt.Sprintf("Finance rejected for %s", company.FullCompanyName)
	}
	s.notifyCreator(ctx, company, message)
	s.emitDecision(ctx, actor, companyID, audit.ActionFinanceDecision, string(decision), sr.PendingDetails)
	s.logDecision(ctx, "finance", companyID, actor, decision, sr)
	return sr, nil
}

// TradingDecision applies the Trading enablement gate. The reject reason is
// optional free text.
func (s *Service) TradingDecision(ctx context.Context, companyID id.CompanyID, decision models.Decision, reason string) (*models.StatusRecord, error) {
	ctx, span := s.startSpan(ctx, "workflow.trading_decision", companyID, string(decision))
	defer span.End()

	actor, company, err := s.authorize(ctx, companyID, directory.RoleTrading)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	now := requestcontext.Now(ctx)

	sr, err := s.statuses.Execute(ctx, companyID,
		func(sr *models.StatusRecord) error {
			return sr.CanTradingDecide()
		},
		func(sr *models.StatusRecord) {
			if decision == models.DecisionApprove {
				sr.ApplyTradingApproval(actor, now)
			} else {
				sr.ApplyTradingRejection(actor, reason, now)
			}
		},
	)
	if err != nil {
		span.RecordError(err)
		return nil, s.refused(ctx, "trading", err)
	}

	message := fmt.Sprintf("Trading enabled for %s", company.FullCompanyName)
	if decision == models.DecisionReject {
		message = fmt.Sprintf("Trading not enabled for %s", company.FullCompanyName)
	}
	s.notifyCreator(ctx, company, message)
	s.emitDecision(ctx, actor, companyID, audit.ActionTradingDecision, string(decision), sr.PendingDetails)
	s.logDecision(ctx, "trading", companyID, actor, decision, sr)
	return sr, nil
}

// FinalAnalysisDecision applies Trading's final-analysis sub-gate.
func (s *Service) FinalAnalysisDecision(ctx context.Context, companyID id.CompanyID, decision models.Decision) (*models.StatusRecord, error) {
	ctx, span := s.startSpan(ctx, "workflow.final_analysis_decision", companyID, string(decision))
	defer span.End()

	actor, _, err := s.authorize(ctx, companyID, directory.RoleTrading)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	now := requestcontext.Now(ctx)

	sr, err := s.statuses.Execute(ctx, companyID,
		func(sr *models.StatusRecord) error {
			return sr.CanFinalAnalysisDecide()
		},
		func(sr *models.StatusRecord) {
			if decision == models.DecisionApprove {
				sr.ApplyFinalAnalysisApproval(actor, now)
			} else {
				sr.ApplyFinalAnalysisRejection(actor, now)
			}
		},
	)
	if err != nil {
		span.RecordError(err)
		return nil, s.refused(ctx, "final_analysis", err)
	}

	s.emitDecision(ctx, actor, companyID, audit.ActionFinalAnalysisDecision, string(decision), sr.PendingDetails)
	s.logDecision(ctx, "final_analysis", companyID, actor, decision, sr)
	return sr, nil
}

// RegisterSAP applies the Procurement gate: terminal onboarding success.
func (s *Service) RegisterSAP(ctx context.Context, companyID id.CompanyID) (*models.StatusRecord, error) {
	ctx, span := s.startSpan(ctx, "workflow.sap_registration", companyID, "register")
	defer span.End()

	actor, _, err := s.authorize(ctx, companyID, directory.RoleProcurement)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	now := requestcontext.Now(ctx)

	sr, err := s.statuses.Execute(ctx, companyID,
		func(sr *models.StatusRecord) error {
			return sr.CanRegisterSAP()
		},
		func(sr *models.StatusRecord) {
			sr.ApplySAPRegistration(actor, now)
		},
	)
	if err != nil {
		span.RecordError(err)
		return nil, s.refused(ctx, "sap_registration", err)
	}

	if s.metrics != nil {
		s.metrics.OnboardingFinished.Inc()
	}
	s.emitDecision(ctx, actor, companyID, audit.ActionSAPRegistration, "register", sr.PendingDetails)
	s.logDecision(ctx, "sap_registration", companyID, actor, models.DecisionApprove, sr)
	return sr, nil
}

// Reevaluate is the reactive trigger: it re-runs the eligibility evaluation
// and updates the status record in the same request that saved the company
// data, so there is no stale eligibility window.
func (s *Service) Reevaluate(ctx context.Context, company *companymodels.Company) error {
	hasOwnership, err := s.companies.HasOwnership(ctx, company.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ownership record")
	}
	met := company.MinRequirementsMet(hasOwnership)
	missing := company.MissingRequirements(hasOwnership)
	now := requestcontext.Now(ctx)

	var previously bool
	_, err = s.statuses.Execute(ctx, company.ID,
		nil,
		func(sr *models.StatusRecord) {
			previously = sr.MinRequirementsMet
			if met {
				sr.ApplyRequirementsMet(now)
			} else {
				sr.ApplyRequirementsUnmet(missing, now)
			}
		},
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update status record")
	}
	if s.metrics != nil {
		s.metrics.Reevaluations.Inc()
	}

	companyURL := companyLink(company.ID)
	switch {
	case !met:
		message := fmt.Sprintf("Complete the minimum requirements to proceed: %s", strings.Join(missing, ", "))
		if err := s.notifier.NotifyDedup(ctx, company.CreatedBy, message, companyURL, id.ThreadID{}); err != nil {
			s.logger.WarnContext(ctx, "creator notification failed",
				"company_id", company.ID,
				"error", err,
			)
		}
	case met && !previously:
		complianceMsg := fmt.Sprintf("Client ready for Compliance review: %s", company.FullCompanyName)
		financeMsg := fmt.Sprintf("Client ready for Finance review: %s", company.FullCompanyName)
		_ = s.notifier.NotifyGroup(ctx, directory.RoleCompliance, complianceMsg, companyURL, id.ThreadID{})
		_ = s.notifier.NotifyGroup(ctx, directory.RoleFinance, financeMsg, companyURL, id.ThreadID{})
		s.emitDecision(ctx, id.UserID{}, company.ID, audit.ActionRequirementsChanged, "", "minimum requirements met")
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, companyID id.CompanyID, role string) (id.UserID, *companymodels.Company, error) {
	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		return id.UserID{}, nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	member, err := s.roles.IsMember(ctx, actor, role)
	if err != nil {
		return id.UserID{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check role membership")
	}
	if !member {
		return id.UserID{}, nil, dErrors.New(dErrors.CodeForbidden, fmt.Sprintf("you must belong to the %s group to act on this gate", role))
	}
	company, err := s.loadCompany(ctx, companyID)
	if err != nil {
		return id.UserID{}, nil, err
	}
	return actor, company, nil
}

func (s *Service) loadCompany(ctx context.Context, companyID id.CompanyID) (*companymodels.Company, error) {
	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
	}
	return company, nil
}

func (s *Service) refused(ctx context.Context, gate string, err error) error {
	if dErrors.HasCode(err, dErrors.CodePreconditionFailed) {
		if s.metrics != nil {
			s.metrics.PreconditionRefused.Inc()
		}
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to apply %s decision", gate))
}

func (s *Service) notifyCreator(ctx context.Context, company *companymodels.Company, message string) {
	if err := s.notifier.Notify(ctx, company.CreatedBy, message, companyLink(company.ID), id.ThreadID{}); err != nil {
		s.logger.WarnContext(ctx, "creator notification failed",
			"company_id", company.ID,
			"error", err,
		)
	}
}

func (s *Service) emitDecision(ctx context.Context, actor id.UserID, companyID id.CompanyID, action, decision, details string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		CompanyID: companyID.String(),
		Action:    action,
		Decision:  decision,
		Details:   details,
	}
	if !actor.IsNil() {
		event.ActorID = actor.String()
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"company_id", companyID,
			"action", action,
			"error", err,
		)
	}
}

func (s *Service) logDecision(ctx context.Context, gate string, companyID id.CompanyID, actor id.UserID, decision models.Decision, sr *models.StatusRecord) {
	if s.metrics != nil {
		s.metrics.IncrementDecision(gate, string(decision))
	}
	s.logger.InfoContext(ctx, "gate decision applied",
		"request_id", requestcontext.RequestID(ctx),
		"gate", gate,
		"company_id", companyID,
		"actor", actor,
		"decision", decision,
		"pending_owner", sr.PendingOwner,
		"is_pending", sr.IsPending,
	)
}

func (s *Service) startSpan(ctx context.Context, name string, companyID id.CompanyID, decision string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("company.id", companyID.String()),
		attribute.String("decision", decision),
	))
}

func companyLink(companyID id.CompanyID) string {
	return "/companies/" + companyID.String()
}
