package department

import (
	"context"
	"fmt"
	"time"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/numerator"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/audit"
)

// Service provides business logic for departments.
type Service struct {
	*domain.RecordService[*Department]
	repo      Repository
	numerator numerator.Generator
}

// ServiceDeps are the optional collaborators of the service.
type ServiceDeps struct {
	Audit    audit.Recorder
	FullText domain.FullTextSearcher
	Indexer  domain.Indexer
}

// NewService creates a department service. The TxManager comes from the context.
func NewService(repo Repository, gen numerator.Generator, deps ServiceDeps) *Service {
	base := domain.NewRecordService(domain.RecordServiceConfig[*Department]{
		Repo:       repo,
		Schema:     Definition().Schema(),
		FullText:   deps.FullText,
		Indexer:    deps.Indexer,
		Audit:      deps.Audit,
		EntityName: EntityName,
	})

	svc := &Service{RecordService: base, repo: repo, numerator: gen}
	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)
	base.Hooks().OnBeforeDelete(svc.checkNoChildren)
	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, d *Department) error {
	audit.StampCreated(ctx, &d.BaseEntity)
	if d.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.Config{
			Prefix:      "DEP",
			PadWidth:    3,
			ResetPeriod: numerator.ResetNever,
		}, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		d.Code = code
	}
	return s.checkCode(ctx, d)
}

func (s *Service) prepareForUpdate(ctx context.Context, d *Department) error {
	audit.StampUpdated(ctx, &d.BaseEntity)
	if d.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	return s.checkCode(ctx, d)
}

func (s *Service) checkCode(ctx context.Context, d *Department) error {
	taken, err := s.repo.CodeTaken(ctx, d.Code, d.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.NewDuplicate(EntityName, "code", d.Code)
	}
	return nil
}

func (s *Service) checkNoChildren(ctx context.Context, d *Department) error {
	has, err := s.repo.HasChildren(ctx, d.ID)
	if err != nil {
		return err
	}
	if has {
		return apperror.NewBusinessRule(apperror.CodeHasDependents, "department has child departments").
			WithDetail("id", d.ID.String())
	}
	return nil
}
