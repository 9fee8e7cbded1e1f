package employee

import (
	"context"
	"fmt"
	"strings"
	"time"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/id"
	"staffdesk/internal/core/numerator"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/audit"
)

// Service provides business logic for employees.
type Service struct {
	*domain.RecordService[*Employee]
	repo        Repository
	departments DepartmentChecker
	numerator   numerator.Generator
}

// ServiceDeps are the optional collaborators of the service.
type ServiceDeps struct {
	Departments DepartmentChecker
	Audit       audit.Recorder
	FullText    domain.FullTextSearcher
	Indexer     domain.Indexer
}

// NewService creates an employee service. The TxManager comes from the context.
func NewService(repo Repository, gen numerator.Generator, deps ServiceDeps) *Service {
	base := domain.NewRecordService(domain.RecordServiceConfig[*Employee]{
		Repo:       repo,
		Schema:     Definition().Schema(),
		FullText:   deps.FullText,
		Indexer:    deps.Indexer,
		Audit:      deps.Audit,
		EntityName: EntityName,
	})

	svc := &Service{
		RecordService: base,
		repo:          repo,
		departments:   deps.Departments,
		numerator:     gen,
	}
	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)
	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, e *Employee) error {
	audit.StampCreated(ctx, &e.BaseEntity)
	if e.EmployeeNumber == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("EMP"), nil, e.JoiningDate)
		if err != nil {
			return fmt.Errorf("generate employee number: %w", err)
		}
		e.EmployeeNumber = number
	}
	return s.checkReferences(ctx, e)
}

func (s *Service) prepareForUpdate(ctx context.Context, e *Employee) error {
	audit.StampUpdated(ctx, &e.BaseEntity)
	if e.EmployeeNumber == "" {
		return apperror.NewValidation("employee number is required").WithDetail("field", "employeeNumber")
	}
	return s.checkReferences(ctx, e)
}

func (s *Service) checkReferences(ctx context.Context, e *Employee) error {
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	taken, err := s.repo.EmailTaken(ctx, e.Email, e.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.NewDuplicate(EntityName, "email", e.Email)
	}

	if e.DepartmentID != nil && s.departments != nil {
		ok, err := s.departments.Exists(ctx, *e.DepartmentID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewValidation("department does not exist").
				WithDetail("field", "departmentId").
				WithDetail("value", e.DepartmentID.String())
		}
	}

	if e.ManagerID != nil {
		ok, err := s.repo.Exists(ctx, *e.ManagerID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewValidation("manager does not exist").
				WithDetail("field", "managerId").
				WithDetail("value", e.ManagerID.String())
		}
	}
	return nil
}

// Terminate ends the employment on the given day.
// version must match the stored record.
func (s *Service) Terminate(ctx context.Context, employeeID id.ID, version int, leaving time.Time) (*Employee, error) {
	e, err := s.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if e.Version != version {
		return nil, apperror.NewConcurrentModification(EntityName, employeeID.String())
	}
	if e.Status == StatusTerminated {
		return nil, apperror.NewInvalidTransition(EntityName, string(e.Status), string(StatusTerminated))
	}

	e.Status = StatusTerminated
	e.LeavingDate = &leaving
	if err := s.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
