package visitor

import (
	"context"
	"fmt"
	"time"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/id"
	"staffdesk/internal/core/numerator"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/audit"
)

// Service provides business logic for visits.
type Service struct {
	*domain.RecordService[*Visitor]
	hosts     HostChecker
	numerator numerator.Generator
	now       func() time.Time
}

// ServiceDeps are the optional collaborators of the service.
type ServiceDeps struct {
	Hosts    HostChecker
	Audit    audit.Recorder
	FullText domain.FullTextSearcher
	Indexer  domain.Indexer
}

// NewService creates a visitor service. The TxManager comes from the context.
func NewService(repo Repository, gen numerator.Generator, deps ServiceDeps) *Service {
	base := domain.NewRecordService(domain.RecordServiceConfig[*Visitor]{
		Repo:       repo,
		Schema:     Definition().Schema(),
		FullText:   deps.FullText,
		Indexer:    deps.Indexer,
		Audit:      deps.Audit,
		EntityName: EntityName,
	})

	svc := &Service{
		RecordService: base,
		hosts:         deps.Hosts,
		numerator:     gen,
		now:           time.Now,
	}
	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)
	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, v *Visitor) error {
	audit.StampCreated(ctx, &v.BaseEntity)
	if v.Status != StatusExpected {
		return apperror.NewValidation("a new visit must be expected").WithDetail("field", "status")
	}
	if v.VisitNumber == "" {
		opts := &numerator.Options{Strategy: numerator.StrategyCached, RangeSize: 20}
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("VIS"), opts, v.ExpectedOn)
		if err != nil {
			return fmt.Errorf("generate visit number: %w", err)
		}
		v.VisitNumber = number
	}
	return s.checkHost(ctx, v)
}

func (s *Service) prepareForUpdate(ctx context.Context, v *Visitor) error {
	audit.StampUpdated(ctx, &v.BaseEntity)
	return s.checkHost(ctx, v)
}

func (s *Service) checkHost(ctx context.Context, v *Visitor) error {
	if s.hosts == nil {
		return nil
	}
	ok, err := s.hosts.Exists(ctx, v.HostEmployeeID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewValidation("host employee does not exist").
			WithDetail("field", "hostEmployeeId").
			WithDetail("value", v.HostEmployeeID.String())
	}
	return nil
}

// transition loads a visit, checks its version and applies change.
func (s *Service) transition(ctx context.Context, visitID id.ID, version int, action audit.Action, change func(*Visitor) error) (*Visitor, error) {
	v, err := s.GetByID(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.Version != version {
		return nil, apperror.NewConcurrentModification(EntityName, visitID.String())
	}
	if err := change(v); err != nil {
		return nil, err
	}
	if err := s.UpdateAs(ctx, v, action); err != nil {
		return nil, err
	}
	return v, nil
}

// CheckIn registers the arrival of the visitor and hands out a badge.
func (s *Service) CheckIn(ctx context.Context, visitID id.ID, version int, badge string) (*Visitor, error) {
	return s.transition(ctx, visitID, version, audit.ActionCheckIn, func(v *Visitor) error {
		return v.CheckIn(s.now().UTC(), badge)
	})
}

// CheckOut registers the departure of the visitor.
func (s *Service) CheckOut(ctx context.Context, visitID id.ID, version int) (*Visitor, error) {
	return s.transition(ctx, visitID, version, audit.ActionCheckOut, func(v *Visitor) error {
		return v.CheckOut(s.now().UTC())
	})
}

// Cancel calls off an expected visit.
func (s *Service) Cancel(ctx context.Context, visitID id.ID, version int) (*Visitor, error) {
	return s.transition(ctx, visitID, version, audit.ActionUpdate, func(v *Visitor) error {
		return v.Cancel()
	})
}
