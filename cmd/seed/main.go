// Package main provides a CLI tool for seeding the database with demo data
// and issuing a development access token.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"staffdesk/internal/config"
	appctx "staffdesk/internal/core/context"
	"staffdesk/internal/core/tx"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/auth"
	"staffdesk/internal/domain/hr/department"
	"staffdesk/internal/domain/hr/employee"
	"staffdesk/internal/domain/visitor"
	"staffdesk/internal/infrastructure/numerator"
	"staffdesk/internal/infrastructure/storage/postgres"
	"staffdesk/internal/infrastructure/storage/postgres/record_repo"
	"staffdesk/pkg/logger"
)

const seedUser = "seed"

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{DSN: cfg.Database.DSN, MaxConns: 4})
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	ctx = tx.WithManager(ctx, postgres.NewTxManager(pool))
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: seedUser, IsAdmin: true})
	ctx = logger.WithLogger(ctx, log)

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	if os.Getenv("SEED_DEV_TOKEN") == "true" {
		if err := printDevToken(cfg); err != nil {
			log.Fatalw("failed to issue dev token", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// printDevToken prints an admin access token signed with the server secret.
func printDevToken(cfg *config.Config) error {
	tokenCfg := auth.NewTokenConfig(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	tokenCfg.TTL = 24 * time.Hour

	token, expires, err := auth.NewTokens(tokenCfg).Issue(appctx.UserContext{
		UserID:  "dev-admin",
		Email:   "admin@staffdesk.local",
		IsAdmin: true,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Dev token (expires %s):\n%s\n", expires.Format(time.RFC3339), token)
	return nil
}

func seedDemoData(ctx context.Context, log *logger.Logger) error {
	auditStore, err := postgres.NewAuditStore(nil)
	if err != nil {
		return err
	}
	gen := numerator.NewFromContext()

	deptRepo := record_repo.NewDepartmentRepo()
	empRepo := record_repo.NewEmployeeRepo()

	existing, err := deptRepo.List(ctx, domain.ListFilter{Limit: 1})
	if err != nil {
		return fmt.Errorf("check existing data: %w", err)
	}
	if existing.TotalCount > 0 {
		log.Infow("demo data already present, skipping", "departments", existing.TotalCount)
		return nil
	}

	departments := department.NewService(deptRepo, gen, department.ServiceDeps{Audit: auditStore})
	employees := employee.NewService(empRepo, gen, employee.ServiceDeps{Departments: deptRepo, Audit: auditStore})
	visitors := visitor.NewService(record_repo.NewVisitorRepo(), gen, visitor.ServiceDeps{Hosts: empRepo, Audit: auditStore})

	deptIDs := make(map[string]*department.Department)
	for _, d := range []struct{ name, location string }{
		{"Engineering", "Berlin"},
		{"People Operations", "Berlin"},
		{"Facilities", "Lisbon"},
	} {
		dept := department.NewDepartment(d.name)
		loc := d.location
		dept.Location = &loc
		if err := departments.Create(ctx, dept); err != nil {
			return fmt.Errorf("create department %s: %w", d.name, err)
		}
		deptIDs[d.name] = dept
	}
	log.Infow("departments created", "count", len(deptIDs))

	joined := time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC)
	people := []struct {
		first, last, email, title, dept string
		kind                            employee.EmploymentType
	}{
		{"Ada", "Keller", "ada.keller@staffdesk.local", "Engineering Manager", "Engineering", employee.FullTime},
		{"Tomas", "Reyes", "tomas.reyes@staffdesk.local", "Backend Developer", "Engineering", employee.FullTime},
		{"Mina", "Okafor", "mina.okafor@staffdesk.local", "Frontend Developer", "Engineering", employee.Contract},
		{"Lea", "Brandt", "lea.brandt@staffdesk.local", "HR Partner", "People Operations", employee.FullTime},
		{"Jonas", "Weber", "jonas.weber@staffdesk.local", "Office Coordinator", "Facilities", employee.PartTime},
	}
	var hosts []*employee.Employee
	for i, p := range people {
		e := employee.NewEmployee(p.first, p.last, p.email, joined.AddDate(0, i, 0))
		e.JobTitle = p.title
		e.EmploymentType = p.kind
		deptID := deptIDs[p.dept].ID
		e.DepartmentID = &deptID
		if err := employees.Create(ctx, e); err != nil {
			return fmt.Errorf("create employee %s: %w", p.email, err)
		}
		hosts = append(hosts, e)
	}
	log.Infow("employees created", "count", len(hosts))

	today := time.Now().UTC().Truncate(24 * time.Hour)
	guests := []struct {
		name    string
		purpose visitor.Purpose
		host    int
	}{
		{"Sam Carter", visitor.PurposeInterview, 0},
		{"Priya Nair", visitor.PurposeMeeting, 3},
		{"Parcel Express", visitor.PurposeDelivery, 4},
	}
	for _, g := range guests {
		v := visitor.NewVisitor(g.name, hosts[g.host].ID, g.purpose, today)
		if err := visitors.Create(ctx, v); err != nil {
			return fmt.Errorf("create visitor %s: %w", g.name, err)
		}
	}
	log.Infow("visitors created", "count", len(guests))

	return nil
}
