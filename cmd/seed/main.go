package main

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"novalabs/internal/billing"
	"novalabs/internal/config"
	"novalabs/internal/db"
	"novalabs/internal/model"
	"novalabs/internal/repository"
)

const (
	adminEmail    = "admin@novalabs.mx"
	adminPassword = "admin1234"
)

type demoClient struct {
	Email    string
	Name     string
	Company  string
	Plan     model.PlanType
	Status   model.ProjectStatus
	Progress int
	Phase    string
}

var demoClients = []demoClient{
	{
		Email:    "ana@tacosdonaana.mx",
		Name:     "Ana Martínez",
		Company:  "Tacos Doña Ana",
		Plan:     model.PlanRocket,
		Status:   model.StatusEnDesarrollo,
		Progress: 35,
		Phase:    "Contenido y Estructura",
	},
	{
		Email:    "carlos@estudiocreativo.mx",
		Name:     "Carlos Rivera",
		Company:  "Estudio Creativo Rivera",
		Plan:     model.PlanGalaxy,
		Status:   model.StatusEnRevision,
		Progress: 90,
		Phase:    "Revisión Final",
	},
	{
		Email:    "lucia@floreslucia.mx",
		Name:     "Lucía Hernández",
		Company:  "Flores Lucía",
		Plan:     model.PlanRocket,
		Status:   model.StatusCompletado,
		Progress: 100,
		Phase:    "Proyecto entregado",
	},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Project{}, &model.OnboardingResponse{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	projectRepo := repository.NewProjectRepository(gormDB)
	ctx := context.Background()

	if err := seedAdmin(ctx, userRepo); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	created, skipped, err := seedClients(ctx, userRepo, projectRepo)
	if err != nil {
		log.Fatalf("Failed to seed clients: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Projects created: %d", created)
	log.Printf("  - Projects already present: %d", skipped)
	log.Printf("  - Admin login: %s / %s", adminEmail, adminPassword)
}

// seedAdmin ensures the default admin account exists with a usable password.
func seedAdmin(ctx context.Context, users repository.UserRepository) error {
	existing, err := users.FindByEmail(ctx, adminEmail)
	if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("error checking admin: %w", err)
	}
	if existing != nil {
		log.Println("Admin user already exists")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		Name:         "Administrador NovaLabs",
		Role:         model.RoleAdmin,
		PasswordHash: string(hash),
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("error creating admin: %w", err)
	}
	log.Println("Admin user created")
	return nil
}

// seedClients creates demo client accounts with one project each.
func seedClients(ctx context.Context, users repository.UserRepository, projects repository.ProjectRepository) (created int, skipped int, err error) {
	for _, demo := range demoClients {
		user, err := users.FindOrCreateByEmail(ctx, &model.User{
			Email:   demo.Email,
			Name:    demo.Name,
			Role:    model.RoleUser,
			Company: demo.Company,
		})
		if err != nil {
			return created, skipped, fmt.Errorf("error creating user %s: %w", demo.Email, err)
		}

		plan := billing.PlanForType(demo.Plan)
		project := &model.Project{
			Name:              "Sitio web de " + demo.Company,
			UserID:            user.ID,
			Status:            demo.Status,
			Progress:          demo.Progress,
			CurrentPhase:      demo.Phase,
			EstimatedDelivery: plan.EstimatedDelivery,
			Plan:              demo.Plan,
		}
		_, wasCreated, err := projects.CreateForPlanIfAbsent(ctx, project)
		if err != nil {
			return created, skipped, fmt.Errorf("error creating project for %s: %w", demo.Email, err)
		}
		if wasCreated {
			created++
		} else {
			skipped++
		}
	}

	return created, skipped, nil
}
