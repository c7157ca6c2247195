// Seed creates a development staff user, a sample event, and a handful of
// attendees so the scan flow can be exercised locally.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"conf-backend/internal/config"
	"conf-backend/internal/database"
	"conf-backend/internal/db"
	"conf-backend/internal/models"
	"conf-backend/internal/repositories"
	"conf-backend/internal/services"
	"conf-backend/migrations"
)

func main() {
	adminEmail := flag.String("admin-email", "admin@example.com", "Admin user email")
	adminPassword := flag.String("admin-password", "changeme", "Admin user password")
	flag.Parse()

	cfg := config.Load()
	pool := db.Connect(cfg)
	defer pool.Close()

	ctx := context.Background()

	migrator := database.NewMigrator(pool, migrations.FS)
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	staffRepo := repositories.NewStaffUserRepository(pool)
	eventRepo := repositories.NewEventRepository(pool)
	attendeeRepo := repositories.NewAttendeeRepository(pool)
	attendeeService := services.NewAttendeeService(attendeeRepo, eventRepo)

	existing, err := staffRepo.GetByEmail(ctx, *adminEmail)
	if err != nil {
		log.Fatalf("Failed to look up admin user: %v", err)
	}
	if existing == nil {
		hash, err := services.HashPassword(*adminPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		admin := &models.StaffUser{
			Email:        *adminEmail,
			PasswordHash: hash,
			Name:         "Admin",
			Role:         "SUPER_ADMIN",
		}
		if err := staffRepo.Create(ctx, admin); err != nil {
			log.Fatalf("Failed to create admin user: %v", err)
		}
		log.Printf("Created admin user %s", admin.Email)
	} else {
		log.Printf("Admin user %s already exists", *adminEmail)
	}

	event := &models.Event{
		Name:     "Annual Conference",
		StartsAt: time.Now(),
		EndsAt:   time.Now().Add(3 * 24 * time.Hour),
	}
	if err := eventRepo.Create(ctx, event); err != nil {
		log.Fatalf("Failed to create event: %v", err)
	}
	log.Printf("Created event %q (id %d)", event.Name, event.ID)

	samples := []models.CreateAttendeeRequest{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Org: "Analytical Engines", RegistrationType: "speaker", MealAllowance: 6},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Org: "Navy", RegistrationType: "delegate", MealAllowance: 3},
		{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Org: "NPL", RegistrationType: "delegate", MealAllowance: 3},
	}
	for i := range samples {
		samples[i].EventID = &event.ID
		attendee, err := attendeeService.Create(ctx, &samples[i])
		if err != nil {
			log.Fatalf("Failed to create attendee: %v", err)
		}
		log.Printf("Created attendee %s %s (%s)", attendee.FirstName, attendee.LastName, attendee.BadgeID)
	}

	log.Println("Seed complete")
}
