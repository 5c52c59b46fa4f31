package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chairtime/chairtime/internal/db"
	"github.com/chairtime/chairtime/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedSalons(context.Background(), pool, 25); err != nil {
		log.Fatalf("seed salons: %v", err)
	}

	log.Println("seed complete")
}

var serviceCatalog = []struct {
	name    string
	minutes int
	cents   int64
}{
	{"Haircut", 30, 3500},
	{"Beard Trim", 15, 1500},
	{"Hot Towel Shave", 30, 2500},
	{"Hair Coloring", 90, 8000},
	{"Blowout", 45, 4000},
	{"Kids Cut", 20, 2000},
	{"Highlights", 120, 12000},
	{"Deep Conditioning", 30, 3000},
}

func defaultHours() schedule.WorkingHours {
	hours := schedule.WorkingHours{}
	for _, day := range []schedule.Weekday{
		schedule.Monday, schedule.Tuesday, schedule.Wednesday,
		schedule.Thursday, schedule.Friday,
	} {
		hours[day] = schedule.DaySchedule{Open: true, From: "09:00", To: "18:00"}
	}
	hours[schedule.Saturday] = schedule.DaySchedule{Open: true, From: "10:00", To: "16:00"}
	hours[schedule.Sunday] = schedule.DaySchedule{Open: false, From: "09:00", To: "18:00"}
	return hours
}

func seedSalons(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d salons", count)

	rawHours, err := defaultHours().Marshal()
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		salonID := uuid.New()
		name := gofakeit.Company() + " Salon"
		slug := fmt.Sprintf("%s-%d", slugify(name), gofakeit.Number(100, 999))

		_, err = tx.Exec(ctx, `
			INSERT INTO salons (id, slug, name, email, plan, working_hours, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'free', $5, now(), now())
		`, salonID, slug, name, gofakeit.Email(), rawHours)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}

		nServices := gofakeit.Number(3, len(serviceCatalog))
		for _, svc := range serviceCatalog[:nServices] {
			_, err = tx.Exec(ctx, `
				INSERT INTO services (id, salon_id, name, duration_minutes, price_cents, active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, true, now(), now())
			`, uuid.New(), salonID, svc.name, svc.minutes, svc.cents)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		nProfessionals := gofakeit.Number(1, 5)
		for j := 0; j < nProfessionals; j++ {
			// Roughly one in three staff members keeps their own hours.
			var profHours []byte
			if gofakeit.Number(0, 2) == 0 {
				own := defaultHours()
				own[schedule.Monday] = schedule.DaySchedule{Open: false, From: "09:00", To: "18:00"}
				own[schedule.Saturday] = schedule.DaySchedule{Open: true, From: "09:00", To: "14:00"}
				profHours, err = own.Marshal()
				if err != nil {
					_ = tx.Rollback(ctx)
					return err
				}
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO professionals (id, salon_id, name, working_hours, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, uuid.New(), salonID, gofakeit.Name(), profHours)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Println("salons seeded")
	return nil
}

func slugify(name string) string {
	s := strings.ToLower(name)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
