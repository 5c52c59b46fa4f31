package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chairtime/chairtime/internal/config"
	"github.com/chairtime/chairtime/internal/db"
)

// The simulator fires many concurrent booking requests at a running API,
// deliberately piling several workers onto the same slot, and then verifies
// against the database that no slot ended up double booked.

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	Contention  int // how many workers aim at the same slot
	SalonLimit  int
	PostgresDSN string
	TargetDate  time.Time
}

type target struct {
	SalonID   uuid.UUID
	ServiceID uuid.UUID
	Slot      time.Time
}

type DataPool struct {
	Targets []target
}

func (dp *DataPool) Random() target {
	return dp.Targets[rand.Intn(len(dp.Targets))]
}

type OperationMetrics struct {
	Total     int64
	Created   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&om.Created, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadSimConfig()

	log.Printf("config: duration=%s workers=%d contention=%d base_url=%s",
		cfg.Duration, cfg.Workers, cfg.Contention, cfg.APIBaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	pool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded %d booking targets", len(pool.Targets))

	metrics := &OperationMetrics{}
	client := &http.Client{Timeout: 10 * time.Second}

	runCtx, stopRun := context.WithTimeout(context.Background(), cfg.Duration)
	defer stopRun()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		// Workers in the same contention group hammer the same slot.
		tgt := pool.Targets[(i/cfg.Contention)%len(pool.Targets)]
		go func(tgt target) {
			defer wg.Done()
			worker(runCtx, client, cfg.APIBaseURL, tgt, metrics)
		}(tgt)
	}
	wg.Wait()

	printReport(metrics)

	doubles, err := countDoubleBookings(context.Background(), pgPool)
	if err != nil {
		log.Fatalf("verify double bookings: %v", err)
	}
	if doubles > 0 {
		log.Fatalf("FAIL: %d double-booked slots found", doubles)
	}
	log.Println("OK: no double-booked slots")
}

func worker(ctx context.Context, client *http.Client, baseURL string, tgt target, metrics *OperationMetrics) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload := map[string]string{
			"salon_id":         tgt.SalonID.String(),
			"service_id":       tgt.ServiceID.String(),
			"professional_id":  "any",
			"appointment_date": tgt.Slot.Format(time.RFC3339),
			"customer_name":    gofakeit.Name(),
			"customer_phone":   gofakeit.Phone(),
		}
		body, _ := json.Marshal(payload)

		start := time.Now()
		resp, err := client.Post(baseURL+"/bookings", "application/json", bytes.NewReader(body))
		latency := time.Since(start)
		if err != nil {
			metrics.Record(latency, 0)
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		metrics.Record(latency, resp.StatusCode)
	}
}

func printReport(metrics *OperationMetrics) {
	avg, min, max, p95 := metrics.Stats()
	fmt.Println("=== booking simulation report ===")
	fmt.Printf("total=%d created=%d conflict=%d error=%d\n",
		atomic.LoadInt64(&metrics.Total),
		atomic.LoadInt64(&metrics.Created),
		atomic.LoadInt64(&metrics.Conflict),
		atomic.LoadInt64(&metrics.Error),
	)
	fmt.Printf("latency avg=%s min=%s max=%s p95=%s\n", avg, min, max, p95)
}

func loadSimConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	tomorrow := time.Now().AddDate(0, 0, 1)

	cfg := SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 20),
		Contention:  getInt("SIM_CONTENTION", 5),
		SalonLimit:  getInt("SIM_SALON_LIMIT", 10),
		PostgresDSN: baseCfg.PostgresDSN,
		TargetDate:  time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.Local),
	}

	if cfg.Workers <= 0 {
		log.Fatal("SIM_WORKERS must be > 0")
	}
	if cfg.Contention <= 0 {
		cfg.Contention = 1
	}

	return cfg
}

// loadDataPool picks salons with at least one active service and builds one
// bookable slot target per salon on the simulation date.
func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	rows, err := pool.Query(ctx, `
		SELECT DISTINCT ON (s.id) s.id, sv.id
		FROM salons s
		JOIN services sv ON sv.salon_id = s.id AND sv.active
		LIMIT $1
	`, cfg.SalonLimit)
	if err != nil {
		return nil, fmt.Errorf("load salons: %w", err)
	}
	defer rows.Close()

	dataPool := &DataPool{}
	hour := 9
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.SalonID, &t.ServiceID); err != nil {
			return nil, err
		}
		// Spread targets over the morning so contention groups stay disjoint.
		t.Slot = cfg.TargetDate.Add(time.Duration(hour) * time.Hour)
		hour = 9 + (hour-8)%8
		dataPool.Targets = append(dataPool.Targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dataPool.Targets) == 0 {
		return nil, fmt.Errorf("no seeded salons with services found, run cmd/seed first")
	}

	return dataPool, nil
}

func countDoubleBookings(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM (
			SELECT salon_id, professional_id, start_time
			FROM appointments
			WHERE status <> 'cancelled'
			GROUP BY salon_id, professional_id, start_time
			HAVING COUNT(*) > 1
		) doubles
	`).Scan(&count)
	return count, err
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
