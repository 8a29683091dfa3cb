package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"log"
	"time"

	"cloud.google.com/go/civil"

	"classledger/backend/internal/attendance"
	"classledger/backend/internal/grading"
	"classledger/backend/internal/recordstore"
	"classledger/backend/internal/roster"
	"classledger/backend/internal/shared"
)

//go:embed demo_roster.json
var demoRoster []byte

// demoCriteria are added to every section's grading schema with -demo
var demoCriteria = []grading.Criterion{
	{Assessment: "Quiz 1", Weightage: "20", TotalMarks: "10"},
	{Assessment: "Midterm", Weightage: "30", TotalMarks: "50"},
	{Assessment: "Final", Weightage: "50", TotalMarks: "100"},
}

func main() {
	fixturePath := flag.String("fixture", "", "roster fixture to seed (defaults to ROSTER_FILE, then the built-in demo roster)")
	reset := flag.Bool("reset", false, "drop the MongoDB database before seeding")
	demo := flag.Bool("demo", false, "also seed a week of attendance and a grading schema per section")
	flag.Parse()

	log.Println("Starting Record Store Seeder...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadServiceConfig("seeder")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := shared.ValidateServiceConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.StoreDriver == shared.DriverMemory {
		log.Fatalf("The memory driver keeps nothing between runs; pick mongo, firestore or redis")
	}

	fixture, err := loadFixture(*fixturePath, cfg.RosterFile)
	if err != nil {
		log.Fatalf("Failed to load roster fixture: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := recordstore.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s record store: %v", cfg.StoreDriver, err)
	}
	defer conn.Close()

	if *reset {
		if conn.Mongo == nil {
			log.Fatalf("-reset is only supported for the mongo driver")
		}
		if err := conn.Mongo.Drop(ctx); err != nil {
			log.Fatalf("Failed to drop database: %v", err)
		}
		log.Println("Database cleared successfully.")
	}

	// --- 1. Seed Roster ---
	seedRoster(ctx, conn.Store, fixture)

	// --- 2. Seed Attendance and Grading ---
	if *demo {
		directory := roster.NewMemoryDirectory(fixture)
		for _, section := range fixture.Sections {
			students, err := directory.Enrolled(ctx, section.ID)
			if err != nil {
				log.Fatalf("Error resolving roster of %s: %v", section.ID, err)
			}
			seedAttendance(ctx, conn.Store, section.ID, students)
			seedGrading(ctx, conn.Store, section.ID, students)
		}
	}

	log.Println("All data seeding completed successfully.")
}

func loadFixture(flagPath, envPath string) (*roster.Fixture, error) {
	for _, path := range []string{flagPath, envPath} {
		if path != "" {
			log.Printf("Using roster fixture %s", path)
			return roster.LoadFixture(path)
		}
	}

	log.Println("Using built-in demo roster")
	var f roster.Fixture
	if err := json.Unmarshal(demoRoster, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

func seedRoster(ctx context.Context, store recordstore.Store, fixture *roster.Fixture) {
	log.Println("--- Seeding Roster ---")

	for collection, docs := range fixture.Documents() {
		for id, doc := range docs {
			if err := store.Set(ctx, collection, id, doc); err != nil {
				log.Fatalf("Error seeding %s/%s: %v", collection, id, err)
			}
		}
		log.Printf("Seeded %d %s", len(docs), collection)
	}
}

// seedAttendance records the last five weekdays. Every third student misses
// the middle day.
func seedAttendance(ctx context.Context, store recordstore.Store, sectionID string, students []shared.Student) {
	svc := attendance.NewService(store)

	day := civil.DateOf(time.Now())
	var days []civil.Date
	for len(days) < 5 {
		day = day.AddDays(-1)
		if wd := day.In(time.UTC).Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, day)
		}
	}

	for i, d := range days {
		presence := make(map[string]bool, len(students))
		for j, st := range students {
			presence[st.ID] = !(i == 2 && j%3 == 0)
		}
		if _, err := svc.Save(ctx, sectionID, d, presence); err != nil {
			log.Fatalf("Error seeding attendance for %s on %s: %v", sectionID, d, err)
		}
	}
	log.Printf("Seeded %d attendance days for %s", len(days), sectionID)
}

// seedGrading defines demoCriteria and marks every student on the quiz
func seedGrading(ctx context.Context, store recordstore.Store, sectionID string, students []shared.Student) {
	svc := grading.NewService(store)

	schema, err := svc.Load(ctx, sectionID, students)
	if err != nil {
		log.Fatalf("Error loading grading schema for %s: %v", sectionID, err)
	}
	for _, c := range demoCriteria {
		if _, exists := schema.Criterion(c.Assessment); exists {
			continue
		}
		if err := schema.AddCriterion(c.Assessment, c.Weightage.String(), c.TotalMarks.String()); err != nil {
			log.Fatalf("Error adding criterion %s: %v", c.Assessment, err)
		}
	}
	for i, st := range students {
		if err := schema.SetMark(st.ID, "Quiz 1", 6+i%5); err != nil {
			log.Fatalf("Error seeding mark for %s: %v", st.ID, err)
		}
	}

	if err := svc.Save(ctx, schema); err != nil {
		log.Fatalf("Error saving grading schema for %s: %v", sectionID, err)
	}
	log.Printf("Seeded grading schema for %s (%d criteria)", sectionID, len(schema.Criteria()))
}
