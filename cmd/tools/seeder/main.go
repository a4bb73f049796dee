package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/prayas-foundation/prayas-api/internal/fees"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(db)
	seedSchools(db)
	seedCulture(db)
	seedBooks(db)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	log.Println("Seeding Users...")
	users := []struct {
		Name     string
		Email    string
		Password string
		Role     string
	}{
		{"Platform Admin", "admin@prayas.org", envOr("SEED_ADMIN_PASSWORD", "admin12345"), "admin"},
		{"Gyan Vidya Office", "office@gyanvidya.example", "password123", "school_admin"},
		{"Sanskriti Desk", "culture@prayas.example", "password123", "culture_admin"},
		{"Ramesh Kumar", "ramesh@example.com", "password123", "user"},
		{"Sunita Devi", "sunita@example.com", "password123", "user"},
	}

	for _, u := range users {
		hash, err := argon2id.CreateHash(u.Password, argon2id.DefaultParams)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", u.Email, err)
		}
		_, err = db.Exec(`
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO NOTHING`,
			u.Name, u.Email, hash, u.Role)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

func seedSchools(db *sql.DB) {
	log.Println("Seeding Schools...")
	schools := []struct {
		Name    string
		Slug    string
		Address string
	}{
		{"Gyan Vidya Mandir", "gyan-vidya-mandir", "Gorakhpur, Uttar Pradesh"},
		{"Saraswati Shishu Niketan", "saraswati-shishu-niketan", "Kushinagar, Uttar Pradesh"},
		{"Prayas Bal Vidyalaya", "prayas-bal-vidyalaya", "Deoria, Uttar Pradesh"},
	}
	for _, s := range schools {
		var schoolID int64
		err := db.QueryRow(`
			INSERT INTO schools (name, slug, address, surcharge_bps, surcharge_flat)
			VALUES ($1, $2, $3, 250, 500)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`,
			s.Name, s.Slug, s.Address).Scan(&schoolID)
		if err != nil {
			log.Printf("Failed to seed school %s: %v", s.Name, err)
			continue
		}
		seedFeeStructures(db, schoolID)
	}
}

func seedFeeStructures(db *sql.DB, schoolID int64) {
	rows := []struct {
		Class        string
		FeeType      string
		SchoolAmount int64
		Installments int32
	}{
		{"Class 1", "monthly", 40000, 1},
		{"Class 1", "renewal", 150000, 1},
		{"Class 5", "monthly", 60000, 1},
		{"Class 5", "renewal", 200000, 2},
		{"Class 8", "monthly", 80000, 1},
	}
	for _, f := range rows {
		// 2.5% plus a flat 500 paise, mirroring the school defaults above
		quote, err := fees.Calculate(f.SchoolAmount, 250, 500, f.Installments)
		if err != nil {
			log.Fatalf("Failed to quote fee structure %s/%s: %v", f.Class, f.FeeType, err)
		}
		_, err = db.Exec(`
			INSERT INTO fee_structures (school_id, class_name, fee_type, school_amount,
			                            surcharge_bps, surcharge_fixed, student_pays,
			                            installments, academic_year)
			SELECT $1, $2, $3, $4, 250, 500, $5, $6, '2026-27'
			WHERE NOT EXISTS (
				SELECT 1 FROM fee_structures
				WHERE school_id = $1 AND class_name = $2 AND fee_type = $3::fee_type AND active
			)`,
			schoolID, f.Class, f.FeeType, f.SchoolAmount, quote.StudentPays, f.Installments)
		if err != nil {
			log.Printf("Failed to seed fee structure %s/%s: %v", f.Class, f.FeeType, err)
		}
	}
}

func seedCulture(db *sql.DB) {
	log.Println("Seeding Culture Programs...")
	categories := []struct {
		Name string
		Slug string
	}{
		{"Lok Sangeet", "lok-sangeet"},
		{"Natya Manch", "natya-manch"},
		{"Sahitya Goshthi", "sahitya-goshthi"},
	}
	for _, c := range categories {
		var categoryID int64
		err := db.QueryRow(`
			INSERT INTO culture_categories (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`,
			c.Name, c.Slug).Scan(&categoryID)
		if err != nil {
			log.Printf("Failed to seed category %s: %v", c.Name, err)
			continue
		}
		_, err = db.Exec(`
			INSERT INTO culture_programs (category_id, title, description, venue)
			SELECT $1, $2, $3, $4
			WHERE NOT EXISTS (
				SELECT 1 FROM culture_programs WHERE category_id = $1 AND title = $2
			)`,
			categoryID, c.Name+" Utsav", "Annual community gathering", "Prayas Bhavan")
		if err != nil {
			log.Printf("Failed to seed program for %s: %v", c.Name, err)
		}
	}
}

func seedBooks(db *sql.DB) {
	log.Println("Seeding Books...")
	books := []struct {
		Title  string
		Author string
		Genre  string
		Price  int64
		Stock  int32
	}{
		{"Godan", "Munshi Premchand", "fiction", 25000, 40},
		{"Gaban", "Munshi Premchand", "fiction", 22000, 35},
		{"Madhushala", "Harivansh Rai Bachchan", "poetry", 18000, 50},
		{"Raag Darbari", "Shrilal Shukla", "satire", 30000, 25},
		{"Gunahon Ka Devta", "Dharamvir Bharati", "fiction", 27500, 30},
		{"Kamayani", "Jaishankar Prasad", "poetry", 20000, 20},
	}
	for _, b := range books {
		_, err := db.Exec(`
			INSERT INTO books (title, author, genre, price, stock, stock_threshold)
			SELECT $1, $2, $3, $4, $5, 5
			WHERE NOT EXISTS (
				SELECT 1 FROM books WHERE title = $1 AND author = $2
			)`,
			b.Title, b.Author, b.Genre, b.Price, b.Stock)
		if err != nil {
			log.Printf("Failed to seed book %s: %v", b.Title, err)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
