// Command seed loads demo accounts and services into a migrated database.
// Run the server once first so the schema exists.
package main

import (
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"service-booking-server/utils"
)

type seedUser struct {
	FullName       string
	Phone          string
	Role           string
	ProviderStatus string
}

type seedService struct {
	ProviderPhone string
	Name          string
	Price         float64
	AvailableTime string
	AvailableDays string
}

const demoPassword = "password123"

var users = []seedUser{
	{FullName: "Site Admin", Phone: "9000000001", Role: "admin", ProviderStatus: "approved"},
	{FullName: "Asha Customer", Phone: "9000000002", Role: "customer", ProviderStatus: "pending"},
	{FullName: "Ravi Plumber", Phone: "9000000003", Role: "provider", ProviderStatus: "approved"},
	{FullName: "Meera Tutor", Phone: "9000000004", Role: "provider", ProviderStatus: "approved"},
	{FullName: "Kiran Cleaner", Phone: "9000000005", Role: "provider", ProviderStatus: "pending"},
}

var services = []seedService{
	{ProviderPhone: "9000000003", Name: "Pipe leak repair", Price: 499, AvailableTime: "09:00-18:00"},
	{ProviderPhone: "9000000003", Name: "Tap installation", Price: 299, AvailableTime: "10 AM to 6 PM", AvailableDays: "mon,tue,wed,thu,fri,sat"},
	{ProviderPhone: "9000000004", Name: "Maths tutoring (1 hour)", Price: 650, AvailableTime: "4 PM - 9 PM"},
	{ProviderPhone: "9000000005", Name: "Home deep cleaning", Price: 1999, AvailableTime: "08:00-14:00"},
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}
	log.Println("Connected to database")

	hash, err := utils.HashPassword(demoPassword)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	ids := make(map[string]int64, len(users))
	for _, u := range users {
		id, err := upsertUser(db, u, hash)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", u.Phone, err)
		}
		ids[u.Phone] = id
	}
	log.Printf("Seeded %d users (password %q)", len(users), demoPassword)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM services").Scan(&count); err != nil {
		log.Fatal("Failed to count services:", err)
	}
	if count > 0 {
		log.Printf("Services already exist (%d found), skipping", count)
		return
	}

	now := time.Now().UTC()
	for _, s := range services {
		_, err := db.Exec(`INSERT INTO services (provider_id, name, price, available_time, available_days, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			ids[s.ProviderPhone], s.Name, s.Price, s.AvailableTime, s.AvailableDays, now)
		if err != nil {
			log.Fatalf("Failed to insert service %q: %v", s.Name, err)
		}
	}
	log.Printf("Seeded %d services", len(services))
}

// upsertUser inserts u unless its phone number is taken and returns the id.
func upsertUser(db *sql.DB, u seedUser, hash string) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := db.QueryRow(`INSERT INTO users (full_name, phone_number, password_hash, role, is_active, provider_status, session_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, 0, $6, $6)
		ON CONFLICT (phone_number) DO NOTHING
		RETURNING id`,
		u.FullName, u.Phone, hash, u.Role, u.ProviderStatus, now).Scan(&id)
	if err == sql.ErrNoRows {
		err = db.QueryRow("SELECT id FROM users WHERE phone_number = $1", u.Phone).Scan(&id)
	}
	return id, err
}
