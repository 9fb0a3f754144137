package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
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
	seedToys(db)
	seedBlog(db)
	seedGallery(db)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	users := []struct {
		Name     string
		Email    string
		Password string
		Role     string
	}{
		{"Admin", "admin@toyloft.co.uk", "admin123!", "admin"},
		{"Harriet Cole", "harriet@example.com", "password123", "customer"},
		{"Owen Price", "owen@example.com", "password123", "customer"},
		{"Maya Banerjee", "maya@example.com", "password123", "customer"},
		{"Tom Whitfield", "tom@example.com", "password123", "customer"},
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		hash, err := argon2id.CreateHash(u.Password, argon2id.DefaultParams)
		if err != nil {
			log.Printf("Failed to hash password for %s: %v", u.Email, err)
			continue
		}
		_, err = db.Exec(`
			INSERT INTO users (name, email, password_hash, roles)
			VALUES ($1, $2, $3, ARRAY[$4])
			ON CONFLICT (email) DO NOTHING;
		`, u.Name, u.Email, hash, u.Role)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

func seedToys(db *sql.DB) {
	toys := []struct {
		Name        string
		Description string
		Category    string
		Price       int64 // minor units
		RentalPrice int64 // per day, minor units
		Stock       int
		RentalStock int
		RentalOnly  bool
		SaleOnly    bool
		Image       string
	}{
		{"Wooden Train Set", "48-piece beechwood railway with bridge and tunnel", "wooden", 4500, 150, 12, 4, false, false, "https://images.unsplash.com/photo-1596461404969-9ae70f2830c1?w=800"},
		{"Balance Bike", "Lightweight aluminium balance bike for ages 2-5", "outdoor", 8900, 400, 6, 3, false, false, "https://images.unsplash.com/photo-1532330393533-443990a51d10?w=800"},
		{"Giant Building Blocks", "60 oversized foam blocks in a storage tote", "construction", 5600, 250, 8, 5, false, false, "https://images.unsplash.com/photo-1587654780291-39c9404d746b?w=800"},
		{"Marble Run Deluxe", "110-piece marble run with spiral funnels", "construction", 3900, 120, 15, 0, false, true, "https://images.unsplash.com/photo-1515488042361-ee00e0ddd4e4?w=800"},
		{"Play Kitchen", "Wooden play kitchen with clicking knobs and oven", "pretend-play", 12900, 600, 3, 2, false, false, "https://images.unsplash.com/photo-1566576912321-d58ddd7a6088?w=800"},
		{"Bouncy Castle", "3m inflatable castle with blower, garden use only", "outdoor", 0, 2500, 0, 2, true, false, "https://images.unsplash.com/photo-1560184897-ae75f418493e?w=800"},
		{"Puzzle Globe", "180-piece 3D world globe puzzle", "puzzles", 2400, 0, 20, 0, false, true, "https://images.unsplash.com/photo-1503676260728-1c00da094a0b?w=800"},
		{"Ride-On Tractor", "Pedal tractor with detachable trailer", "outdoor", 15900, 800, 2, 2, false, false, "https://images.unsplash.com/photo-1500937386664-56d1dfef3854?w=800"},
	}

	fmt.Println("Seeding Toys...")
	for _, t := range toys {
		_, err := db.Exec(`
			INSERT INTO toys (name, description, category, price, rental_price, stock, rental_stock, rental_only, sale_only, image_url)
			SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
			WHERE NOT EXISTS (SELECT 1 FROM toys WHERE name = $1);
		`, t.Name, t.Description, t.Category, t.Price, t.RentalPrice, t.Stock, t.RentalStock, t.RentalOnly, t.SaleOnly, t.Image)
		if err != nil {
			log.Printf("Failed to seed toy %s: %v", t.Name, err)
		}
	}
}

func seedBlog(db *sql.DB) {
	posts := []struct {
		Slug      string
		Title     string
		Body      string
		Published bool
	}{
		{"why-rent-toys", "Why Rent Toys Instead of Buying?", "Children outgrow toys faster than they wear them out. Renting keeps playrooms fresh and cuts down on landfill.", true},
		{"cleaning-process", "How We Clean Every Returned Toy", "Every toy that comes back goes through a three-stage clean before it reaches the next family.", true},
		{"autumn-range", "Sneak Peek: The Autumn Range", "A first look at what is arriving in September.", false},
	}

	fmt.Println("Seeding Blog Posts...")
	for _, p := range posts {
		_, err := db.Exec(`
			INSERT INTO blog_posts (slug, title, body, published)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title, body = EXCLUDED.body;
		`, p.Slug, p.Title, p.Body, p.Published)
		if err != nil {
			log.Printf("Failed to seed post %s: %v", p.Slug, err)
		}
	}
}

func seedGallery(db *sql.DB) {
	images := []struct {
		URL      string
		Caption  string
		Position int
	}{
		{"https://images.unsplash.com/photo-1566140967404-b8b3932483f5?w=1200", "The showroom in Bristol", 0},
		{"https://images.unsplash.com/photo-1558060370-d644479cb6f7?w=1200", "Wooden toys ready for dispatch", 1},
		{"https://images.unsplash.com/photo-1515192088926-be5856b65a04?w=1200", "Rental returns cleaning station", 2},
	}

	fmt.Println("Seeding Gallery...")
	for _, img := range images {
		_, err := db.Exec(`
			INSERT INTO gallery_images (url, caption, position)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM gallery_images WHERE url = $1);
		`, img.URL, img.Caption, img.Position)
		if err != nil {
			log.Printf("Failed to seed gallery image %d: %v", img.Position, err)
		}
	}
}
