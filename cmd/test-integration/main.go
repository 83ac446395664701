package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/palma21/hotel-rating-fetcher/internal/completion"
	"github.com/palma21/hotel-rating-fetcher/internal/config"
	"github.com/palma21/hotel-rating-fetcher/internal/models"
	"github.com/palma21/hotel-rating-fetcher/internal/normalize"
	"github.com/palma21/hotel-rating-fetcher/internal/rating"
	"github.com/palma21/hotel-rating-fetcher/internal/scheduler"
	"github.com/palma21/hotel-rating-fetcher/internal/settings"
	"github.com/palma21/hotel-rating-fetcher/internal/storage"
)

// ConsoleNotification prints alerts instead of sending them
type ConsoleNotification struct{}

func (c *ConsoleNotification) SendAlert(alert *models.Alert) error {
	fmt.Printf("\n🚨 ALERT [%s] %s\n", alert.Type, alert.Title)
	fmt.Printf("   %s\n", alert.Message)
	return nil
}

func main() {
	hotel := flag.String("hotel", "Hotel Arts Barcelona", "hotel name to look up")
	city := flag.String("city", "", "city, optional")
	country := flag.String("country", "", "country, optional")
	exclude := flag.String("exclude", "", "comma separated sources to exclude")
	flag.Parse()

	fmt.Println("🧪 Hotel Rating Fetcher - Local Integration Test")
	fmt.Println("================================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.GeminiAPIKey == "" {
		fmt.Println("\n⚠️  GEMINI_API_KEY is not set, nothing to test")
		os.Exit(1)
	}

	// Lookups are logged to disk so they can be inspected afterwards
	cfg.StoreLookups = true
	store, err := storage.NewFileStorage("test_output")
	if err != nil {
		log.Fatalf("Failed to create test storage: %v", err)
	}

	client, err := completion.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to create completion client: %v", err)
	}
	service := rating.NewService(cfg, store, client, normalize.New())

	fmt.Println("\n🔑 Checking API key...")
	keyCheck := scheduler.NewService(cfg, service, settings.NewStore(storage.NewMemoryStorage()), &ConsoleNotification{})
	if err := keyCheck.RunKeyCheck(); err != nil {
		fmt.Printf("   ❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("   ✅ Key accepted")

	req := models.RequestSpec{HotelName: *hotel}
	if *city != "" {
		req.Location = &models.Location{City: *city, Country: *country}
	}
	for _, source := range strings.Split(*exclude, ",") {
		if source = strings.TrimSpace(source); source != "" {
			req.ExcludeSources = append(req.ExcludeSources, source)
		}
	}

	fmt.Printf("\n🔍 Looking up %q...\n", req.HotelName)
	fmt.Printf("⏱️  Up to %d candidates, %s each...\n\n", len(client.Candidates()), cfg.GeminiAttemptTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	result, err := service.FetchHotelRating(ctx, req, cfg.GeminiAPIKey)
	if err != nil {
		fmt.Printf("❌ Lookup failed: %v\n", err)
		os.Exit(1)
	}

	rating.WriteReport(os.Stdout, *result)
	fmt.Printf("\n⏱️  Took %s\n", time.Since(start).Round(time.Millisecond))

	if names, err := store.List("lookups/"); err == nil && len(names) > 0 {
		fmt.Printf("💾 %d lookup(s) logged under test_output/lookups/\n", len(names))
	}

	fmt.Println("\n✅ Local integration test completed!")
	fmt.Println("\n🚀 Next steps:")
	fmt.Println("   • Start the server with: go run ./cmd/server")
	fmt.Println("   • Check every model with: go run ./cmd/test-apis")
}
