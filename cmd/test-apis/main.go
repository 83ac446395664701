package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/palma21/hotel-rating-fetcher/internal/completion"
	"github.com/palma21/hotel-rating-fetcher/internal/config"
	"github.com/palma21/hotel-rating-fetcher/internal/settings"
	"github.com/palma21/hotel-rating-fetcher/internal/storage"
)

func main() {
	fmt.Println("🔍 Hotel Rating Fetcher - Gemini Connectivity Test")
	fmt.Println("==================================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, err := completion.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to create completion client: %v", err)
	}

	apiKey, origin := resolveKey(cfg)
	if apiKey == "" {
		fmt.Println("\n⚠️  No API key found")
		fmt.Println("   • Set GEMINI_API_KEY in .env, or save one through PUT /settings/api-key")
		return
	}
	fmt.Printf("\n🔑 Using API key from %s (%s)\n", origin, settings.MaskKey(apiKey))

	fmt.Println("\n📡 Testing model candidates in fallback order...")
	fmt.Println(strings.Repeat("-", 50))

	working := 0
	for i, candidate := range client.Candidates() {
		if testCandidate(client, i+1, candidate, apiKey, cfg.GeminiAttemptTimeout) {
			working++
		}
	}

	fmt.Printf("\n📊 %d of %d candidates answered\n", working, len(client.Candidates()))
	if working == 0 {
		fmt.Println("\n❌ No candidate accepted the key. Rating lookups will fail.")
		fmt.Println("\n💡 Next steps:")
		fmt.Println("   • Check the key at https://aistudio.google.com/app/apikey")
		fmt.Println("   • Adjust GEMINI_CANDIDATES to models your key can use")
		return
	}

	fmt.Println("\n✅ Connectivity test completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Run the server with: go run ./cmd/server")
	fmt.Println("   • Try a lookup with: go run ./cmd/test-integration -hotel \"Hotel Arts Barcelona\"")
}

// resolveKey prefers the key saved through /settings over GEMINI_API_KEY,
// the same order the server uses.
func resolveKey(cfg *config.Config) (string, string) {
	store, err := storage.New(cfg)
	if err == nil {
		if saved, err := settings.NewStore(store).Get(); err == nil && saved.APIKey != "" {
			return saved.APIKey, "saved settings"
		}
	}
	return cfg.GeminiAPIKey, "GEMINI_API_KEY"
}

func testCandidate(client *completion.Client, position int, candidate completion.Candidate, apiKey string, timeout time.Duration) bool {
	fmt.Printf("🔸 %d. Testing %s... ", position, candidate)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	text, err := client.ProbeCandidate(ctx, candidate, apiKey)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return false
	}

	fmt.Printf("✅ SUCCESS (%s)\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("   📝 Reply: %q\n", strings.TrimSpace(text))
	return true
}
