// Command token mints bearer tokens for API clients using API_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/octobees/leads-extractor/internal/auth"
)

func main() {
	subject := flag.String("client", "", "client identifier stored in the token subject")
	scope := flag.String("scope", auth.DefaultScope, "token scope")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		log.Fatal("-client is required")
	}

	manager := auth.NewJWTManager(os.Getenv("API_JWT_SECRET"), *ttl)
	token, err := manager.GenerateToken(*subject, *scope)
	if err != nil {
		log.Fatalf("failed to mint token: %v", err)
	}
	fmt.Println(token)
}
