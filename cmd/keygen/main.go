package main

import (
	"fmt"
	"os"

	"github.com/tjfontaine/opchain-gateway/internal/adapters/auth/apikey"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/keygen/main.go <api-key> [user-id] [op-auth...]")
		fmt.Println("Generates a SHA-256 hash of the provided API key for use in config.yaml")
		os.Exit(1)
	}

	apiKey := os.Args[1]
	keyHash := apikey.HashAPIKey(apiKey)

	userID := "my-user"
	if len(os.Args) > 2 {
		userID = os.Args[2]
	}

	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Printf("SHA-256 Hash: %s\n", keyHash)
	fmt.Println("\nAdd this to your config.yaml:")
	fmt.Printf("users:\n")
	fmt.Printf("  - id: %q\n", userID)
	fmt.Printf("    api_keys:\n")
	fmt.Printf("      - key_hash: \"%s\"\n", keyHash)
	fmt.Printf("        description: \"Generated key\"\n")
	if len(os.Args) > 3 {
		fmt.Printf("    op_auths:\n")
		for _, a := range os.Args[3:] {
			fmt.Printf("      - %q\n", a)
		}
	}
}
