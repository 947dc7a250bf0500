package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/pkg/jwt"
)

func main() {
	privateKeyPath := flag.String("key", "./keys/private.pem", "Path to JWT private key")
	publicKeyPath := flag.String("pub", "./keys/public.pem", "Path to JWT public key (written by -generate)")
	address := flag.String("address", "", "Caller address (0x...) the token speaks for")
	role := flag.String("role", "", "Optional role claim; \"admin\" acts as the registry owner when minting")
	issuer := flag.String("issuer", "blockquest", "JWT issuer")
	expMins := flag.Int("exp", 60*24, "Token expiration in minutes (default: 1 day)")
	generate := flag.Bool("generate", false, "Generate a new key pair at -key/-pub and exit")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *generate {
		if err := os.MkdirAll(filepath.Dir(*privateKeyPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating key directory: %v\n", err)
			os.Exit(1)
		}
		if err := jwt.GenerateKeyPair(*privateKeyPath, *publicKeyPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s and %s\n", *privateKeyPath, *publicKeyPath)
		return
	}

	caller, err := model.ParseAddress(*address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -address: %v\n", err)
		os.Exit(2)
	}

	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: *privateKeyPath,
		Issuer:         *issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nGenerate keys first with: caller-token -generate\n")
		os.Exit(1)
	}

	token, err := jwtService.Sign(caller.String(), *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"address":      caller,
			"role":         *role,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	expTime := time.Now().Add(time.Duration(*expMins) * time.Minute)
	fmt.Println("Caller Token Generated")
	fmt.Println("======================")
	fmt.Printf("Address:  %s\n", caller)
	if *role != "" {
		fmt.Printf("Role:     %s\n", *role)
	}
	fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' -d '{\"first_name\":\"Frodo\"}' http://localhost:8080/v1/players\n", token[:50]+"...")
}
