package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"pgdeck/internal/security"
)

func main() {
	if len(os.Args) < 5 {
		fmt.Println("Usage: go run ./scripts/sign_request <secret> <method> <path> <body>")
		fmt.Println(`Example: go run ./scripts/sign_request devsecret POST /invoke/pg_query '{"connectionString":"postgres://localhost/app","query":"SELECT 1"}'`)
		return
	}

	secret := os.Args[1]
	method := os.Args[2]
	path := os.Args[3]
	body := os.Args[4]
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	fmt.Printf("X-Timestamp: %s\n", timestamp)
	fmt.Printf("X-Signature: %s\n", security.Sign(secret, method, path, body, timestamp))
}
