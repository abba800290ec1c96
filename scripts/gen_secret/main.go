package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

func main() {
	// 32 bytes of secure random data (256 bits)
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	secret := hex.EncodeToString(bytes)

	fmt.Println("=== New Request Signing Secret ===")
	fmt.Println(secret)
	fmt.Println("==================================")
	fmt.Println("1. Set it on the server: PGDECK_API_SECRET=" + secret)
	fmt.Println("2. Give the same value to every client that signs requests.")
	fmt.Println("3. Clients send X-Timestamp and X-Signature (see scripts/sign_request).")
}
