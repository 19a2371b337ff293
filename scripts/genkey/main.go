package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+-=[]{}|;:,.<>?"

// genkey prints candidate SECRET_KEY values for the .env file.
func main() {
	length := flag.Int("length", 64, "key length in characters (minimum 32)")
	count := flag.Int("n", 3, "number of keys to print")
	flag.Parse()

	if *length < 32 {
		log.Fatalf("length must be at least 32, got %d", *length)
	}
	for i := 0; i < *count; i++ {
		key, err := generateKey(*length)
		if err != nil {
			log.Fatalf("generate key: %v", err)
		}
		fmt.Printf("SECRET_KEY=%s\n", key)
	}
}

func generateKey(length int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
