// Command hashpin prints the bcrypt hash of a member PIN for the
// pin_hash field of the catalog file.
//
//	hashpin 2468
//	echo 2468 | hashpin
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/studio-slot-reservation/internal/utils"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	pin, err := readPIN(flag.Args())
	if err != nil {
		log.Fatal(err)
	}
	hash, err := utils.HashPassword(pin, *cost)
	if err != nil {
		log.Fatalf("hash pin: %v", err)
	}
	fmt.Println(hash)
}

func readPIN(args []string) (string, error) {
	if len(args) > 0 {
		return validPIN(args[0])
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read pin from stdin: %w", err)
	}
	return validPIN(line)
}

func validPIN(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty pin")
	}
	return s, nil
}
