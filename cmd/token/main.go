// Command token mints development access tokens.  The signing secret is
// read the same way the server reads it (JWT_SECRET, .env honoured).
//
//	token -address 0xabc... -role AIRLINE -ttl 120
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/iliyamo/flight-surety/internal/middleware"
	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/utils"
)

func main() {
	address := flag.String("address", "", "0x-prefixed identity to put in the sub claim")
	role := flag.String("role", middleware.RolePassenger, "OWNER, AIRLINE, PASSENGER or ORACLE")
	ttl := flag.Int("ttl", 60, "lifetime in minutes")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("token: .env not loaded: %v", err)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("token: JWT_SECRET is not set")
	}

	addr, err := model.ParseAddress(*address)
	if err != nil {
		log.Fatalf("token: -address: %v", err)
	}
	r := strings.ToUpper(*role)
	switch r {
	case middleware.RoleOwner, middleware.RoleAirline, middleware.RolePassenger, middleware.RoleOracle:
	default:
		log.Fatalf("token: unknown role %q", *role)
	}

	tok, err := utils.NewAccessToken(secret, addr, r, *ttl)
	if err != nil {
		log.Fatalf("token: %v", err)
	}
	fmt.Println(tok.Token)
}
