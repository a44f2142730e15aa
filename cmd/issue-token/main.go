// issue-token mints a bearer token for a staff member.
//
// Usage:
//
//	API_SECRET=... TOKEN_HOUR_LIFESPAN=12 go run ./cmd/issue-token --user-id 3 --role mechanic
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/motoworks/workshop_backend/utils"
)

func main() {
	userID := flag.Int("user-id", 0, "Required: staff user id")
	role := flag.String("role", "staff", "Optional: role claim")
	flag.Parse()

	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "--user-id is required")
		os.Exit(1)
	}

	token, err := utils.JwtGenerate(*userID, strings.TrimSpace(*role))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
