// Command invite creates a guest account: the admin-side half of guest
// login. Guests can't self-register — an administrator runs this with the
// guest's email, an initial password, and the repositories they may read.
//
// Usage:
//
//	invite -email reviewer@example.com -password s3cret -projects docs-api,docs-guides
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sakif/docportal/internal/auth"
	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/repository/sqlite"
)

func main() {
	var (
		dbPath   = flag.String("db", "data/docportal.db", "path to the SQLite database")
		email    = flag.String("email", "", "guest email (required)")
		password = flag.String("password", "", "initial password (required)")
		projects = flag.String("projects", "", "comma-separated repository names the guest may read")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*dbPath, *email, *password, *projects); err != nil {
		fmt.Fprintln(os.Stderr, "invite:", err)
		os.Exit(1)
	}
}

func run(dbPath, email, password, projects string) error {
	db, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := auth.NewPasswordService().Hash(password)
	if err != nil {
		return err
	}

	var names []string
	for _, part := range strings.Split(projects, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}

	guest := &model.Guest{
		Email:        email,
		PasswordHash: hash,
		Projects:     names,
	}
	if err := db.Create(context.Background(), guest); err != nil {
		return err
	}

	fmt.Printf("created guest %s (%s) with access to %v\n", guest.ID, guest.Email, names)
	return nil
}
