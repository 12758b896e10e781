package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		allResources := []string{"orgs", "courses", "enrollments", "payments", "quizzes", "faqs", "tickets", "reviews", "users", "config"}

		// admin: read+write on everything
		// instructor: full control over course content, read on learner data
		// support: tickets and faqs, read on users and enrollments
		// student: read-only catalog access plus their own enrollments and reviews
		seeds := []struct {
			name  string
			read  []string
			write []string
		}{
			{
				name:  "admin",
				read:  allResources,
				write: allResources,
			},
			{
				name:  "instructor",
				read:  []string{"orgs", "courses", "enrollments", "quizzes", "faqs", "reviews"},
				write: []string{"courses", "quizzes", "faqs"},
			},
			{
				name:  "support",
				read:  []string{"users", "enrollments", "payments", "tickets", "faqs"},
				write: []string{"tickets", "faqs"},
			},
			{
				name:  "student",
				read:  []string{"courses", "enrollments", "quizzes", "faqs", "reviews", "tickets", "payments"},
				write: []string{"enrollments", "reviews", "tickets", "payments"},
			},
		}

		for _, seed := range seeds {
			_, err := db.Exec(`INSERT INTO roles (name, is_system) VALUES (?, TRUE)`, seed.name)
			if err != nil {
				return errors.WithStack(err)
			}

			var roleID int
			err = db.QueryRow(`SELECT id FROM roles WHERE name = ?`, seed.name).Scan(&roleID)
			if err != nil {
				return errors.WithStack(err)
			}

			for _, resource := range seed.read {
				_, err = db.Exec(`INSERT INTO permissions (role_id, resource, operation) VALUES (?, ?, 'read')`, roleID, resource)
				if err != nil {
					return errors.WithStack(err)
				}
			}
			for _, resource := range seed.write {
				_, err = db.Exec(`INSERT INTO permissions (role_id, resource, operation) VALUES (?, ?, 'write')`, roleID, resource)
				if err != nil {
					return errors.WithStack(err)
				}
			}
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DELETE FROM permissions`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DELETE FROM roles`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
