package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/store"
	"github.com/diewo77/go-school/validation"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var readPassword = term.ReadPassword // mockable

var (
	createEmail    string
	createName     string
	createRole     string
	createPassword string
	createApproved bool

	approveBy string
)

var createUserCmd = &cobra.Command{
	Use:     "create-user",
	Short:   "Create an account and its profile",
	Long:    "Create an account and its profile. The password is prompted when --password is not given.",
	GroupID: "accounts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role := gate.ParseRole(createRole)
		if !role.Known() {
			return fmt.Errorf("unknown role %q", createRole)
		}
		password := createPassword
		if password == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			pwd, err := readPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password = string(pwd)
		}
		pw := struct {
			Password string `json:"password" validate:"password"`
		}{password}
		if v := validation.New().Struct("en", pw); v != nil {
			return errors.New(v["password"])
		}

		user, err := store.NewUsers(conn).Create(cmd.Context(), store.NewAccount{
			Email:    createEmail,
			Password: password,
			FullName: createName,
			Role:     role,
			Approved: createApproved,
		})
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("an account with email %s already exists", createEmail)
		}
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		state := "pending approval"
		if createApproved {
			state = "approved"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (id %d, %s)\n", role, user.Email, user.ID, state)
		return nil
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <email>",
	Short: "Approve the profile of an account",
	Long: "Approve the profile of an account. A running server picks the change up " +
		"once its cached profile expires (PROFILE_CACHE_TTL).",
	GroupID: "accounts",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users := store.NewUsers(conn)
		target, err := users.ByEmail(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no account with email %s", args[0])
		}
		if err != nil {
			return err
		}
		if target.Profile == nil {
			return fmt.Errorf("%s has no profile", target.Email)
		}

		by := approveBy
		if by == "" {
			by = cfg.App.SeedAdminEmail
		}
		if by == "" {
			return errors.New("--by is required when SEED_ADMIN_EMAIL is not set")
		}
		approver, err := users.ByEmail(cmd.Context(), by)
		if err != nil {
			return fmt.Errorf("finding approver %s: %w", by, err)
		}

		prof, err := store.NewProfiles(conn).Approve(cmd.Context(), target.Profile.ID, approver.ID)
		if err != nil {
			return fmt.Errorf("approving: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Approved %s (%s)\n", target.Email, prof.Role)
		return nil
	},
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&createEmail, "email", "", "account email (required)")
	f.StringVar(&createName, "name", "", "full name (required)")
	f.StringVar(&createRole, "role", string(gate.RoleTeacher), "role: "+roleList())
	f.StringVar(&createPassword, "password", "", "password (prompted when empty)")
	f.BoolVar(&createApproved, "approved", false, "approve the profile right away")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("name")

	approveCmd.Flags().StringVar(&approveBy, "by", "", "email of the approving staff account (default SEED_ADMIN_EMAIL)")
}

func roleList() string {
	names := make([]string, len(gate.KnownRoles))
	for i, r := range gate.KnownRoles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
