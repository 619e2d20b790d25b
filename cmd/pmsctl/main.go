// Command pmsctl is the operator CLI: schema migration, staff accounts and calendar generation.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotel_pms/internal/adapters/observability"
	redisad "hotel_pms/internal/adapters/redis"
	"hotel_pms/internal/app"
	"hotel_pms/internal/domain"
	"hotel_pms/internal/pricing"
	"hotel_pms/internal/shared"
	mysqlrepo "hotel_pms/internal/storage/mysql"
	"hotel_pms/migrations"
)

var cfg shared.Config

var rootCmd = &cobra.Command{
	Use:   "pmsctl",
	Short: "Operator tooling for the hotel PMS",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = shared.Load()
		log.Logger = observability.NewLogger(cfg.AppEnv, "pmsctl")
	},
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded schema to MYSQL_DSN",
	RunE:  runMigrate,
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Staff account commands",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff user",
	Long: `Creates a staff account with a bcrypt-hashed password.

Example:
  pmsctl user create --email admin@hotel.test --name Admin --role admin --password 's3cretpass'`,
	RunE: runUserCreate,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Availability calendar commands",
}

var calendarGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate price/inventory rows for room types",
	Long: `Generates calendar rows for one room type, or every room type of every property
when --room-type is omitted. Existing booked and blocked counters are kept.`,
	RunE: runCalendarGenerate,
}

func init() {
	userCreateCmd.Flags().String("email", "", "login email (required)")
	userCreateCmd.Flags().String("name", "", "display name (required)")
	userCreateCmd.Flags().String("role", string(domain.RoleFrontDesk), "admin|manager|front_desk|housekeeping|fnb")
	userCreateCmd.Flags().String("password", "", "initial password (required)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("password")

	calendarGenerateCmd.Flags().Int64("room-type", 0, "room type id (default: all)")
	calendarGenerateCmd.Flags().String("from", "", "first date, YYYY-MM-DD (default: today)")
	calendarGenerateCmd.Flags().Int("days", 365, "number of nights to generate")

	userCmd.AddCommand(userCreateCmd)
	calendarCmd.AddCommand(calendarGenerateCmd)
	rootCmd.AddCommand(migrateCmd, userCmd, calendarCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context) (*sql.DB, error) {
	return mysqlrepo.Open(ctx, cfg.MySQLDSN)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	stmts, err := migrations.Statements()
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	log.Info().Int("statements", len(stmts)).Msg("schema applied")
	return nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")
	password, _ := cmd.Flags().GetString("password")

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	auth := app.NewAuthService(mysqlrepo.New(db), cfg.JWTSecret, cfg.JWTTTL)
	u, err := auth.CreateUser(ctx, email, name, domain.Role(role), password)
	if err != nil {
		return err
	}
	log.Info().Int64("id", u.ID).Str("email", u.Email).Str("role", string(u.Role)).Msg("user created")
	return nil
}

func runCalendarGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rtID, _ := cmd.Flags().GetInt64("room-type")
	fromRaw, _ := cmd.Flags().GetString("from")
	days, _ := cmd.Flags().GetInt("days")

	from := domain.Day(time.Now())
	if fromRaw != "" {
		d, err := domain.ParseDay(fromRaw)
		if err != nil {
			return err
		}
		from = d
	}
	to := from.AddDate(0, 0, days)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	rules, err := pricing.LoadRules(cfg.PricingFile, cfg.TaxPercent)
	if err != nil {
		return err
	}
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	avail := app.NewAvailabilityService(repo, repo, cache, rules, cfg.CacheTTL)

	var ids []int64
	if rtID != 0 {
		ids = []int64{rtID}
	} else {
		props, err := repo.ListProperties(ctx)
		if err != nil {
			return err
		}
		for _, p := range props {
			rts, err := repo.ListRoomTypes(ctx, p.ID)
			if err != nil {
				return err
			}
			for _, rt := range rts {
				ids = append(ids, rt.ID)
			}
		}
	}

	for _, id := range ids {
		rows, err := avail.GenerateCalendar(ctx, id, from, to)
		if err != nil {
			return fmt.Errorf("room type %d: %w", id, err)
		}
		log.Info().Int64("room_type_id", id).Int("rows", len(rows)).Msg("calendar generated")
	}
	return nil
}
