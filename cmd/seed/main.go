package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/billing"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/identity"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/partner"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/config"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/logger"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

var demoCustomers = []partner.Customer{
	{ID: uuid.MustParse("d6e15727-9fe1-4961-8c5b-ea44a9bd81aa"), Name: "Delba de Oliveira", Email: "delba@oliveira.com", ImageURL: "/customers/delba-de-oliveira.png"},
	{ID: uuid.MustParse("3958dc9e-712f-4377-85e9-fec4b6a6442a"), Name: "Lee Robinson", Email: "lee@robinson.com", ImageURL: "/customers/lee-robinson.png"},
	{ID: uuid.MustParse("3958dc9e-742f-4377-85e9-fec4b6a6442a"), Name: "Hector Simpson", Email: "hector@simpson.com", ImageURL: "/customers/hector-simpson.png"},
	{ID: uuid.MustParse("50ca3e18-62cd-11ee-8c99-0242ac120002"), Name: "Steven Tey", Email: "steven@tey.com", ImageURL: "/customers/steven-tey.png"},
	{ID: uuid.MustParse("3958dc9e-787f-4377-85e9-fec4b6a6442a"), Name: "Steph Dietz", Email: "steph@dietz.com", ImageURL: "/customers/steph-dietz.png"},
	{ID: uuid.MustParse("76d65c26-f784-44a2-ac19-586678f7c2f2"), Name: "Michael Novotny", Email: "michael@novotny.com", ImageURL: "/customers/michael-novotny.png"},
}

type demoInvoice struct {
	customer int
	cents    int64
	status   billing.InvoiceStatus
	date     string
}

var demoInvoices = []demoInvoice{
	{0, 15795, billing.InvoiceStatusPending, "2022-12-06"},
	{1, 20348, billing.InvoiceStatusPending, "2022-11-14"},
	{4, 3040, billing.InvoiceStatusPaid, "2022-10-29"},
	{3, 44800, billing.InvoiceStatusPaid, "2023-09-10"},
	{5, 34577, billing.InvoiceStatusPending, "2023-08-05"},
	{2, 54246, billing.InvoiceStatusPending, "2023-07-16"},
	{0, 666, billing.InvoiceStatusPending, "2023-06-27"},
	{3, 32545, billing.InvoiceStatusPaid, "2023-06-09"},
	{4, 1250, billing.InvoiceStatusPaid, "2023-06-17"},
	{5, 8546, billing.InvoiceStatusPaid, "2023-06-07"},
	{1, 500, billing.InvoiceStatusPaid, "2023-08-19"},
	{5, 8945, billing.InvoiceStatusPaid, "2023-06-03"},
	{2, 1000, billing.InvoiceStatusPaid, "2022-06-05"},
}

func main() {
	var (
		email    string
		password string
	)
	flag.StringVar(&email, "email", "user@nextmail.com", "Email of the demo user")
	flag.StringVar(&password, "password", "123456", "Password of the demo user")
	flag.Parse()

	log, err := logger.New(logger.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seed(ctx, db, cfg.Auth.BcryptCost, email, password, log); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Seeding complete")
}

func seed(ctx context.Context, db *persistence.Database, cost int, email, password string, log *zap.Logger) error {
	users := persistence.NewGormUserRepository(db.DB)
	customers := persistence.NewGormCustomerRepository(db.DB)
	invoices := persistence.NewGormInvoiceRepository(db.DB)

	user, err := identity.NewUser("User", email, password, cost)
	if err != nil {
		return fmt.Errorf("demo user: %w", err)
	}
	if err := users.Save(ctx, user); err != nil {
		return fmt.Errorf("save demo user: %w", err)
	}
	log.Info("Seeded user", zap.String("email", email))

	for _, c := range demoCustomers {
		if err := customers.Save(ctx, c); err != nil {
			return fmt.Errorf("save customer %s: %w", c.Name, err)
		}
	}
	log.Info("Seeded customers", zap.Int("count", len(demoCustomers)))

	existing, err := invoices.Count(ctx, "")
	if err != nil {
		return fmt.Errorf("count invoices: %w", err)
	}
	if existing > 0 {
		log.Info("Invoices already present, skipping", zap.Int64("count", existing))
		return nil
	}
	for _, inv := range demoInvoices {
		date, err := time.Parse(time.DateOnly, inv.date)
		if err != nil {
			return err
		}
		record := billing.InvoiceRecord{
			CustomerID:  demoCustomers[inv.customer].ID,
			AmountCents: inv.cents,
			Status:      inv.status,
		}
		if _, err := invoices.Insert(ctx, record, date); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
	}
	log.Info("Seeded invoices", zap.Int("count", len(demoInvoices)))
	return nil
}
