// Package seed fills an empty database with demo accounts, dishes and balances.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"truebite-api/config"
	"truebite-api/models"
	"truebite-api/services"

	"github.com/jaswdr/faker"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is given to every generated account except the manager
const DefaultPassword = "password123"

var categories = []string{"Mains", "Noodles", "Rice", "Soups", "Salads", "Desserts", "Drinks"}

var dishNames = []string{
	"Pad Thai", "Chicken Katsu", "Beef Pho", "Margherita Pizza", "Falafel Wrap", "Green Curry",
	"Tonkotsu Ramen", "Caesar Salad", "Bibimbap", "Lamb Biryani", "Mushroom Risotto", "Fish Tacos",
	"Miso Soup", "Tiramisu", "Mango Sticky Rice", "Iced Matcha", "Shakshuka", "Bulgogi Bowl",
}

type Summary struct {
	Skipped         bool
	Manager         string
	Chefs           int
	Dishes          int
	DeliveryPersons int
	Customers       int
}

type Seeder struct {
	db   *gorm.DB
	svc  *services.Services
	cfg  config.SeedConfig
	fake faker.Faker
	rnd  *rand.Rand
	out  io.Writer
}

func New(db *gorm.DB, svc *services.Services, cfg config.SeedConfig, out io.Writer) *Seeder {
	if out == nil {
		out = io.Discard
	}
	src := rand.NewSource(cfg.Seed)
	return &Seeder{
		db:   db,
		svc:  svc,
		cfg:  cfg,
		fake: faker.NewWithSeed(src),
		rnd:  rand.New(rand.NewSource(cfg.Seed)),
		out:  out,
	}
}

// Run seeds the database once; it is a no-op when the manager account already exists
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(s.cfg.ManagerEmail)).First(&existing).Error
	if err == nil {
		return &Summary{Skipped: true, Manager: existing.Email}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing manager: %w", err)
	}

	total := 1 + s.cfg.Chefs*(1+s.cfg.DishesPerChef) + s.cfg.DeliveryPersons + s.cfg.Customers
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.out),
		progressbar.OptionSetDescription("seeding"),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	summary := &Summary{}
	manager, err := s.createUser(ctx, "TrueBite Manager", s.cfg.ManagerEmail, s.cfg.ManagerPassword,
		models.RoleManager, models.AccountManager, 0)
	if err != nil {
		return nil, err
	}
	summary.Manager = manager.Email
	bar.Add(1)

	for i := 0; i < s.cfg.Chefs; i++ {
		chef, err := s.createUser(ctx, s.fake.Person().Name(), s.email("chef", i), DefaultPassword,
			models.RoleChef, models.AccountEmployee, 0)
		if err != nil {
			return nil, err
		}
		summary.Chefs++
		bar.Add(1)

		session := services.Session{UserID: chef.ID, Name: chef.Name, Role: chef.Role}
		for j := 0; j < s.cfg.DishesPerChef; j++ {
			_, err := s.svc.Dishes.Create(ctx, session, services.DishInput{
				Name:        s.fake.RandomStringElement(dishNames),
				Description: s.fake.Lorem().Sentence(8),
				Category:    s.fake.RandomStringElement(categories),
				Price:       decimal.NewFromFloat(s.fake.Float64(2, 6, 28)).Round(2),
			})
			if err != nil {
				return nil, fmt.Errorf("seed dish: %w", err)
			}
			summary.Dishes++
			bar.Add(1)
		}
	}

	for i := 0; i < s.cfg.DeliveryPersons; i++ {
		reputation := 3 + s.rnd.Float64()*2
		if _, err := s.createUser(ctx, s.fake.Person().Name(), s.email("rider", i), DefaultPassword,
			models.RoleDelivery, models.AccountEmployee, reputation); err != nil {
			return nil, err
		}
		summary.DeliveryPersons++
		bar.Add(1)
	}

	for i := 0; i < s.cfg.Customers; i++ {
		role := models.RoleRegistered
		if i%5 == 4 {
			role = models.RoleVIP
		}
		customer, err := s.createUser(ctx, s.fake.Person().Name(), s.email("customer", i), DefaultPassword,
			role, models.AccountCustomer, 0)
		if err != nil {
			return nil, err
		}
		amount := decimal.NewFromInt(int64(s.fake.IntBetween(20, 200)))
		session := services.Session{UserID: customer.ID, Name: customer.Name, Role: customer.Role}
		if _, err := s.svc.Users.Deposit(ctx, session, amount); err != nil {
			return nil, fmt.Errorf("seed deposit: %w", err)
		}
		summary.Customers++
		bar.Add(1)
	}
	return summary, nil
}

func (s *Seeder) email(kind string, i int) string {
	return fmt.Sprintf("%s%d@truebite.local", kind, i+1)
}

func (s *Seeder) createUser(ctx context.Context, name, email, password string, role models.UserRole, account models.AccountType, reputation float64) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Name:            name,
		Email:           strings.ToLower(email),
		PasswordHash:    string(hash),
		Role:            role,
		AccountType:     account,
		Status:          models.ApprovalApproved,
		ReputationScore: reputation,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, fmt.Errorf("seed user %s: %w", email, err)
	}
	return u, nil
}
