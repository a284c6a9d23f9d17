// Command seed generates a synthetic user dataset for the fraud monitor and
// writes it to public/dataset.json.
//
// Usage:
//
//	go run ./cmd/seed [-o path] [-seed n] [-start yyyy-mm-dd]
//
// The dataset mixes the account shapes the alert rules care about:
//   - ordinary users with small credits and debits over 30 days
//   - low-income users with high-value credits on consecutive days (red)
//   - low-income users with scattered high-value credits (yellow)
//   - users with bursts of transactions on a single day (frequency alert)
//   - wealthy users whose large transactions are suppressed
//
// Dates are written in both dd/mm/yyyy and yyyy-mm-dd, as in hand-edited data.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"sentinel/fraud-monitor/internal/domain"
	"sentinel/fraud-monitor/internal/store"
)

func main() {
	out := flag.String("o", "public/dataset.json", "output file")
	seed := flag.Int64("seed", 42, "random seed")
	start := flag.String("start", "2024-01-01", "first transaction date (yyyy-mm-dd)")
	flag.Parse()

	base, ok := domain.ParseDate(*start)
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid -start %q\n", *start)
		os.Exit(2)
	}

	rng := rand.New(rand.NewSource(*seed)) // deterministic seed for reproducibility
	users := generate(rng, base)

	if err := store.NewDataset(*out).Save(users); err != nil {
		fmt.Fprintf(os.Stderr, "write error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d users → %s\n", len(users), *out)
}

// generate builds the whole dataset in a fixed order, numbers the accounts,
// then shuffles so patterns aren't trivially grouped in the file.
func generate(rng *rand.Rand, base time.Time) []domain.User {
	var users []domain.User
	users = append(users, ordinaryUsers(rng, base)...)
	users = append(users, consecutiveHighValueUsers(rng, base)...)
	users = append(users, scatteredHighValueUsers(rng, base)...)
	users = append(users, burstUsers(rng, base)...)
	users = append(users, wealthyUsers(rng, base)...)

	for i := range users {
		users[i].AccountNumber = fmt.Sprintf("ACC%d", 1001+i)
	}

	rng.Shuffle(len(users), func(i, j int) {
		users[i], users[j] = users[j], users[i]
	})
	return users
}

// ─── Profiles ─────────────────────────────────────────────────────────────────

type profile struct {
	name       string
	city       string
	profession string
	income     int64
}

var ordinaryProfiles = []profile{
	{"Asha Rao", "Pune", "Teacher", 420_000},
	{"Rahul Mehta", "Mumbai", "Accountant", 380_000},
	{"Priya Nair", "Kochi", "Nurse", 310_000},
	{"Arjun Singh", "Delhi", "Electrician", 260_000},
	{"Meera Iyer", "Chennai", "Librarian", 340_000},
	{"Karan Patel", "Ahmedabad", "Shopkeeper", 450_000},
	{"Divya Menon", "Bengaluru", "Designer", 470_000},
	{"Sanjay Gupta", "Lucknow", "Clerk", 220_000},
}

var suspiciousProfiles = []profile{
	{"Neha Kulkarni", "Nagpur", "Student", 120_000},
	{"Imran Sheikh", "Hyderabad", "Driver", 240_000},
	{"Pooja Das", "Kolkata", "", 0},
	{"Vivek Joshi", "Indore", "Cashier", 180_000},
}

var wealthyProfiles = []profile{
	{"Vikram Shah", "Mumbai", "Surgeon", 2_400_000},
	{"Ananya Bose", "Kolkata", "Investor", 900_000},
	{"Rohan Kapoor", "Delhi", "Architect", 500_000},
}

// ─── Generators ───────────────────────────────────────────────────────────────

// newUser returns a record without an account number; generate assigns those.
func newUser(p profile, rng *rand.Rand) domain.User {
	return domain.User{
		Username:         p.name,
		Contact:          fmt.Sprintf("+91 9%09d", rng.Intn(1_000_000_000)),
		Address:          fmt.Sprintf("%d Main Road, %s", 1+rng.Intn(200), p.city),
		Profession:       p.profession,
		AnnualIncome:     domain.Amount(p.income),
		MonthlyTransacts: domain.Amount(5 + rng.Intn(40)),
		Credits:          domain.NewLedger(),
		Debits:           domain.NewLedger(),
	}
}

// date writes base+offset days in one of the two accepted formats.
func date(rng *rand.Rand, base time.Time, offset int) string {
	d := base.AddDate(0, 0, offset)
	if rng.Intn(2) == 0 {
		return d.Format("02/01/2006")
	}
	return domain.FormatDate(d)
}

func smallTx(rng *rand.Rand, base time.Time, offset int) domain.Transaction {
	return domain.Transaction{Amount: domain.Amount(100 + rng.Int63n(50_000)), Date: date(rng, base, offset)}
}

func largeTx(rng *rand.Rand, base time.Time, offset int) domain.Transaction {
	return domain.Transaction{Amount: domain.Amount(500_000 + rng.Int63n(400_000)), Date: date(rng, base, offset)}
}

// addBackground gives u a handful of ordinary transactions on distinct days.
func addBackground(u *domain.User, rng *rand.Rand, base time.Time) {
	days := rng.Perm(30)
	for i := 0; i < 3+rng.Intn(4); i++ {
		tx := smallTx(rng, base, days[i])
		if rng.Intn(2) == 0 {
			u.Credits.Append(tx)
		} else {
			u.Debits.Append(tx)
		}
	}
}

func ordinaryUsers(rng *rand.Rand, base time.Time) []domain.User {
	var users []domain.User
	for _, p := range ordinaryProfiles {
		u := newUser(p, rng)
		addBackground(&u, rng, base)
		users = append(users, u)
	}
	return users
}

func consecutiveHighValueUsers(rng *rand.Rand, base time.Time) []domain.User {
	var users []domain.User
	for _, p := range suspiciousProfiles[:2] {
		u := newUser(p, rng)
		addBackground(&u, rng, base)
		day := 5 + rng.Intn(20)
		u.Credits.Append(largeTx(rng, base, day))
		u.Debits.Append(largeTx(rng, base, day+1))
		users = append(users, u)
	}
	return users
}

func scatteredHighValueUsers(rng *rand.Rand, base time.Time) []domain.User {
	u := newUser(suspiciousProfiles[2], rng)
	addBackground(&u, rng, base)
	u.Credits.Append(largeTx(rng, base, 3))
	u.Credits.Append(largeTx(rng, base, 17))
	return []domain.User{u}
}

func burstUsers(rng *rand.Rand, base time.Time) []domain.User {
	u := newUser(suspiciousProfiles[3], rng)
	addBackground(&u, rng, base)
	day := domain.FormatDate(base.AddDate(0, 0, 12))
	for i := 0; i < 4; i++ {
		tx := domain.Transaction{Amount: domain.Amount(1_000 + rng.Int63n(9_000)), Date: day}
		if i%2 == 0 {
			u.Credits.Append(tx)
		} else {
			u.Debits.Append(tx)
		}
	}
	return []domain.User{u}
}

func wealthyUsers(rng *rand.Rand, base time.Time) []domain.User {
	var users []domain.User
	for _, p := range wealthyProfiles {
		u := newUser(p, rng)
		addBackground(&u, rng, base)
		u.Credits.Append(largeTx(rng, base, 8))
		u.Credits.Append(largeTx(rng, base, 9))
		users = append(users, u)
	}
	return users
}
