package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// UncategorizedLabel is the display name used for expenses without a category.
const UncategorizedLabel = "Uncategorized"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record as returned by the
	// upstream API. CategoryID is nil for income transactions.
	Transaction struct {
		ID           int64
		Amount       Money
		Type         TransactionType
		Date         Date
		Description  string
		CategoryID   *int64
		CategoryName string
	}

	Category struct {
		ID   int64
		Name string
	}

	User struct {
		ID       int64
		Username string
	}

	// TransactionInput is the client-side form payload for creating a
	// transaction. Validation here is purely structural; business rules
	// stay with the upstream API.
	TransactionInput struct {
		Amount      Money
		Type        TransactionType
		Date        Date
		Description string
		CategoryID  *int64
	}

	CategoryInput struct {
		Name string
	}

	Credentials struct {
		Username string
		Password string
	}

	Registration struct {
		Username        string
		Password        string
		ConfirmPassword string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrMissingDate      = errors.New("date is required")
	ErrMissingCategory  = errors.New("category is required for expenses")
	ErrCategoryOnIncome = errors.New("income transactions cannot have a category")
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrEmptyUsername    = errors.New("username cannot be empty")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrShortPassword    = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string, the wire format of the upstream API.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date in the upstream wire format.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// FirstOfMonth returns the date moved to the first day of its month.
// Income transactions are normalized this way before submission.
func (d Date) FirstOfMonth() Date {
	y, m, _ := d.Date()
	return Date{Time: time.Date(y, m, 1, 0, 0, 0, 0, d.Location())}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (in TransactionInput) Validate() error {
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if in.Type == Expense && in.CategoryID == nil {
		return ErrMissingCategory
	}
	if in.Type == Income && in.CategoryID != nil {
		return ErrCategoryOnIncome
	}
	if len(in.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if len(in.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrEmptyUsername
	}
	if c.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

func (r Registration) Validate() error {
	if err := (Credentials{Username: r.Username, Password: r.Password}).Validate(); err != nil {
		return err
	}
	if len(r.Password) < 8 {
		return ErrShortPassword
	}
	if r.Password != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

// DisplayCategory returns the category name to show for a transaction,
// substituting the fixed label when no category is attached.
func (t Transaction) DisplayCategory() string {
	if t.CategoryID == nil || t.CategoryName == "" {
		return UncategorizedLabel
	}
	return t.CategoryName
}
