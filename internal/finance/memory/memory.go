// Package memory is an in-process stand-in for the upstream API, used as
// the dev backend and as the test double for the web views. It mimics the
// upstream's behavior including its error messages.
package memory

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"finview/internal/core"
	"finview/internal/finance"
)

type Store struct {
	mu    sync.Mutex
	users map[string]string // username -> password
	txns  []core.Transaction
	cats  []core.Category

	// Independent ID sequences, one per resource, like upstream table PKs.
	userSeq  int64
	txnSeq   int64
	catSeq   int64
	tokenSeq int64
}

// Ensure interface conformance.
var (
	_ finance.Authenticator    = (*Store)(nil)
	_ finance.TransactionStore = (*Store)(nil)
	_ finance.CategoryStore    = (*Store)(nil)
	_ finance.Maintainer       = (*Store)(nil)
)

func New() *Store {
	return &Store{users: make(map[string]string)}
}

// Seed registers a user without going through Register validation.
func (s *Store) Seed(username, password string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
	return s
}

func (s *Store) Register(_ context.Context, reg core.Registration) (core.User, error) {
	if err := reg.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[reg.Username]; exists {
		return core.User{}, &finance.Error{
			Kind:    finance.KindValidation,
			Status:  http.StatusBadRequest,
			Message: "username: A user with that username already exists.",
		}
	}
	s.users[reg.Username] = reg.Password
	s.userSeq++
	return core.User{ID: s.userSeq, Username: reg.Username}, nil
}

func (s *Store) Login(_ context.Context, creds core.Credentials) (finance.TokenPair, error) {
	if err := creds.Validate(); err != nil {
		return finance.TokenPair{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.users[creds.Username]; !ok || pw != creds.Password {
		return finance.TokenPair{}, &finance.Error{
			Kind:    finance.KindAuth,
			Status:  http.StatusUnauthorized,
			Message: "No active account found with the given credentials",
		}
	}
	s.tokenSeq++
	return finance.TokenPair{
		Access:  fmt.Sprintf("mem-access-%d", s.tokenSeq),
		Refresh: fmt.Sprintf("mem-refresh-%d", s.tokenSeq),
	}, nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txns...), nil
}

func (s *Store) CreateTransaction(_ context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txnSeq++
	txn := core.Transaction{
		ID:          s.txnSeq,
		Amount:      in.Amount,
		Type:        in.Type,
		Date:        in.Date,
		Description: in.Description,
		CategoryID:  in.CategoryID,
	}
	if in.CategoryID != nil {
		name, ok := s.categoryName(*in.CategoryID)
		if !ok {
			return core.Transaction{}, &finance.Error{
				Kind:    finance.KindValidation,
				Status:  http.StatusBadRequest,
				Message: "category: Invalid pk \"" + strconv.FormatInt(*in.CategoryID, 10) + "\" - object does not exist.",
			}
		}
		txn.CategoryName = name
	}
	s.txns = append(s.txns, txn)
	return txn, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, txn := range s.txns {
		if txn.ID == id {
			s.txns = append(s.txns[:i], s.txns[i+1:]...)
			return nil
		}
	}
	return &finance.Error{
		Kind:    finance.KindNotFound,
		Status:  http.StatusNotFound,
		Message: "No Transaction matches the given query.",
	}
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

func (s *Store) CreateCategory(_ context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cats {
		if c.Name == in.Name {
			return core.Category{}, &finance.Error{
				Kind:    finance.KindValidation,
				Status:  http.StatusBadRequest,
				Message: "name: Category with this name already exists.",
			}
		}
	}
	s.catSeq++
	cat := core.Category{ID: s.catSeq, Name: in.Name}
	s.cats = append(s.cats, cat)
	return cat, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cats {
		if c.ID == id {
			s.cats = append(s.cats[:i], s.cats[i+1:]...)
			// Mirror the upstream's SET_NULL on linked transactions.
			for j := range s.txns {
				if s.txns[j].CategoryID != nil && *s.txns[j].CategoryID == id {
					s.txns[j].CategoryID = nil
					s.txns[j].CategoryName = ""
				}
			}
			return nil
		}
	}
	return &finance.Error{
		Kind:    finance.KindNotFound,
		Status:  http.StatusNotFound,
		Message: "No Category matches the given query.",
	}
}

func (s *Store) Reset(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns = nil
	s.cats = nil
	return "All data has been successfully reset.", nil
}

func (s *Store) Export(ctx context.Context, format string) (finance.Download, error) {
	switch format {
	case "json":
		return s.exportJSON()
	case "csv":
		return s.exportCSV()
	default:
		return finance.Download{}, &finance.Error{Kind: finance.KindGeneric, Message: "Invalid export format selected."}
	}
}

func (s *Store) exportJSON() (finance.Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type txnExport struct {
		ID     int64  `json:"id"`
		Amount string `json:"amount"`
		Type   string `json:"transaction_type"`
		Date   string `json:"date"`
	}
	out := struct {
		Transactions []txnExport     `json:"transactions"`
		Categories   []core.Category `json:"categories"`
	}{Categories: append([]core.Category(nil), s.cats...)}
	for _, t := range s.txns {
		out.Transactions = append(out.Transactions, txnExport{
			ID: t.ID, Amount: t.Amount.Decimal(), Type: string(t.Type), Date: t.Date.String(),
		})
	}
	buf, err := json.Marshal(out)
	if err != nil {
		return finance.Download{}, fmt.Errorf("marshal export: %w", err)
	}
	return finance.Download{
		Filename:    "data_export.json",
		ContentType: "application/json",
		Body:        io.NopCloser(bytes.NewReader(buf)),
	}, nil
}

func (s *Store) exportCSV() (finance.Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Categories"})
	_ = w.Write([]string{"ID", "Name"})
	for _, c := range s.cats {
		_ = w.Write([]string{strconv.FormatInt(c.ID, 10), c.Name})
	}
	_ = w.Write([]string{})
	_ = w.Write([]string{"Transactions"})
	_ = w.Write([]string{"ID", "Amount", "Type", "Category", "Description", "Date"})
	for _, t := range s.txns {
		_ = w.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.Amount.Decimal(),
			string(t.Type),
			t.DisplayCategory(),
			t.Description,
			t.Date.String(),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return finance.Download{}, fmt.Errorf("write csv export: %w", err)
	}
	return finance.Download{
		Filename:    "data_export.csv",
		ContentType: "text/csv",
		Body:        io.NopCloser(bytes.NewReader(buf.Bytes())),
	}, nil
}

func (s *Store) categoryName(id int64) (string, bool) {
	for _, c := range s.cats {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}
