package web

import (
	"net/http"
	"strconv"

	"finview/internal/core"
	"finview/internal/log"
)

type transactionRow struct {
	ID          int64
	Date        string
	Description string
	Category    string
	Type        string
	Amount      string
}

type transactionsPage struct {
	basePage
	Transactions []transactionRow
	Categories   []core.Category
	Today        string
}

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txns, err := s.transactions(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Transaction list failed",
			log.FieldOperation, log.OpList, log.FieldError, err)
		s.fail(w, r, err, "/")
		return
	}

	cats, err := s.cats.ListCategories(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Category list failed",
			log.FieldOperation, log.OpList, log.FieldError, err)
		s.fail(w, r, err, "/")
		return
	}

	page := transactionsPage{
		basePage:   s.newBasePage(),
		Categories: cats,
		Today:      core.Date{Time: s.now()}.String(),
	}
	// Newest first for display.
	for i := len(txns) - 1; i >= 0; i-- {
		t := txns[i]
		page.Transactions = append(page.Transactions, transactionRow{
			ID:          t.ID,
			Date:        t.Date.String(),
			Description: t.Description,
			Category:    t.DisplayCategory(),
			Type:        string(t.Type),
			Amount:      formatAmount(t.Amount),
		})
	}

	s.render(w, r, "transactions.html", page)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.notices.SetError("Invalid form submission.")
		http.Redirect(w, r, "/transactions", http.StatusSeeOther)
		return
	}

	in, err := parseTransactionForm(r)
	if err != nil {
		s.notices.SetError(err.Error())
		http.Redirect(w, r, "/transactions", http.StatusSeeOther)
		return
	}

	created, err := s.txns.CreateTransaction(ctx, in)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Transaction create failed",
			log.FieldOperation, log.OpCreate,
			log.FieldTransactionType, string(in.Type),
			log.FieldError, err)
		s.fail(w, r, err, "/transactions")
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Transaction created",
		log.FieldOperation, log.OpCreate,
		log.FieldTransactionID, created.ID,
		log.FieldTransactionType, string(created.Type),
		log.FieldAmountCents, created.Amount.Cents)
	s.invalidateSnapshot()
	s.notices.SetSuccess("Transaction added.")
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := s.txns.DeleteTransaction(ctx, id); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Transaction delete failed",
			log.FieldOperation, log.OpDelete,
			log.FieldTransactionID, id,
			log.FieldError, err)
		s.fail(w, r, err, "/transactions")
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete, log.FieldTransactionID, id)
	s.invalidateSnapshot()
	s.notices.SetSuccess("Transaction deleted.")
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

// parseTransactionForm builds a TransactionInput from the create form.
// Income dates are normalized to the first of their month, and any
// category selection on income is discarded.
func parseTransactionForm(r *http.Request) (core.TransactionInput, error) {
	var in core.TransactionInput

	in.Type = core.TransactionType(r.Form.Get("type"))
	if !in.Type.Valid() {
		return in, core.ErrInvalidType
	}

	amount, err := core.ParseMoney(r.Form.Get("amount"))
	if err != nil {
		return in, core.ErrInvalidAmount
	}
	in.Amount = amount

	date, err := core.ParseDate(r.Form.Get("date"))
	if err != nil {
		return in, core.ErrMissingDate
	}
	if in.Type == core.Income {
		date = date.FirstOfMonth()
	}
	in.Date = date

	in.Description = sanitizeInput(r.Form.Get("description"))

	if in.Type == core.Expense {
		raw := r.Form.Get("category")
		if raw == "" {
			return in, core.ErrMissingCategory
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, core.ErrMissingCategory
		}
		in.CategoryID = &id
	}

	return in, in.Validate()
}
