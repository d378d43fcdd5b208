package rest

import (
	"fmt"

	"finview/internal/core"
)

// Wire shapes of the upstream API. Amounts travel as decimal strings,
// dates as YYYY-MM-DD.
type (
	userDTO struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}

	registerRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	tokenRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	tokenResponse struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	transactionDTO struct {
		ID              int64  `json:"id"`
		Amount          string `json:"amount"`
		TransactionType string `json:"transaction_type"`
		Category        *int64 `json:"category"`
		CategoryName    string `json:"category_name"`
		Description     string `json:"description"`
		Date            string `json:"date"`
	}

	createTransactionRequest struct {
		Amount          string `json:"amount"`
		TransactionType string `json:"transaction_type"`
		Category        *int64 `json:"category"`
		Description     string `json:"description,omitempty"`
		Date            string `json:"date"`
	}

	categoryDTO struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	createCategoryRequest struct {
		Name string `json:"name"`
	}

	detailResponse struct {
		Detail string `json:"detail"`
	}
)

func (d transactionDTO) toDomain() (core.Transaction, error) {
	amount, err := core.ParseMoney(d.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: parse amount %q: %w", d.ID, d.Amount, err)
	}
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: parse date %q: %w", d.ID, d.Date, err)
	}
	return core.Transaction{
		ID:           d.ID,
		Amount:       amount,
		Type:         core.TransactionType(d.TransactionType),
		Date:         date,
		Description:  d.Description,
		CategoryID:   d.Category,
		CategoryName: d.CategoryName,
	}, nil
}

func toCreateRequest(in core.TransactionInput) createTransactionRequest {
	return createTransactionRequest{
		Amount:          in.Amount.Decimal(),
		TransactionType: string(in.Type),
		Category:        in.CategoryID,
		Description:     in.Description,
		Date:            in.Date.String(),
	}
}
