package ledger

import (
	"context"
	"fmt"

	"github.com/simpleaccounts/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Poster validates and commits balanced journals against the category
// balances they affect. It is the only write path into the ledger: every
// balance mutation in the system flows through Post, including reversals and
// opening-balance seeding.
type Poster struct {
	journals   JournalRepository
	categories CategoryRepository
	balances   CategoryBalanceRepository
	tx         TransactionManager
	logger     *zap.Logger
}

// NewPoster creates a ledger poster
func NewPoster(
	journals JournalRepository,
	categories CategoryRepository,
	balances CategoryBalanceRepository,
	tx TransactionManager,
	logger *zap.Logger,
) *Poster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poster{
		journals:   journals,
		categories: categories,
		balances:   balances,
		tx:         tx,
		logger:     logger,
	}
}

// Post validates the journal and commits it together with the balance deltas
// of every affected category in a single transaction. It returns the posted
// journal's identifier.
//
// Rejections: shared.ErrEmptyJournal for fewer than two line items,
// shared.ErrUnbalancedJournal when debits and credits differ at minor-unit
// precision. Both are the caller's to fix; neither leaves any state behind.
func (p *Poster) Post(ctx context.Context, entry *JournalEntry) (uuid.UUID, error) {
	if entry == nil {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Journal cannot be nil")
	}
	if err := entry.Validate(); err != nil {
		return uuid.Nil, err
	}

	deltas, err := p.balanceDeltas(ctx, entry)
	if err != nil {
		return uuid.Nil, err
	}

	err = p.tx.InTransaction(ctx, func(txCtx context.Context) error {
		if err := p.journals.Save(txCtx, entry); err != nil {
			return fmt.Errorf("failed to persist journal: %w", err)
		}
		for categoryID, delta := range deltas {
			if err := p.balances.ApplyDelta(txCtx, categoryID, entry.TransactionDate, delta); err != nil {
				return fmt.Errorf("failed to update balance for category %s: %w", categoryID, err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	p.logger.Info("journal posted",
		zap.String("journal_id", entry.ID.String()),
		zap.String("reference_type", string(entry.ReferenceType)),
		zap.String("total", entry.TotalDebits().StringFixed(MinorUnitPlaces)),
		zap.Int("lines", len(entry.Lines)),
	)
	return entry.ID, nil
}

// Reverse posts the offsetting journal for a previously posted entry and
// flags the original as voided. The original's line items are never mutated
// or deleted; the ledger stays append-only.
func (p *Poster) Reverse(ctx context.Context, journalID uuid.UUID, userID string) (uuid.UUID, error) {
	original, err := p.journals.FindByID(ctx, journalID)
	if err != nil {
		return uuid.Nil, err
	}
	if original == nil {
		return uuid.Nil, shared.ErrNotFound
	}

	reversal, err := original.Reversed(userID)
	if err != nil {
		return uuid.Nil, err
	}

	deltas, err := p.balanceDeltas(ctx, reversal)
	if err != nil {
		return uuid.Nil, err
	}

	err = p.tx.InTransaction(ctx, func(txCtx context.Context) error {
		if err := p.journals.Save(txCtx, reversal); err != nil {
			return fmt.Errorf("failed to persist reversal journal: %w", err)
		}
		for categoryID, delta := range deltas {
			if err := p.balances.ApplyDelta(txCtx, categoryID, reversal.TransactionDate, delta); err != nil {
				return fmt.Errorf("failed to update balance for category %s: %w", categoryID, err)
			}
		}
		if err := p.journals.MarkVoided(txCtx, original.ID); err != nil {
			return fmt.Errorf("failed to void original journal: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	p.logger.Info("journal reversed",
		zap.String("journal_id", original.ID.String()),
		zap.String("reversal_id", reversal.ID.String()),
		zap.String("user", userID),
	)
	return reversal.ID, nil
}

// balanceDeltas aggregates the signed balance movement per category. The sign
// follows the category's normal balance side: debits increase debit-normal
// categories and decrease credit-normal ones, and vice versa.
func (p *Poster) balanceDeltas(ctx context.Context, entry *JournalEntry) (map[uuid.UUID]decimal.Decimal, error) {
	deltas := make(map[uuid.UUID]decimal.Decimal, len(entry.Lines))
	for _, line := range entry.Lines {
		category, err := p.categories.FindByID(ctx, line.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %s: %w", line.CategoryID, err)
		}
		if category == nil {
			return nil, shared.NewDomainError("INVALID_LINE_ITEM",
				"Line item references unknown category "+line.CategoryID.String())
		}

		var delta decimal.Decimal
		switch category.Kind.NormalBalance() {
		case BalanceSideDebit:
			delta = line.Debit.Sub(line.Credit)
		case BalanceSideCredit:
			delta = line.Credit.Sub(line.Debit)
		}
		deltas[line.CategoryID] = deltas[line.CategoryID].Add(delta)
	}
	return deltas, nil
}

// OpeningBalanceJournal builds the seeding journal for a category's opening
// balance. The counter-entry goes to the opening balance offset category so
// the double-entry invariant holds even for seeding.
func OpeningBalanceJournal(
	category *TransactionCategory,
	offset *TransactionCategory,
	amount decimal.Decimal,
	createdBy string,
) (*JournalEntry, error) {
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Opening balance cannot be zero")
	}
	magnitude := amount.Abs()
	var lines []JournalLineItem
	increase := amount.IsPositive()
	if (category.Kind.NormalBalance() == BalanceSideDebit) == increase {
		lines = []JournalLineItem{
			NewDebitLine(category.ID, magnitude, "Opening balance"),
			NewCreditLine(offset.ID, magnitude, "Opening balance offset"),
		}
	} else {
		lines = []JournalLineItem{
			NewCreditLine(category.ID, magnitude, "Opening balance"),
			NewDebitLine(offset.ID, magnitude, "Opening balance offset"),
		}
	}
	return NewJournalEntry(
		ReferenceTypeOpeningBalance,
		category.Code,
		category.CreatedAt,
		createdBy,
		lines,
	)
}
