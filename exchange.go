package ledger

import (
	"context"

	"github.com/mintworks/ledger/exchange"
	"github.com/mintworks/ledger/journal"
	"github.com/mintworks/ledger/plugin"
	"github.com/mintworks/ledger/types"
)

// ──────────────────────────────────────────────────
// Exchange
// ──────────────────────────────────────────────────

// TokenPrice returns how many token base units one base-currency unit
// buys, before fees. The curve is fixed.
func (l *Ledger) TokenPrice() uint64 { return exchange.PriceMultiplier }

// EntryFee returns the purchase fee in whole percent.
func (l *Ledger) EntryFee() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entryFee.Percent()
}

// ExitFee returns the sale fee in whole percent.
func (l *Ledger) ExitFee() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.exitFee.Percent()
}

// SetEntryFee changes the purchase fee. Only the owner may change fees.
func (l *Ledger) SetEntryFee(ctx context.Context, caller types.Address, percent uint64) error {
	fee, ok := exchange.FeeFromPercent(percent)
	if !ok {
		return ErrInvalidFee
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrNotOwner
	}
	l.entryFee = fee
	l.logger.Info("entry fee changed", "percent", percent)
	return nil
}

// SetExitFee changes the sale fee. Only the owner may change fees.
func (l *Ledger) SetExitFee(ctx context.Context, caller types.Address, percent uint64) error {
	fee, ok := exchange.FeeFromPercent(percent)
	if !ok {
		return ErrInvalidFee
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrNotOwner
	}
	l.exitFee = fee
	l.logger.Info("exit fee changed", "percent", percent)
	return nil
}

// BaseReserve returns the base currency held against future sales.
func (l *Ledger) BaseReserve(ctx context.Context) (types.Amount, error) {
	return l.store.BaseReserve(ctx)
}

// BuyTokens exchanges base currency for tokens at the fixed curve. The
// treasury supplies the tokens net of the entry fee; the base payment
// joins the reserve. Returns the tokens credited to the buyer.
func (l *Ledger) BuyTokens(ctx context.Context, buyer types.Address, base types.Amount) (types.Amount, error) {
	if buyer.IsZero() {
		return types.Amount{}, ErrInvalidInput
	}
	if !base.IsPositive() {
		return types.Amount{}, ErrInsufficientPayment
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	quote := exchange.QuoteBuy(base, l.entryFee)

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return types.Amount{}, err
	}
	defer rollback(tx)

	treasury, err := tx.Account(l.treasury)
	if err != nil {
		return types.Amount{}, err
	}
	if treasury.Balance.LessThan(quote.Net) {
		return types.Amount{}, ErrReserveExhausted
	}
	if err := moveTx(tx, l.treasury, buyer, quote.Net); err != nil {
		return types.Amount{}, err
	}
	reserve, err := tx.BaseReserve()
	if err != nil {
		return types.Amount{}, err
	}
	if err := tx.SetBaseReserve(reserve.Add(base)); err != nil {
		return types.Amount{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Amount{}, err
	}

	l.record(&journal.Entry{
		Kind:   journal.KindPurchase,
		From:   l.treasury,
		To:     buyer,
		Amount: quote.Net,
	})
	l.plugins.EmitTokensPurchased(ctx, plugin.PurchaseEvent{
		Buyer:  buyer,
		Base:   base,
		Fee:    quote.Fee,
		Tokens: quote.Net,
	})
	return quote.Net, nil
}

// SellTokens exchanges tokens for base currency at the fixed curve. The
// full token amount moves to the treasury; the fee stays there while the
// net converts to base currency paid from the reserve. Returns the base
// currency owed to the seller.
func (l *Ledger) SellTokens(ctx context.Context, seller types.Address, tokens types.Amount) (types.Amount, error) {
	if seller.IsZero() {
		return types.Amount{}, ErrInvalidInput
	}
	if !tokens.IsPositive() {
		return types.Amount{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	quote := exchange.QuoteSell(tokens, l.exitFee)
	if quote.BaseOut.IsZero() {
		return types.Amount{}, ErrBelowMinimum
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return types.Amount{}, err
	}
	defer rollback(tx)

	reserve, err := tx.BaseReserve()
	if err != nil {
		return types.Amount{}, err
	}
	if reserve.LessThan(quote.BaseOut) {
		return types.Amount{}, ErrReserveExhausted
	}
	if err := moveTx(tx, seller, l.treasury, tokens); err != nil {
		return types.Amount{}, err
	}
	if err := tx.SetBaseReserve(reserve.Sub(quote.BaseOut)); err != nil {
		return types.Amount{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Amount{}, err
	}

	l.record(&journal.Entry{
		Kind:   journal.KindSale,
		From:   seller,
		To:     l.treasury,
		Amount: tokens,
	})
	l.plugins.EmitTokensSold(ctx, plugin.SaleEvent{
		Seller:  seller,
		Tokens:  tokens,
		Fee:     quote.Fee,
		BaseOut: quote.BaseOut,
	})
	return quote.BaseOut, nil
}
