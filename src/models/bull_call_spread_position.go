package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BullCallSpreadPosition is a two-leg debit spread: long call at the lower
// strike, short call at the higher strike. Derived economics are fixed at
// creation.
type BullCallSpreadPosition struct {
	ID                uuid.UUID
	LongCall          *OptionPosition
	ShortCall         *OptionPosition
	EntryDate         time.Time
	Expiration        time.Time
	UnderlyingAtEntry float64
	Quantity          int
	NetDebit          float64
	MaxProfit         float64
	MaxLoss           float64
	Breakeven         float64
	ExitDate          *time.Time
	ExitReason        string
}

func NewBullCallSpreadPosition(longCall, shortCall *OptionPosition, entryDate time.Time, underlyingAtEntry float64, quantity int) (*BullCallSpreadPosition, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("NewBullCallSpreadPosition: quantity must be positive, got %d", quantity)
	}

	width := shortCall.Contract.Strike - longCall.Contract.Strike
	if width <= 0 {
		return nil, fmt.Errorf("NewBullCallSpreadPosition: short strike %.2f must exceed long strike %.2f",
			shortCall.Contract.Strike, longCall.Contract.Strike)
	}

	if !shortCall.Contract.Expiration.Equal(longCall.Contract.Expiration) {
		return nil, fmt.Errorf("NewBullCallSpreadPosition: legs do not share an expiration: %v vs %v",
			shortCall.Contract.Expiration, longCall.Contract.Expiration)
	}

	debit := longCall.EntryPrice - shortCall.EntryPrice
	if debit <= 0 {
		return nil, fmt.Errorf("NewBullCallSpreadPosition: non-positive net debit %.2f", debit)
	}

	return &BullCallSpreadPosition{
		ID:                uuid.New(),
		LongCall:          longCall,
		ShortCall:         shortCall,
		EntryDate:         entryDate,
		Expiration:        longCall.Contract.Expiration,
		UnderlyingAtEntry: underlyingAtEntry,
		Quantity:          quantity,
		NetDebit:          debit,
		MaxProfit:         (width - debit) * ContractMultiplier * float64(quantity),
		MaxLoss:           debit * ContractMultiplier * float64(quantity),
		Breakeven:         longCall.Contract.Strike + debit,
	}, nil
}

func (p *BullCallSpreadPosition) Legs() []*OptionPosition {
	return []*OptionPosition{p.LongCall, p.ShortCall}
}

func (p *BullCallSpreadPosition) IsOpen() bool {
	return p.ExitDate == nil
}

func (p *BullCallSpreadPosition) PnL() float64 {
	var total float64
	for _, leg := range p.Legs() {
		total += leg.PnL()
	}

	return total
}

func (p *BullCallSpreadPosition) DaysToExpiration(asOf time.Time) float64 {
	return p.Expiration.Sub(asOf).Hours() / 24.0
}

func (p *BullCallSpreadPosition) CloseAll(date time.Time, reason string) {
	for _, leg := range p.Legs() {
		if leg.IsOpen() {
			leg.Close(leg.Mark.MidPrice(), date)
		}
	}

	p.ExitDate = &date
	p.ExitReason = reason
}
