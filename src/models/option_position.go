package models

import (
	"time"

	"github.com/google/uuid"
)

const ContractMultiplier = 100.0

// OptionPosition is one leg of a multi-leg strategy position. Quantity is
// signed: positive is long, negative is short.
type OptionPosition struct {
	ID         uuid.UUID
	Contract   *OptionContract
	Quantity   int
	EntryPrice float64
	EntryDate  time.Time
	Mark       Mark
	ExitPrice  *float64
	ExitDate   *time.Time
}

func NewOptionPosition(contract *OptionContract, quantity int, entryPrice float64, entryDate time.Time) *OptionPosition {
	return &OptionPosition{
		ID:         uuid.New(),
		Contract:   contract,
		Quantity:   quantity,
		EntryPrice: entryPrice,
		EntryDate:  entryDate,
		Mark:       NewMarkFromContract(contract),
	}
}

func (p *OptionPosition) IsOpen() bool {
	return p.ExitDate == nil
}

// CurrentPrice is the exit price once closed, otherwise the mark mid.
func (p *OptionPosition) CurrentPrice() float64 {
	if p.ExitPrice != nil {
		return *p.ExitPrice
	}

	return p.Mark.MidPrice()
}

// PnL is (current − entry) × signed quantity × 100.
func (p *OptionPosition) PnL() float64 {
	return (p.CurrentPrice() - p.EntryPrice) * float64(p.Quantity) * ContractMultiplier
}

// UpdateMark replaces the leg's mark with a fresh quote.
func (p *OptionPosition) UpdateMark(m Mark) {
	p.Mark = m
}

func (p *OptionPosition) Close(price float64, date time.Time) {
	p.ExitPrice = &price
	p.ExitDate = &date
}
