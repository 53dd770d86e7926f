package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IronCondorPosition is a four-leg position: short call + protective long
// call above the spot, short put + protective long put below it. Max
// profit/loss and breakevens are derived once at creation and never
// recomputed.
type IronCondorPosition struct {
	ID                uuid.UUID
	ShortCall         *OptionPosition
	LongCall          *OptionPosition
	ShortPut          *OptionPosition
	LongPut           *OptionPosition
	EntryDate         time.Time
	Expiration        time.Time
	UnderlyingAtEntry float64
	Quantity          int
	NetCredit         float64
	WingWidth         float64
	MaxProfit         float64
	MaxLoss           float64
	BreakevenUpper    float64
	BreakevenLower    float64
	ExitDate          *time.Time
	ExitReason        string
}

func NewIronCondorPosition(shortCall, longCall, shortPut, longPut *OptionPosition, entryDate time.Time, underlyingAtEntry float64, quantity int) (*IronCondorPosition, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("NewIronCondorPosition: quantity must be positive, got %d", quantity)
	}

	if !(shortPut.Contract.Strike > longPut.Contract.Strike) || !(longCall.Contract.Strike > shortCall.Contract.Strike) {
		return nil, fmt.Errorf("NewIronCondorPosition: strikes not ordered: longPut=%.2f shortPut=%.2f shortCall=%.2f longCall=%.2f",
			longPut.Contract.Strike, shortPut.Contract.Strike, shortCall.Contract.Strike, longCall.Contract.Strike)
	}

	if !(shortCall.Contract.Strike > shortPut.Contract.Strike) {
		return nil, fmt.Errorf("NewIronCondorPosition: short call strike %.2f must exceed short put strike %.2f",
			shortCall.Contract.Strike, shortPut.Contract.Strike)
	}

	callWing := longCall.Contract.Strike - shortCall.Contract.Strike
	putWing := shortPut.Contract.Strike - longPut.Contract.Strike
	wingWidth := callWing
	if putWing > wingWidth {
		wingWidth = putWing
	}

	if wingWidth <= 0 {
		return nil, fmt.Errorf("NewIronCondorPosition: non-positive wing width %.2f", wingWidth)
	}

	expiration := shortCall.Contract.Expiration
	for _, leg := range []*OptionPosition{longCall, shortPut, longPut} {
		if !leg.Contract.Expiration.Equal(expiration) {
			return nil, fmt.Errorf("NewIronCondorPosition: legs do not share an expiration: %v vs %v",
				leg.Contract.Expiration, expiration)
		}
	}

	// Per-share credit: the shorts are sold at their entry price, the longs
	// bought at theirs.
	credit := shortCall.EntryPrice + shortPut.EntryPrice - longCall.EntryPrice - longPut.EntryPrice

	return &IronCondorPosition{
		ID:                uuid.New(),
		ShortCall:         shortCall,
		LongCall:          longCall,
		ShortPut:          shortPut,
		LongPut:           longPut,
		EntryDate:         entryDate,
		Expiration:        expiration,
		UnderlyingAtEntry: underlyingAtEntry,
		Quantity:          quantity,
		NetCredit:         credit,
		WingWidth:         wingWidth,
		MaxProfit:         credit * ContractMultiplier * float64(quantity),
		MaxLoss:           (wingWidth - credit) * ContractMultiplier * float64(quantity),
		BreakevenUpper:    shortCall.Contract.Strike + credit,
		BreakevenLower:    shortPut.Contract.Strike - credit,
	}, nil
}

func (p *IronCondorPosition) Legs() []*OptionPosition {
	return []*OptionPosition{p.ShortCall, p.LongCall, p.ShortPut, p.LongPut}
}

func (p *IronCondorPosition) IsOpen() bool {
	return p.ExitDate == nil
}

func (p *IronCondorPosition) PnL() float64 {
	var total float64
	for _, leg := range p.Legs() {
		total += leg.PnL()
	}

	return total
}

func (p *IronCondorPosition) DaysToExpiration(asOf time.Time) float64 {
	return p.Expiration.Sub(asOf).Hours() / 24.0
}

func (p *IronCondorPosition) CloseAll(date time.Time, reason string) {
	for _, leg := range p.Legs() {
		if leg.IsOpen() {
			leg.Close(leg.Mark.MidPrice(), date)
		}
	}

	p.ExitDate = &date
	p.ExitReason = reason
}
