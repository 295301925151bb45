package entity

import (
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout is the layout used for timestamps in the stats files.
const TimestampLayout = "01/02/2006 15:04:05"

// BattleRunHeader is the column order of the per-metamon stats file.
var BattleRunHeader = []string{
	"My metamon id",
	"League lvl",
	"Total battles",
	"My metamon power",
	"My metamon level",
	"Victories",
	"Defeats",
	"Total egg shards",
	"Timestamp",
}

// SummaryHeader is the column order of the per-wallet summary file.
var SummaryHeader = []string{
	"Victories",
	"Defeats",
	"Win Rate",
	"Total Egg Shards",
	"Datetime",
}

// BattleRunRow aggregates the battles one metamon fought in a single run.
type BattleRunRow struct {
	TokenID      string    `json:"tokenId"`
	League       int       `json:"league"`
	TotalBattles int       `json:"totalBattles"`
	Power        int       `json:"power"`
	Level        int       `json:"level"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Fragments    int       `json:"fragments"`
	Timestamp    time.Time `json:"timestamp"`
}

// Record renders the row in BattleRunHeader order.
func (r BattleRunRow) Record() []string {
	return []string{
		r.TokenID,
		strconv.Itoa(r.League),
		strconv.Itoa(r.TotalBattles),
		strconv.Itoa(r.Power),
		strconv.Itoa(r.Level),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		strconv.Itoa(r.Fragments),
		r.Timestamp.Format(TimestampLayout),
	}
}

// SummaryRow is the per-wallet aggregate of one run.
type SummaryRow struct {
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Fragments int       `json:"fragments"`
	Datetime  time.Time `json:"datetime"`
}

// WinRate returns the win percentage, or zero when no battles were fought.
func (s SummaryRow) WinRate() float64 {
	total := s.Wins + s.Losses
	if total == 0 {
		return 0
	}
	return float64(s.Wins) / float64(total) * 100
}

// Record renders the row in SummaryHeader order.
func (s SummaryRow) Record() []string {
	return []string{
		strconv.Itoa(s.Wins),
		strconv.Itoa(s.Losses),
		fmt.Sprintf("%.2f%%", s.WinRate()),
		strconv.Itoa(s.Fragments),
		s.Datetime.Format(TimestampLayout),
	}
}

// DayResult is the running aggregate of one wallet's battle day.
type DayResult struct {
	Wins           int
	Losses         int
	Fragments      int
	Runs           []BattleRunRow
	FundsExhausted bool
}

// Battles returns the number of recorded battles.
func (d DayResult) Battles() int {
	return d.Wins + d.Losses
}

// Add folds one metamon's run into the day.
func (d *DayResult) Add(row BattleRunRow) {
	d.Wins += row.Wins
	d.Losses += row.Losses
	d.Fragments += row.Fragments
	d.Runs = append(d.Runs, row)
}

// Summary builds the summary row for the day.
func (d DayResult) Summary(at time.Time) SummaryRow {
	return SummaryRow{
		Wins:      d.Wins,
		Losses:    d.Losses,
		Fragments: d.Fragments,
		Datetime:  at,
	}
}
