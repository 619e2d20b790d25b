package pricing

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Season applies a multiplier between two month-day boundaries (inclusive), every year.
// A season whose start is after its end wraps over the new year.
type Season struct {
	Name       string  `yaml:"name"`
	Start      string  `yaml:"start"` // MM-DD
	End        string  `yaml:"end"` // MM-DD
	Multiplier float64 `yaml:"multiplier"`

	start, end monthDay
}

type monthDay struct{ m, d int }

func (a monthDay) before(b monthDay) bool { return a.m < b.m || (a.m == b.m && a.d < b.d) }

func parseMonthDay(s string) (monthDay, error) {
	t, err := time.Parse("01-02", strings.TrimSpace(s))
	if err != nil {
		return monthDay{}, fmt.Errorf("invalid month-day %q, want MM-DD", s)
	}
	return monthDay{int(t.Month()), t.Day()}, nil
}

func (s Season) contains(day time.Time) bool {
	md := monthDay{int(day.Month()), day.Day()}
	if !s.end.before(s.start) {
		return !md.before(s.start) && !s.end.before(md)
	}
	return !md.before(s.start) || !s.end.before(md)
}

type Rules struct {
	WeekendDays       []time.Weekday
	WeekendMultiplier decimal.Decimal
	Seasons           []Season
	TaxPercent        decimal.Decimal
}

type rulesFile struct {
	WeekendDays       []string `yaml:"weekend_days"`
	WeekendMultiplier float64  `yaml:"weekend_multiplier"`
	TaxPercent        *float64 `yaml:"tax_percent"`
	Seasons           []Season `yaml:"seasons"`
}

// DefaultRules: Friday and Saturday nights at +20%, no seasons.
func DefaultRules(taxPercent float64) Rules {
	return Rules{
		WeekendDays:       []time.Weekday{time.Friday, time.Saturday},
		WeekendMultiplier: decimal.NewFromFloat(1.2),
		TaxPercent:        decimal.NewFromFloat(taxPercent),
	}
}

// LoadRules reads rules from a YAML file; an empty path yields DefaultRules.
func LoadRules(path string, taxPercent float64) (Rules, error) {
	r := DefaultRules(taxPercent)
	if path == "" {
		return r, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read pricing rules: %w", err)
	}
	return ParseRules(b, taxPercent)
}

func ParseRules(b []byte, taxPercent float64) (Rules, error) {
	r := DefaultRules(taxPercent)
	var f rulesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return r, fmt.Errorf("parse pricing rules: %w", err)
	}
	if len(f.WeekendDays) > 0 {
		r.WeekendDays = r.WeekendDays[:0]
		for _, d := range f.WeekendDays {
			wd, ok := weekdays[strings.ToLower(strings.TrimSpace(d))]
			if !ok {
				return r, fmt.Errorf("unknown weekend day %q", d)
			}
			r.WeekendDays = append(r.WeekendDays, wd)
		}
	}
	if f.WeekendMultiplier > 0 {
		r.WeekendMultiplier = decimal.NewFromFloat(f.WeekendMultiplier)
	}
	if f.TaxPercent != nil {
		r.TaxPercent = decimal.NewFromFloat(*f.TaxPercent)
	}
	for _, s := range f.Seasons {
		var err error
		if s.start, err = parseMonthDay(s.Start); err != nil {
			return r, fmt.Errorf("season %s: %w", s.Name, err)
		}
		if s.end, err = parseMonthDay(s.End); err != nil {
			return r, fmt.Errorf("season %s: %w", s.Name, err)
		}
		if s.Multiplier <= 0 {
			return r, fmt.Errorf("season %s: multiplier must be positive", s.Name)
		}
		r.Seasons = append(r.Seasons, s)
	}
	return r, nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func (r Rules) isWeekend(day time.Time) bool {
	for _, wd := range r.WeekendDays {
		if day.Weekday() == wd {
			return true
		}
	}
	return false
}

// Multiplier combines the weekend and the first matching seasonal multiplier for a night.
func (r Rules) Multiplier(day time.Time) decimal.Decimal {
	m := decimal.NewFromInt(1)
	if r.isWeekend(day) {
		m = m.Mul(r.WeekendMultiplier)
	}
	for _, s := range r.Seasons {
		if s.contains(day) {
			m = m.Mul(decimal.NewFromFloat(s.Multiplier))
			break
		}
	}
	return m
}

func (r Rules) NightlyPrice(base decimal.Decimal, day time.Time) decimal.Decimal {
	return base.Mul(r.Multiplier(day)).Round(2)
}
