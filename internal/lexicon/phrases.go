package lexicon

import (
	"fmt"
	"strings"
)

// Greetings holds the time-of-day openings.
type Greetings struct {
	Morning   string `yaml:"morning"`
	Afternoon string `yaml:"afternoon"`
	Evening   string `yaml:"evening"`
}

// SummaryLabels are the fixed parts of a rendered order summary.
type SummaryLabels struct {
	Header     string `yaml:"header"`
	Empty      string `yaml:"empty"`
	PickupTime string `yaml:"pickup_time"`
	Name       string `yaml:"name"`
}

// Phrases are the assistant's spoken lines. Templates use {item},
// {items} and {summary} placeholders.
type Phrases struct {
	Greetings    Greetings         `yaml:"greetings"`
	Summary      SummaryLabels     `yaml:"summary"`
	AskModifier  map[string]string `yaml:"ask_modifier"`
	AskName      string            `yaml:"ask_name"`
	AskTime      string            `yaml:"ask_time"`
	Summarize    string            `yaml:"summarize"`
	Confirmed    string            `yaml:"confirmed"`
	Thanks       string            `yaml:"thanks"`
	Acknowledge  string            `yaml:"acknowledge"`
	NotAvailable string            `yaml:"not_available"`
	MenuIntro    string            `yaml:"menu_intro"`
	Wine         map[string]string `yaml:"wine"`
	Desserts     string            `yaml:"desserts"`
	Drinks       string            `yaml:"drinks"`
	Closing      string            `yaml:"closing"`
	NothingSaid  string            `yaml:"nothing_said"`
	DTMF         map[string]string `yaml:"dtmf"`
}

func (p *Phrases) validate() error {
	required := map[string]string{
		"greetings.morning":   p.Greetings.Morning,
		"greetings.afternoon": p.Greetings.Afternoon,
		"greetings.evening":   p.Greetings.Evening,
		"summary.header":      p.Summary.Header,
		"summary.empty":       p.Summary.Empty,
		"ask_name":            p.AskName,
		"ask_time":            p.AskTime,
		"summarize":           p.Summarize,
		"confirmed":           p.Confirmed,
		"acknowledge":         p.Acknowledge,
		"not_available":       p.NotAvailable,
	}
	for key, v := range required {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("lexicon: phrase %s is required", key)
		}
	}
	return nil
}

// Fill substitutes {placeholders} in a phrase template.
func Fill(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
