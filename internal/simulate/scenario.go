package simulate

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// Scenario is a scripted sequence of calls made by named actors
type Scenario struct {
	Name   string            `yaml:"name"`
	Seed   int64             `yaml:"seed"`
	Dice   []uint32          `yaml:"dice,omitempty"` // scripted rolls; overrides seed
	Actors map[string]string `yaml:"actors"`
	Steps  []Step            `yaml:"steps"`
}

// Step is one operation. Only the fields the operation reads need to be set.
type Step struct {
	As      string `yaml:"as"`
	Op      string `yaml:"op"`
	Team    uint64 `yaml:"team,omitempty"`
	Session uint64 `yaml:"session,omitempty"`
	Monster uint64 `yaml:"monster,omitempty"`
	Player  string `yaml:"player,omitempty"` // actor name

	Name        string `yaml:"name,omitempty"`
	LastName    string `yaml:"last_name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Text        string `yaml:"text,omitempty"`
	Value       string `yaml:"value,omitempty"` // wei
	Sides       uint32 `yaml:"sides,omitempty"`
	Attack      uint64 `yaml:"attack,omitempty"`
	Defense     uint64 `yaml:"defense,omitempty"`
	HitPoints   uint64 `yaml:"hit_points,omitempty"`
	XP          uint64 `yaml:"xp,omitempty"`
	Gold        uint64 `yaml:"gold,omitempty"`
	Date        string `yaml:"date,omitempty"`

	// Expect names the error kind the step must fail with. Empty means success.
	Expect string `yaml:"expect,omitempty"`
}

// Load reads and validates a scenario file
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a scenario document
func Parse(b []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return &sc, nil
}

// Validate checks actor addresses, operation names and expectations
func (sc *Scenario) Validate() error {
	var errs []error
	if len(sc.Actors) == 0 {
		errs = append(errs, errors.New("at least one actor is required"))
	}
	for name, addr := range sc.Actors {
		if _, err := model.ParseAddress(addr); err != nil {
			errs = append(errs, fmt.Errorf("actor %s: %w", name, err))
		}
	}
	for i, st := range sc.Steps {
		if _, ok := sc.Actors[st.As]; !ok {
			errs = append(errs, fmt.Errorf("step %d: unknown actor %q", i+1, st.As))
		}
		if _, ok := operations[st.Op]; !ok {
			errs = append(errs, fmt.Errorf("step %d: unknown op %q", i+1, st.Op))
		}
		if st.Player != "" {
			if _, ok := sc.Actors[st.Player]; !ok {
				errs = append(errs, fmt.Errorf("step %d: unknown player %q", i+1, st.Player))
			}
		}
		if st.Expect != "" {
			if _, ok := errorKinds[st.Expect]; !ok {
				errs = append(errs, fmt.Errorf("step %d: unknown error kind %q", i+1, st.Expect))
			}
		}
	}
	return errors.Join(errs...)
}

func (sc *Scenario) address(actor string) model.Address {
	// Validate has parsed every actor already
	addr, _ := model.ParseAddress(sc.Actors[actor])
	return addr
}
