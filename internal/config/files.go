package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Deployment describes the tokens, feeds and funded users an engine is wired
// with. Amounts and prices are human decimals such as "10.5".
type Deployment struct {
	Engine     string           `yaml:"engine" validate:"required"`
	DebtToken  DebtTokenConf    `yaml:"debt_token"`
	Collateral []CollateralConf `yaml:"collateral" validate:"required,min=1,dive"`
	Users      []UserConf       `yaml:"users" validate:"dive"`
	StartTime  time.Time        `yaml:"start_time"`
}

type DebtTokenConf struct {
	Symbol  string `yaml:"symbol" validate:"required"`
	Address string `yaml:"address" validate:"required"`
}

// CollateralConf is one allowed collateral asset and the feed that prices it.
type CollateralConf struct {
	Symbol   string `yaml:"symbol" validate:"required"`
	Address  string `yaml:"address" validate:"required"`
	Feed     string `yaml:"feed" validate:"required"`
	Decimals uint8  `yaml:"decimals" validate:"lte=36"`
	Price    string `yaml:"price" validate:"required,numeric"`
}

// UserConf funds an account with collateral tokens, keyed by asset address.
type UserConf struct {
	Address  string            `yaml:"address" validate:"required"`
	Balances map[string]string `yaml:"balances" validate:"dive,keys,required,endkeys,required,numeric"`
}

// Scenario is an ordered list of actions replayed against a deployment.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps" validate:"required,min=1,dive"`
}

// Step is one scenario action. Which fields matter depends on Action.
type Step struct {
	Action     string        `yaml:"action" validate:"required,oneof=set_price advance_time deposit mint deposit_and_mint burn redeem redeem_for_debt liquidate approve"`
	User       string        `yaml:"user"`
	Asset      string        `yaml:"asset"`
	Target     string        `yaml:"target"`
	Spender    string        `yaml:"spender"`
	Amount     string        `yaml:"amount" validate:"omitempty,numeric"`
	DebtAmount string        `yaml:"debt_amount" validate:"omitempty,numeric"`
	Price      string        `yaml:"price" validate:"omitempty,numeric"`
	Duration   time.Duration `yaml:"duration"`

	// ExpectError names the error the step must fail with, such as
	// "breaks health factor". Empty means the step must succeed.
	ExpectError string `yaml:"expect_error"`

	// NoApprove skips the automatic approval of the engine before pulls.
	NoApprove bool `yaml:"no_approve"`
}

// LoadDeployment reads and validates a deployment file.
func LoadDeployment(path string) (*Deployment, error) {
	return loadYAML[Deployment](path)
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	return loadYAML[Scenario](path)
}

func loadYAML[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	var cfg T
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse YAML %s: %w", path, err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &cfg, nil
}
