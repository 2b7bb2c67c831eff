package testcases

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/goalchain/goalchain/chain"
	"github.com/goalchain/goalchain/goal"
	"github.com/goalchain/goalchain/types"
)

type Config struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Config
	err = json.Unmarshal(file, &conf)
	if err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{BaseURL:%q, Model:%q}", c.BaseURL, c.Model)
}

func InitChatModel(t *testing.T) *openai.ChatModel {
	if os.Getenv("GOALCHAIN_RUN_LIVE_TESTS") != "1" {
		t.Skip("set GOALCHAIN_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}

	ctx := context.Background()
	conf, err := loadConfig("../config.json")
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	if conf.APIKey == "" {
		t.Skip("config.json api_key is empty")
		return nil
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  conf.APIKey,
		Model:   conf.Model,
		BaseURL: conf.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return chatModel
}

func quantityValidator(raw any) (any, error) {
	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case float64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, &types.ValidationError{Message: "Quantity must be a whole number"}
		}
		n = parsed
	default:
		return nil, &types.ValidationError{Message: "Quantity must be a whole number"}
	}
	if n < 1 {
		return nil, &types.ValidationError{Message: "Quantity cannot be less than one"}
	}
	if n > 100 {
		return nil, &types.ValidationError{Message: "Quantity cannot be greater than 100"}
	}
	return n, nil
}

// NewTestChain builds the product-order graph over a live chat model.
func NewTestChain(t *testing.T) *chain.GoalChain {
	chatModel := InitChatModel(t)
	if chatModel == nil {
		return nil
	}

	order := goal.New(
		"product_order",
		"to obtain information on an order to be made",
		"I see you are trying to order a product, how can I help you?",
		goal.WithOutOfScope("Ask the user to contact sales at sales@acme.com"),
		goal.WithFields(
			goal.NewField("customer_email", "customer email"),
			goal.NewField("product_name", "product name"),
			goal.NewField("quantity", "quantity of product",
				goal.WithFormatHint("an integer"),
				goal.WithValidator(quantityValidator)),
		),
	)
	cancel := goal.New(
		"cancel_current_order",
		"to obtain the reason for the cancellation",
		"I see you are trying to cancel the current order, how can I help you?",
		goal.WithoutConfirm(),
		goal.WithFields(goal.NewField("reason", "the reason for the cancellation")),
	)
	order.Connect(cancel, "to cancel the current order", goal.WithHandOver(), goal.WithKeepMessages())
	order.Then(goal.NewAction(func(data map[string]any) (map[string]any, error) {
		out := make(map[string]any, len(data)+1)
		for k, v := range data {
			out[k] = v
		}
		out["order_number"] = "ORD123456"
		return out, nil
	}, goal.WithResponseTemplate("Your order number is {{ order_number }}.")))

	c, err := chain.NewToolBased(order, chatModel)
	if err != nil {
		t.Fatalf("failed to build chain: %v", err)
		return nil
	}
	return c
}
