package main

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/goalchain/goalchain/goal"
	"github.com/goalchain/goalchain/types"
)

const highQuantityThreshold = 50

func quantityValidator(raw any) (any, error) {
	var quantity int
	switch v := raw.(type) {
	case float64:
		quantity = int(v)
	case int:
		quantity = v
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, types.NewValidationError("Quantity must be a valid number")
		}
		quantity = parsed
	default:
		return nil, types.NewValidationError("Quantity must be a valid number")
	}
	if quantity <= 0 {
		return nil, types.NewValidationError("Quantity cannot be less than one")
	}
	if quantity > 100 {
		return nil, types.NewValidationError("Quantity cannot be greater than 100")
	}
	return quantity, nil
}

func isHighQuantity(data map[string]any) bool {
	quantity, ok := data["quantity"].(int)
	return ok && quantity >= highQuantityThreshold
}

// buildGraph wires the product-order conversation: collect an order, allow
// cancelling it mid-flight, and verify unusually large orders before
// processing them.
func buildGraph() *goal.Goal {
	productOrder := goal.New(
		"product_order",
		"to obtain information on an order to be made",
		"I see you are trying to order a product, how can I help you?",
		goal.WithOutOfScope("Ask the user to contact the sales team at sales@acme.com"),
		goal.WithFields(
			goal.NewField("product_name", "product to be ordered", goal.WithFormatHint("a string")),
			goal.NewField("customer_email", "customer email", goal.WithFormatHint("a string")),
			goal.NewField("quantity", "quantity of product", goal.WithFormatHint("an integer"), goal.WithValidator(quantityValidator)),
		),
	)

	cancelOrder := goal.New(
		"cancel_current_order",
		"to obtain the reason for the cancellation",
		"I see you are trying to cancel the current order, how can I help you?",
		goal.WithOutOfScope("Ask the user to contact the support team at support@acme.com"),
		goal.WithoutConfirm(),
		goal.WithFields(
			goal.NewField("reason", "reason for order cancellation (optional)", goal.WithFormatHint("a string")),
		),
	)

	highValueOrder := goal.New(
		"high_value_order",
		"to verify high-value orders",
		"Since you're ordering a large quantity, we need to verify your order by sending you a verification code over email.",
		goal.WithOutOfScope("Please contact support for further assistance."),
		goal.WithFields(
			goal.NewField("verification_code", "verification code", goal.WithFormatHint("a 6-digit code")),
		),
	)

	productOrder.Connect(cancelOrder, "to cancel the current order",
		goal.WithHandOver(), goal.WithKeepMessages())
	productOrder.ConnectIf("is_high_quantity", isHighQuantity, highValueOrder,
		goal.WithKeepMessages())
	cancelOrder.Connect(productOrder, "to continue with the order anyway",
		goal.WithHandOver(), goal.WithKeepMessages())
	highValueOrder.Connect(cancelOrder, "to cancel the current order",
		goal.WithHandOver(), goal.WithKeepMessages())

	productOrder.Then(goal.NewAction(processOrder,
		goal.WithResponseTemplate("Your order has been processed successfully! Your order number is {{ order_number }}."),
		goal.WithRephrase(),
		goal.EndsConversation(),
	))
	cancelOrder.Then(goal.NewAction(cancelOrderAction,
		goal.WithResponseTemplate("Your order number {{ order_number }} has been cancelled successfully. I understand the reason you provided: {{ reason }}"),
		goal.WithRephrase(),
		goal.EndsConversation(),
	))
	highValueOrder.Then(goal.NewAction(processHighValueOrder,
		goal.WithResponseTemplate("Your high-value order has been verified and processed successfully! Your order number is {{ order_number }}."),
		goal.WithRephrase(),
		goal.EndsConversation(),
	))

	return productOrder
}

func processOrder(data map[string]any) (map[string]any, error) {
	data["order_number"] = newOrderNumber()
	return data, nil
}

func cancelOrderAction(data map[string]any) (map[string]any, error) {
	data["order_number"] = newOrderNumber()
	if _, ok := data["reason"]; !ok {
		data["reason"] = "no reason given"
	}
	return data, nil
}

func processHighValueOrder(data map[string]any) (map[string]any, error) {
	data["order_number"] = newOrderNumber()
	return data, nil
}

func newOrderNumber() string {
	return fmt.Sprintf("ORD%06d", rand.Intn(1000000))
}
