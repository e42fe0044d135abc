package payments

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const orderIDPrefix = "order"

// Order is the information carried inside an order id:
// order_<planID>_<userID>_<unix timestamp>.
type Order struct {
	PlanID   string
	UserID   string
	IssuedAt time.Time
}

// BuildOrderID creates an order id for a plan purchase by the given user.
func BuildOrderID(planID, userID string) string {
	return fmt.Sprintf("%s_%s_%s_%d", orderIDPrefix, planID, userID, time.Now().Unix())
}

// ParseOrderID extracts and validates the components of an order id. The plan
// must exist; user identity is checked by the caller against the
// authenticated user.
func ParseOrderID(orderID string) (*Order, error) {
	parts := strings.Split(orderID, "_")
	if len(parts) != 4 || parts[0] != orderIDPrefix {
		return nil, fmt.Errorf("malformed order id %q", orderID)
	}

	planID, userID, ts := parts[1], parts[2], parts[3]
	if planID == "" || userID == "" {
		return nil, fmt.Errorf("malformed order id %q", orderID)
	}
	if _, ok := Plans[planID]; !ok {
		return nil, fmt.Errorf("unknown plan %q in order id", planID)
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed order timestamp %q", ts)
	}

	return &Order{
		PlanID:   planID,
		UserID:   userID,
		IssuedAt: time.Unix(unix, 0),
	}, nil
}
