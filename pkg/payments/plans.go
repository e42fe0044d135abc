package payments

// Plan is a purchasable credit pack. Price is in KRW, Credits is the number
// of content generations the pack buys.
type Plan struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Price   int    `json:"price"`
	Credits int    `json:"credits"`
}

var Plans = map[string]Plan{
	"basic": {
		ID:      "basic",
		Name:    "Basic Credit Pack",
		Price:   10000,
		Credits: 20,
	},
	"pro": {
		ID:      "pro",
		Name:    "Pro Credit Pack",
		Price:   25000,
		Credits: 60,
	},
	"business": {
		ID:      "business",
		Name:    "Business Credit Pack",
		Price:   50000,
		Credits: 150,
	},
}

func GetPlan(planID string) (Plan, bool) {
	plan, ok := Plans[planID]
	return plan, ok
}
