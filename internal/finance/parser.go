package finance

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparsable is returned when the fallback parser cannot find an amount
// in the text.
var ErrUnparsable = errors.New("could not find an amount in the text")

var amountPattern = regexp.MustCompile(`[-+]?\$?\d+(?:[.,]\d{1,2})?`)

// incomeWords mark a transaction as income when they appear anywhere in the
// text; everything else is an expense.
var incomeWords = []string{
	"income", "salary", "paid me", "received", "earned", "refund", "deposit",
}

// categoryWords is a coarse keyword-to-category map. The remote parser does
// far better; this only has to be good enough for offline logging.
var categoryWords = map[string]string{
	"coffee":    "food",
	"lunch":     "food",
	"dinner":    "food",
	"breakfast": "food",
	"grocery":   "groceries",
	"groceries": "groceries",
	"uber":      "transport",
	"taxi":      "transport",
	"bus":       "transport",
	"train":     "transport",
	"fuel":      "transport",
	"gas":       "transport",
	"rent":      "housing",
	"netflix":   "subscriptions",
	"spotify":   "subscriptions",
	"movie":     "entertainment",
	"salary":    "salary",
}

// ParseText is the local fallback for the remote natural-language parser.
// It extracts the first amount, classifies direction by keyword or a
// leading "+", and uses the remaining words as the description.
func ParseText(text string) (*Transaction, error) {
	match := amountPattern.FindString(text)
	if match == "" {
		return nil, ErrUnparsable
	}

	cleaned := strings.NewReplacer("$", "", ",", ".", "+", "").Replace(match)
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, ErrUnparsable
	}
	if amount < 0 {
		amount = -amount
	}

	txType := "expense"
	lower := strings.ToLower(text)
	if strings.HasPrefix(strings.TrimSpace(match), "+") {
		txType = "income"
	} else {
		for _, w := range incomeWords {
			if strings.Contains(lower, w) {
				txType = "income"
				break
			}
		}
	}

	category := ""
	for word, cat := range categoryWords {
		if strings.Contains(lower, word) {
			category = cat
			break
		}
	}

	description := strings.TrimSpace(strings.Replace(text, match, "", 1))
	description = strings.Join(strings.Fields(description), " ")
	if description == "" {
		description = "unlabelled"
	}

	return &Transaction{
		Type:        txType,
		Amount:      amount,
		Description: description,
		Category:    category,
		OccurredAt:  time.Now().UTC(),
	}, nil
}
