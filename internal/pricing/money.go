package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is an amount in currency minor units.
type Cents int64

// Dollars converts a whole major-unit amount to Cents.
func Dollars(n int64) Cents {
	return Cents(n * 100)
}

// Major returns the amount in major units for presentation only.
func (c Cents) Major() float64 {
	return float64(c) / 100
}

// String renders the amount as $12,350.00.
func (c Cents) String() string {
	sign := ""
	n := int64(c)
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s$%s.%02d", sign, formatThousand(n/100), n%100)
}

// roundHalfUp applies a rate in basis points to amount, rounding half away from zero.
func roundHalfUp(amount Cents, bps int64) Cents {
	v := int64(amount) * bps
	if v < 0 {
		return -Cents((-v + 5000) / 10000)
	}
	return Cents((v + 5000) / 10000)
}

func formatThousand(n int64) string {
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
