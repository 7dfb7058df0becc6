package booking

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const ticketAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// TicketCodePattern matches codes produced by NewTicketCode.
var TicketCodePattern = regexp.MustCompile(`^TKT-[0-9A-Z]{8}$`)

// NewTicketCode returns a code of the form TKT-XXXXXXXX where every X is
// drawn uniformly from 0-9A-Z.
func NewTicketCode() (string, error) {
	buf := []byte("TKT-XXXXXXXX")
	n36 := big.NewInt(int64(len(ticketAlphabet)))
	for i := 4; i < len(buf); i++ {
		n, err := rand.Int(rand.Reader, n36)
		if err != nil {
			return "", err
		}
		buf[i] = ticketAlphabet[n.Int64()]
	}
	return string(buf), nil
}
