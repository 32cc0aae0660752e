package utils

import (
    "strconv"
    "strings"
)

// ReservationCode derives the human-facing display code for a
// reservation from its numeric id: the id in base36, zero-padded to
// seven characters and uppercased, split as a three-character prefix
// and four-character suffix.  The code is unique only because the id
// is; it is shown on confirmations and receipts but never used as a
// lookup key.
func ReservationCode(id uint64) string {
    s := strings.ToUpper(strconv.FormatUint(id, 36))
    if len(s) < 7 {
        s = strings.Repeat("0", 7-len(s)) + s
    }
    return s[:len(s)-4] + "-" + s[len(s)-4:]
}
