// Package validate contains the pure field validators used by the
// reservation flow.  Every validator is a function of the value alone
// and returns nil when the value is acceptable.  Validators never
// panic and never touch the database; aggregate "all required fields
// present" checks are a separate concern handled by the flow gates.
package validate

import (
    "errors"
    "fmt"
    "strings"
    "time"
    "unicode"
)

// Phone validation failures are distinguished so that the client can
// render a specific message for each case.
var (
    ErrPhonePrefix = errors.New("phone number must start with +63")
    ErrPhoneLength = errors.New("phone number must be 12 to 15 characters long")
    ErrPhoneDigits = errors.New("phone number may contain only digits after +63")
)

// Name checks a single name component (first, middle, last, nickname,
// visitor name).  Digits are forbidden and the length is capped at max
// characters (32 for single components, 64 for composed full names).
func Name(s string, max int) error {
    if len(s) > max {
        return fmt.Errorf("must be at most %d characters", max)
    }
    for _, r := range s {
        if unicode.IsDigit(r) {
            return errors.New("must not contain digits")
        }
    }
    return nil
}

// PhoneNumber checks a Philippine mobile number.  The literal prefix
// +63 is required, the remainder must be digits only, and the total
// length including the prefix must be between 12 and 15 inclusive.
func PhoneNumber(s string) error {
    if !strings.HasPrefix(s, "+63") {
        return ErrPhonePrefix
    }
    if len(s) < 12 || len(s) > 15 {
        return ErrPhoneLength
    }
    for _, r := range s[3:] {
        if r < '0' || r > '9' {
            return ErrPhoneDigits
        }
    }
    return nil
}

// Birthday checks that the date does not fall in the current calendar
// year or later and that the computed age, accounting for month and
// day rather than bare year subtraction, is at least 18.  A birthday
// exactly 18 years before today is valid.
func Birthday(birth, today time.Time) error {
    if birth.Year() >= today.Year() {
        return errors.New("birthday cannot be in the current year or later")
    }
    age := today.Year() - birth.Year()
    if today.Month() < birth.Month() ||
        (today.Month() == birth.Month() && today.Day() < birth.Day()) {
        age--
    }
    if age < 18 {
        return errors.New("must be at least 18 years old")
    }
    return nil
}

// AddressLine checks only the length of an address component; the
// caps differ per field (32, 64 or 100).
func AddressLine(s string, max int) error {
    if len(s) > max {
        return fmt.Errorf("must be at most %d characters", max)
    }
    return nil
}

// TargetMoveInDate checks that the requested move-in date is strictly
// after today (date-only comparison) and no more than three calendar
// months ahead.
func TargetMoveInDate(d, today time.Time) error {
    day := func(t time.Time) time.Time {
        return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
    }
    want, now := day(d), day(today)
    if !want.After(now) {
        return errors.New("move-in date must be after today")
    }
    if want.After(now.AddDate(0, 3, 0)) {
        return errors.New("move-in date must be within 3 months")
    }
    return nil
}

// MoveInTime checks an "HH:MM" clock value against the inclusive
// office window 08:00–18:00.
func MoveInTime(s string) error {
    t, err := time.Parse("15:04", s)
    if err != nil {
        return errors.New("time must be in HH:MM format")
    }
    mins := t.Hour()*60 + t.Minute()
    if mins < 8*60 || mins > 18*60 {
        return errors.New("move-in time must be between 08:00 and 18:00")
    }
    return nil
}

// Email performs the minimal shape check used at registration and on
// the billing email: a non-empty local part and domain around a single
// "@".  Full RFC validation is intentionally out of scope.
func Email(s string) error {
    at := strings.Index(s, "@")
    if at <= 0 || at == len(s)-1 || strings.Count(s, "@") != 1 {
        return errors.New("invalid email address")
    }
    if !strings.Contains(s[at+1:], ".") {
        return errors.New("invalid email address")
    }
    return nil
}
