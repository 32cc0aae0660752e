package validate

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestPhoneNumberPrefix(t *testing.T) {
    assert.ErrorIs(t, PhoneNumber("09171234567"), ErrPhonePrefix)
    assert.ErrorIs(t, PhoneNumber("639171234567"), ErrPhonePrefix)
    assert.ErrorIs(t, PhoneNumber(""), ErrPhonePrefix)
}

func TestPhoneNumberLength(t *testing.T) {
    // 11 characters total, prefix correct
    assert.ErrorIs(t, PhoneNumber("+6391712345"), ErrPhoneLength)
    // 16 characters total
    assert.ErrorIs(t, PhoneNumber("+639171234567890"), ErrPhoneLength)
    // boundaries are inclusive
    assert.NoError(t, PhoneNumber("+63917123456"))    // 12
    assert.NoError(t, PhoneNumber("+63917123456789")) // 15
}

func TestPhoneNumberDigits(t *testing.T) {
    assert.ErrorIs(t, PhoneNumber("+63917-123456"), ErrPhoneDigits)
    assert.ErrorIs(t, PhoneNumber("+63 917123456"), ErrPhoneDigits)
    assert.NoError(t, PhoneNumber("+639171234567"))
}

// Each failure class must map to its own sentinel so the client can
// show a distinct message.
func TestPhoneNumberErrorsAreDistinct(t *testing.T) {
    require.NotErrorIs(t, ErrPhonePrefix, ErrPhoneLength)
    require.NotErrorIs(t, ErrPhoneLength, ErrPhoneDigits)
}

func TestBirthdayExactCutoff(t *testing.T) {
    today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

    // exactly 18 today is valid
    assert.NoError(t, Birthday(time.Date(2008, 8, 28, 0, 0, 0, 0, time.UTC), today))
    // 18 tomorrow is not: bare year subtraction would wrongly accept this
    assert.Error(t, Birthday(time.Date(2008, 8, 29, 0, 0, 0, 0, time.UTC), today))
    // month later in the year
    assert.Error(t, Birthday(time.Date(2008, 9, 1, 0, 0, 0, 0, time.UTC), today))
    // comfortably adult
    assert.NoError(t, Birthday(time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC), today))
}

func TestBirthdayCurrentYear(t *testing.T) {
    today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
    assert.Error(t, Birthday(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), today))
    assert.Error(t, Birthday(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), today))
}

func TestName(t *testing.T) {
    assert.NoError(t, Name("Maria Clara", 32))
    assert.Error(t, Name("Maria2", 32))
    assert.Error(t, Name("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 32)) // 33 chars
    assert.NoError(t, Name("", 32))                                // presence is checked elsewhere
}

func TestTargetMoveInDate(t *testing.T) {
    today := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

    // same day fails even though the clock has time left
    assert.Error(t, TargetMoveInDate(time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC), today))
    assert.NoError(t, TargetMoveInDate(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), today))
    // exactly three months out is allowed
    assert.NoError(t, TargetMoveInDate(time.Date(2026, 11, 28, 0, 0, 0, 0, time.UTC), today))
    assert.Error(t, TargetMoveInDate(time.Date(2026, 11, 29, 0, 0, 0, 0, time.UTC), today))
    // past
    assert.Error(t, TargetMoveInDate(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), today))
}

func TestMoveInTime(t *testing.T) {
    assert.NoError(t, MoveInTime("08:00"))
    assert.NoError(t, MoveInTime("18:00"))
    assert.NoError(t, MoveInTime("12:30"))
    assert.Error(t, MoveInTime("07:59"))
    assert.Error(t, MoveInTime("18:01"))
    assert.Error(t, MoveInTime("8am"))
    assert.Error(t, MoveInTime(""))
}

func TestEmail(t *testing.T) {
    assert.NoError(t, Email("tenant@example.com"))
    assert.Error(t, Email("tenant@example"))
    assert.Error(t, Email("@example.com"))
    assert.Error(t, Email("tenant@"))
    assert.Error(t, Email("a@b@c.com"))
    assert.Error(t, Email("plainstring"))
}

func TestAddressLine(t *testing.T) {
    assert.NoError(t, AddressLine("123 Kalayaan Ave", 100))
    long := make([]byte, 101)
    for i := range long {
        long[i] = 'x'
    }
    assert.Error(t, AddressLine(string(long), 100))
}
