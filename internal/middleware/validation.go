package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateMessageContent validates message body text.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateUserID validates a participant identifier.
func ValidateUserID(id string) error {
	if len(id) == 0 {
		return errors.New("user ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("user ID exceeds maximum length")
	}
	return nil
}

// ValidateRating validates a feedback rating.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}

// ValidateAmount validates a decimal price string like "100.00".
func ValidateAmount(amount string) error {
	if amount == "" {
		return nil
	}
	digits, fraction := 0, -1
	for _, r := range amount {
		switch {
		case r >= '0' && r <= '9':
			digits++
			if fraction >= 0 {
				fraction++
			}
		case r == '.' && fraction < 0:
			fraction = 0
		default:
			return errors.New("amount must be a decimal number")
		}
	}
	if digits == 0 || fraction > 2 {
		return errors.New("amount must have at most two fraction digits")
	}
	return nil
}

// ValidateOfferDescription validates an offer's descriptive text.
func ValidateOfferDescription(description string) error {
	if len(description) == 0 {
		return errors.New("description cannot be empty")
	}
	if len(description) > 2000 {
		return errors.New("description exceeds maximum length")
	}
	if !utf8.ValidString(description) {
		return errors.New("description must be valid UTF-8")
	}
	return nil
}
