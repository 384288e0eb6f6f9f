package secret

import "strings"

// LastFour returns the trailing four characters of a card number.
func LastFour(number string) string {
	number = strings.ReplaceAll(number, " ", "")
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}

// MaskCardNumber renders a card number as ****1234.
func MaskCardNumber(number string) string {
	return "****" + LastFour(number)
}
