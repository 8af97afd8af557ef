package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Numbers are the Pythagorean core numbers printed on a report.
type Numbers struct {
	LifePath    int `json:"life_path_number"`
	Destiny     int `json:"destiny_number"`
	SoulUrge    int `json:"soul_urge_number"`
	Personality int `json:"personality_number"`
}

func isMasterNumber(n int) bool {
	return n == 11 || n == 22 || n == 33
}

func sumDigits(n int) int {
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

// reduce folds n to a single digit, stopping at master numbers.
func reduce(n int) int {
	for n > 9 && !isMasterNumber(n) {
		n = sumDigits(n)
	}
	return n
}

func letterValue(r rune) int {
	r = unicode.ToUpper(r)
	if r < 'A' || r > 'Z' {
		return 0
	}
	return int(r-'A')%9 + 1
}

func isVowel(r rune) bool {
	return strings.ContainsRune("AEIOU", unicode.ToUpper(r))
}

func LifePathNumber(dateOfBirth string) (int, error) {
	dob, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return 0, fmt.Errorf("invalid date of birth %q: %w", dateOfBirth, err)
	}
	month := reduce(int(dob.Month()))
	day := reduce(dob.Day())
	year := reduce(sumDigits(dob.Year()))
	return reduce(month + day + year), nil
}

func nameNumbers(fullName string) (destiny, soulUrge, personality int) {
	var all, vowels, consonants int
	for _, r := range fullName {
		v := letterValue(r)
		if v == 0 {
			continue
		}
		all += v
		if isVowel(r) {
			vowels += v
		} else {
			consonants += v
		}
	}
	return reduce(all), reduce(vowels), reduce(consonants)
}

func CalculateNumbers(fullName, dateOfBirth string) (Numbers, error) {
	lifePath, err := LifePathNumber(dateOfBirth)
	if err != nil {
		return Numbers{}, err
	}
	destiny, soulUrge, personality := nameNumbers(fullName)
	return Numbers{
		LifePath:    lifePath,
		Destiny:     destiny,
		SoulUrge:    soulUrge,
		Personality: personality,
	}, nil
}
