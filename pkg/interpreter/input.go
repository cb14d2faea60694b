package interpreter

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/botfluent/botfluent/pkg/models"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const phoneSeparators = "+ -()."

// validInput checks free text against an input node's response type.
func validInput(responseType, text string) bool {
	trimmed := strings.TrimSpace(text)

	switch responseType {
	case models.ResponseTypeEmail:
		return emailPattern.MatchString(trimmed)
	case models.ResponseTypePhone:
		return validPhone(trimmed)
	case models.ResponseTypeNumber:
		value, err := strconv.ParseFloat(trimmed, 64)

		return err == nil && !math.IsInf(value, 0) && !math.IsNaN(value)
	default:
		return trimmed != ""
	}
}

func validPhone(text string) bool {
	if len(text) < 8 {
		return false
	}

	for _, r := range text {
		if r >= '0' && r <= '9' {
			continue
		}

		if !strings.ContainsRune(phoneSeparators, r) {
			return false
		}
	}

	return true
}

// inputErrorMessage picks the re-prompt text for a failed validation.
func inputErrorMessage(data models.InputData) string {
	if data.ErrorMessage != "" {
		return data.ErrorMessage
	}

	switch data.ResponseType {
	case models.ResponseTypeEmail:
		return "Veuillez saisir une adresse email valide."
	case models.ResponseTypePhone:
		return "Veuillez saisir un numéro de téléphone valide."
	case models.ResponseTypeNumber:
		return "Veuillez saisir un nombre valide."
	default:
		return "Veuillez saisir une réponse."
	}
}
