package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"netnuke/internal/system"
	"netnuke/internal/units"
)

// ConfirmPhrase фраза, которую оператор вводит для подтверждения
const ConfirmPhrase = "DESTROY"

// askOne подменяется в тестах
var askOne = survey.AskOne

// Confirm двойное подтверждение перед затиранием реальных устройств
func (c *Console) Confirm(disks []system.DiskInfo) (bool, error) {
	c.mu.Lock()
	c.red.Fprintf(c.errOut, "\n⚠️  ВНИМАНИЕ: все данные будут УНИЧТОЖЕНЫ на %d устройствах:\n", len(disks))
	for _, d := range disks {
		sig := ""
		if d.Signature != "" {
			sig = ", содержит " + d.Signature
		}
		c.red.Fprintf(c.errOut, "   %s (%s%s)\n", d.Path, units.HumanBytes(d.Size), sig)
	}
	c.mu.Unlock()

	confirm := false
	prompt := &survey.Confirm{
		Message: "Продолжить?",
		Default: false,
	}

	if err := askOne(prompt, &confirm); err != nil {
		return false, fmt.Errorf("ошибка подтверждения: %w", err)
	}

	if !confirm {
		return false, nil
	}

	// Повторное подтверждение
	phrase := ""
	input := &survey.Input{
		Message: fmt.Sprintf("Введите %s для подтверждения:", ConfirmPhrase),
	}

	if err := askOne(input, &phrase); err != nil {
		return false, fmt.Errorf("ошибка подтверждения: %w", err)
	}

	return strings.TrimSpace(phrase) == ConfirmPhrase, nil
}
