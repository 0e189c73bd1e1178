package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pnl_prover/internal/models"
)

func parseFloat(s string) (float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSuffix(strings.ToLower(s), "x")
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	v, _ := d.Float64()
	return float32(v), nil
}

// parsePosition разбирает "entry current pnl [leverage]".
func parsePosition(fields []string) (models.Position, error) {
	if len(fields) < 3 || len(fields) > 4 {
		return models.Position{}, fmt.Errorf("need 3 or 4 numbers, got %d", len(fields))
	}

	vals := make([]float32, len(fields))
	for i, f := range fields {
		v, err := parseFloat(f)
		if err != nil {
			return models.Position{}, err
		}
		vals[i] = v
	}

	pos := models.NewPosition(vals[0], vals[1], vals[2])
	if len(vals) == 4 {
		pos.Leverage = vals[3]
	}
	return pos, nil
}

// splitPolicy отделяет необязательное имя политики в начале аргументов.
func splitPolicy(fields []string, policies []models.PolicyConfig, def string) (string, []string) {
	if len(fields) > 0 {
		if _, ok := models.FindPolicy(policies, fields[0]); ok {
			return fields[0], fields[1:]
		}
	}
	return def, fields
}

func short(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:8] + "…" + s[len(s)-8:]
}
