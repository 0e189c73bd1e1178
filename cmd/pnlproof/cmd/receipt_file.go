package cmd

import (
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"pnl_prover/internal/models"
)

func writeReceipt(path string, r *models.Receipt) error {
	data, err := sonic.ConfigDefault.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode receipt")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write receipt")
}

func readReceipt(path string) (*models.Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read receipt")
	}
	var r models.Receipt
	if err = sonic.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "decode receipt %s", path)
	}
	return &r, nil
}
