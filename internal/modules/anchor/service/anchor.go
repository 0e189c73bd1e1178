package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"pnl_prover/internal/models"
	"pnl_prover/internal/modules/config"
	"pnl_prover/pkg/logger"
	"pnl_prover/pkg/metrics"
)

// ProofVerifierABI: единственный метод контракта, который мы вызываем.
const ProofVerifierABI = `[{"inputs":[{"internalType":"bytes32","name":"proofHash","type":"bytes32"}],"name":"addProofHash","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

const addProofHash = "addProofHash"

var (
	ErrDisabled = errors.New("anchor: disabled")
	ErrReverted = errors.New("anchor: transaction reverted")

	parsedABI = mustParseABI()
)

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(ProofVerifierABI))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Digest is what goes on chain: sha256 over the hex proof hash string.
func Digest(proofHash string) [32]byte {
	return sha256.Sum256([]byte(proofHash))
}

// Calldata packs the addProofHash call for a proof hash.
func Calldata(proofHash string) ([]byte, error) {
	return parsedABI.Pack(addProofHash, Digest(proofHash))
}

// Anchor публикует хеш доказательства в контракт ProofVerifier.
type Anchor struct {
	cfg config.Anchor

	client   *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	chainID  *big.Int
}

// New returns a disabled anchor when cfg.Enabled is false.
func New(ctx context.Context, cfg config.Anchor) (*Anchor, error) {
	a := &Anchor{cfg: cfg}
	if !cfg.Enabled {
		return a, nil
	}

	if !common.IsHexAddress(cfg.Contract) {
		return nil, errors.Errorf("anchor: bad contract address %q", cfg.Contract)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "anchor: private key")
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, errors.Wrapf(err, "anchor: dial %s", cfg.RPCURL)
	}

	address := common.HexToAddress(cfg.Contract)
	a.client = client
	a.contract = bind.NewBoundContract(address, parsedABI, client, client, client)
	a.key = key
	a.chainID = big.NewInt(cfg.ChainID)

	logger.Info("anchor: contract %s via %s as %s", address.Hex(), cfg.RPCURL, crypto.PubkeyToAddress(key.PublicKey).Hex())
	return a, nil
}

func (a *Anchor) Enabled() bool { return a.contract != nil }

// Submit sends addProofHash for the receipt and waits for it to be mined.
func (a *Anchor) Submit(ctx context.Context, receipt *models.Receipt) (txHash string, err error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}
	defer func() {
		if err != nil {
			metrics.AnchorTotal.WithLabelValues(metrics.ResultFailed).Inc()
			return
		}
		metrics.AnchorTotal.WithLabelValues(metrics.ResultAccepted).Inc()
	}()

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	opts, err := bind.NewKeyedTransactorWithChainID(a.key, a.chainID)
	if err != nil {
		return "", errors.Wrap(err, "anchor: transactor")
	}
	opts.Context = ctx

	proofHash := receipt.ProofHash()
	tx, err := a.contract.Transact(opts, addProofHash, Digest(proofHash))
	if err != nil {
		return "", errors.Wrap(err, "anchor: send addProofHash")
	}
	logger.Info("anchor: receipt %s proof_hash=%s tx=%s sent", receipt.ID, proofHash, tx.Hash().Hex())

	mined, err := bind.WaitMined(ctx, a.client, tx)
	if err != nil {
		return tx.Hash().Hex(), errors.Wrap(err, "anchor: wait mined")
	}
	if mined.Status != types.ReceiptStatusSuccessful {
		return tx.Hash().Hex(), errors.Wrapf(ErrReverted, "tx %s block %d", tx.Hash().Hex(), mined.BlockNumber)
	}
	return tx.Hash().Hex(), nil
}

// Link renders the explorer URL for a transaction, or the bare hash without a template.
func (a *Anchor) Link(txHash string) string {
	if a.cfg.Explorer == "" || !strings.Contains(a.cfg.Explorer, "%s") {
		return txHash
	}
	return fmt.Sprintf(a.cfg.Explorer, txHash)
}

func (a *Anchor) Close() {
	if a.client != nil {
		a.client.Close()
	}
}
