// Package signers produces and checks the per-input EIP-712 signatures of
// payment transactions, and the root-chain transactors used by exits and
// deposits.
package signers

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/TEENet-io/plasma-go/txbuilder"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	logger "github.com/sirupsen/logrus"
)

// Signer binds signatures to one plasma framework deployment.
type Signer struct {
	verifyingContract common.Address
}

func NewSigner(verifyingContract common.Address) *Signer {
	return &Signer{verifyingContract: verifyingContract}
}

func (s *Signer) VerifyingContract() common.Address {
	return s.verifyingContract
}

// Sign signs tx once per input. keys[i] authorizes tx.Inputs[i]; the same key
// may appear several times.
func (s *Signer) Sign(tx *plasma.Transaction, keys []*ecdsa.PrivateKey) ([]plasma.Signature, error) {
	if len(keys) != len(tx.Inputs) {
		return nil, plasma.ErrSigCountMismatch(len(tx.Inputs), len(keys))
	}

	for i, key := range keys {
		if key == nil {
			return nil, plasma.ErrInvalidTx("missing key for input %d", i)
		}
		owner := tx.Inputs[i].Owner
		if owner != (common.Address{}) && crypto.PubkeyToAddress(key.PublicKey) != owner {
			return nil, plasma.ErrInvalidTx("key %d does not own input %s", i, tx.Inputs[i].Position)
		}
	}

	hash, err := txbuilder.SigningHash(tx, s.verifyingContract)
	if err != nil {
		return nil, err
	}

	sigs := make([]plasma.Signature, len(keys))
	for i, key := range keys {
		sig, err := SignHash(hash, key)
		if err != nil {
			return nil, err
		}
		sigs[i] = sig
	}

	logger.WithFields(logger.Fields{
		"hash":   hash.Hex(),
		"inputs": len(sigs),
	}).Debug("signed transaction")

	return sigs, nil
}

// SignAndBuild signs tx and attaches the signatures.
func (s *Signer) SignAndBuild(tx *plasma.Transaction, keys []*ecdsa.PrivateKey) (*plasma.SignedTransaction, error) {
	sigs, err := s.Sign(tx, keys)
	if err != nil {
		return nil, err
	}
	return BuildSigned(tx, sigs)
}

// Verify checks that every signature recovers to the owner of its input.
// Inputs without a known owner only need a recoverable signature.
func (s *Signer) Verify(stx *plasma.SignedTransaction) error {
	if len(stx.Signatures) != len(stx.Inputs) {
		return plasma.ErrSigCountMismatch(len(stx.Inputs), len(stx.Signatures))
	}

	hash, err := txbuilder.SigningHash(&stx.Transaction, s.verifyingContract)
	if err != nil {
		return err
	}
	for i, sig := range stx.Signatures {
		signer, err := Recover(hash, sig)
		if err != nil {
			return err
		}
		owner := stx.Inputs[i].Owner
		if owner != (common.Address{}) && signer != owner {
			return plasma.ErrInvalidTx("signature %d recovers to %s, input owned by %s", i, signer.Hex(), owner.Hex())
		}
	}
	return nil
}

// BuildSigned pairs tx with one signature per input.
func BuildSigned(tx *plasma.Transaction, sigs []plasma.Signature) (*plasma.SignedTransaction, error) {
	if len(sigs) != len(tx.Inputs) {
		return nil, plasma.ErrSigCountMismatch(len(tx.Inputs), len(sigs))
	}
	copied := make([]plasma.Signature, len(sigs))
	copy(copied, sigs)
	return &plasma.SignedTransaction{Transaction: *tx, Signatures: copied}, nil
}

// SignHash returns the 65-byte [r || s || v] signature with v in {27, 28}.
func SignHash(hash common.Hash, key *ecdsa.PrivateKey) (plasma.Signature, error) {
	var sig plasma.Signature
	raw, err := crypto.Sign(hash[:], key)
	if err != nil {
		return sig, err
	}
	raw[crypto.RecoveryIDOffset] += 27
	copy(sig[:], raw)
	return sig, nil
}

func Recover(hash common.Hash, sig plasma.Signature) (common.Address, error) {
	raw := make([]byte, plasma.SignatureLength)
	copy(raw, sig[:])
	if raw[crypto.RecoveryIDOffset] >= 27 {
		raw[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(hash[:], raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", plasma.ErrInvalidTransaction, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// StringToPrivateKey parses a hex private key, 0x prefix optional.
func StringToPrivateKey(s string) (*ecdsa.PrivateKey, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return crypto.HexToECDSA(s)
}

// NewAuth returns a keyed transactor for root-chain calls.
func NewAuth(key *ecdsa.PrivateKey, chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(key, chainID)
}
