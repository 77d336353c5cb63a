package chain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// LoadKeypair reads the submitter's ed25519 signing key from a keygen file.
// A failure here is fatal to startup; the process cannot sign without it.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("chain: load keypair from %s: %w", path, err)
	}
	return key, nil
}
