// Package server generates the anonymous identities handed to connections at
// join time.
package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
)

const nickPrefix = "Anon-"

var hueRange = big.NewInt(360)

// NewIdentity produces a fresh anonymous identity: a nickname built from a
// short random hex token and an HSL color with a uniformly random hue.
// Both draws come from crypto/rand so identities are not guessable by other
// clients.
func NewIdentity() Identity {
	token := make([]byte, 2)
	if _, err := rand.Read(token); err != nil {
		// crypto/rand failing means the platform randomness source is
		// broken; nothing sensible can be served without it.
		log.Panicf("identity generation failed: %v", err)
	}

	hue, err := rand.Int(rand.Reader, hueRange)
	if err != nil {
		log.Panicf("identity generation failed: %v", err)
	}

	return Identity{
		Nick:  nickPrefix + hex.EncodeToString(token),
		Color: fmt.Sprintf("hsl(%d 70%% 55%%)", hue.Int64()),
	}
}
